package ws_party

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Controller struct {
	gateway *Gateway
	logger  *slog.Logger
}

func NewController(gateway *Gateway) *Controller {
	return &Controller{
		gateway: gateway,
		logger:  slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", c.handleWebSocket)
}

// HandleWebSocket открывает соединение вечеринки
// @Summary WebSocket вечеринки
// @Description Апгрейд до WebSocket. Клиент отправляет join, затем события голосования и чата
// @Tags Party
// @Success 101 "Соединение установлено"
// @Failure 500 {object} http_common.ErrorResponse "Внутренняя ошибка сервера"
// @Router /ws [get]
func (c *Controller) handleWebSocket(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		c.logger.Error("failed to upgrade to websocket",
			slog.String("error", err.Error()),
		)
		return
	}

	c.gateway.Serve(conn)
}
