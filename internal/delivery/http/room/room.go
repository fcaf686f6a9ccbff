package http_room

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/watchparty/internal/delivery/http/common"
	"github.com/humanbelnik/watchparty/internal/model"
	usecase_party "github.com/humanbelnik/watchparty/internal/usecase/party"
)

type LiveRooms interface {
	Snapshot(code model.RoomCode) (model.RoomSnapshot, error)
}

type MatchHistory interface {
	History(ctx context.Context, code model.RoomCode) ([]model.Match, error)
}

type Controller struct {
	rooms   LiveRooms
	history MatchHistory
	logger  *slog.Logger
}

// New builds the controller. history may be nil when the archive is off.
func New(rooms LiveRooms, history MatchHistory) *Controller {
	return &Controller{
		rooms:   rooms,
		history: history,
		logger:  slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	rooms := router.Group("/rooms")
	{
		rooms.GET("/:code", c.snapshot)
		rooms.GET("/:code/matches", c.matches)
	}
}

// Snapshot возвращает состояние живой комнаты
// @Summary Состояние комнаты
// @Description Участники, фильмы, лайки и совпадения текущего раунда
// @Tags Rooms
// @Produce json
// @Param code path string true "Код комнаты"
// @Success 200 {object} model.RoomSnapshot "Состояние комнаты"
// @Failure 404 {object} http_common.ErrorResponse "Комната не найдена"
// @Router /rooms/{code} [get]
func (c *Controller) snapshot(ctx *gin.Context) {
	code := ctx.Param("code")

	snapshot, err := c.rooms.Snapshot(code)
	if err != nil {
		if errors.Is(err, usecase_party.ErrResourceNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
			return
		}
		c.logger.Error("failed to get room snapshot", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}

// MatchesResponseDTO DTO для истории совпадений
type MatchesResponseDTO struct {
	Matches []model.Match `json:"matches"`
}

// Matches возвращает архив совпадений комнаты
// @Summary История совпадений
// @Description Совпадения, сохраненные в архиве, в порядке появления
// @Tags Rooms
// @Produce json
// @Param code path string true "Код комнаты"
// @Success 200 {object} MatchesResponseDTO "Совпадения"
// @Failure 500 {object} http_common.ErrorResponse "Внутренняя ошибка сервера"
// @Failure 503 {object} http_common.ErrorResponse "Архив отключен"
// @Router /rooms/{code}/matches [get]
func (c *Controller) matches(ctx *gin.Context) {
	if c.history == nil {
		ctx.JSON(http.StatusServiceUnavailable, http_common.ErrorResponse{
			Message: "archive disabled",
		})
		return
	}

	matches, err := c.history.History(ctx, ctx.Param("code"))
	if err != nil {
		c.logger.Error("failed to get match history", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}

	ctx.JSON(http.StatusOK, MatchesResponseDTO{
		Matches: matches,
	})
}
