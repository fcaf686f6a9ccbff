package http_init

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	http_access_middleware "github.com/humanbelnik/watchparty/internal/delivery/http/middleware/access"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const apiPrefix = "/api/v1"

type Controller interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type ControllerPool struct {
	pool   []Controller
	rg     *gin.RouterGroup
	engine *gin.Engine
}

// NewControllerPool prepares the engine. mode "RO" rejects writes under the
// API prefix.
func NewControllerPool(mode string) *ControllerPool {
	engine := gin.Default() // ! Change on NGINX setup
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rg := engine.Group(apiPrefix, http_access_middleware.ReadOnlyBadGatewayMiddleware(mode))
	rg.GET("/health", health)
	return &ControllerPool{
		pool:   make([]Controller, 0, 10),
		rg:     rg,
		engine: engine,
	}
}

func health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (pool *ControllerPool) Register() {
	for _, c := range pool.pool {
		c.RegisterRoutes(pool.rg)
	}
}

func (pool *ControllerPool) Handler() http.Handler {
	return pool.engine
}

func (pool *ControllerPool) RunAll(port string) {
	if err := pool.engine.Run(":" + port); err != nil {
		log.Fatalf("failed to run HTTP server: %v", err)
	}
}

func (pool *ControllerPool) Add(c Controller) {
	pool.pool = append(pool.pool, c)
}
