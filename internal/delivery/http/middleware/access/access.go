package http_access_middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const ReadOnlyMode = "RO"

// ReadOnlyBadGatewayMiddleware turns away writes on a read-only instance.
// Such an instance still serves snapshots, history and polling.
func ReadOnlyBadGatewayMiddleware(mode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if mode != ReadOnlyMode {
			c.Next()
			return
		}

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Bad Gateway",
			"message": "Write operations not allowed on read-only instance",
			"code":    "READ_ONLY_INSTANCE",
		})
		c.Abort()
	}
}
