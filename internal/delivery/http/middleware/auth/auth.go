package http_auth_middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/watchparty/internal/delivery/http/common"
)

// TokenResolver hands out a user id for requests that carry none.
type TokenResolver interface {
	ResolveUserToken(token string) string
}

type Middleware struct {
	resolver TokenResolver
	logger   *slog.Logger
}

func New(
	resolver TokenResolver,
) *Middleware {
	return &Middleware{
		resolver: resolver,
		logger:   slog.Default(),
	}
}

// UserToken accepts anonymous callers: a missing X-user-token is replaced by
// a fresh id which is echoed back in the response header.
func (m *Middleware) UserToken() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		t := ctx.GetHeader(http_common.UserTokenHeader)
		userID := m.resolver.ResolveUserToken(t)
		if t == "" {
			ctx.Header(http_common.UserTokenHeader, userID)
		}
		ctx.Set(http_common.UserIDKey, userID)
		ctx.Next()
	}
}

// UserRequired rejects requests without X-user-token.
func (m *Middleware) UserRequired() gin.HandlerFunc {
	header := http_common.UserTokenHeader
	return func(ctx *gin.Context) {
		t := ctx.GetHeader(header)
		if t == "" {
			m.logger.Error(fmt.Sprintf("no %s header", header), slog.String("path", ctx.FullPath()))
			ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
				Message: fmt.Sprintf("no %s header", header),
			})
			ctx.Abort()
			return
		}
		ctx.Set(http_common.UserIDKey, t)
		ctx.Next()
	}
}

// UserID returns the id stored by UserToken or UserRequired.
func UserID(ctx *gin.Context) string {
	return ctx.GetString(http_common.UserIDKey)
}
