package http_auth_middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/watchparty/internal/delivery/http/common"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type fixedResolver string

func (f fixedResolver) ResolveUserToken(token string) string {
	if token != "" {
		return token
	}
	return string(f)
}

type MiddlewareSuite struct {
	suite.Suite
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := New(fixedResolver("generated"))

	router := gin.New()
	whoami := func(ctx *gin.Context) {
		ctx.String(http.StatusOK, UserID(ctx))
	}
	router.GET("/open", m.UserToken(), whoami)
	router.GET("/closed", m.UserRequired(), whoami)
	return router
}

func request(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(http_common.UserTokenHeader, token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func (s *MiddlewareSuite) TestUserToken(t provider.T) {
	router := newRouter()

	t.Run("Missing token is generated and echoed", func(t provider.T) {
		w := request(router, "/open", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "generated", w.Body.String())
		assert.Equal(t, "generated", w.Header().Get(http_common.UserTokenHeader))
	})

	t.Run("Existing token is kept", func(t provider.T) {
		w := request(router, "/open", "user-1")
		assert.Equal(t, "user-1", w.Body.String())
		assert.Empty(t, w.Header().Get(http_common.UserTokenHeader))
	})
}

func (s *MiddlewareSuite) TestUserRequired(t provider.T) {
	router := newRouter()

	assert.Equal(t, http.StatusUnauthorized, request(router, "/closed", "").Code)

	w := request(router, "/closed", "user-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())
}

func TestMiddlewareSuite(t *testing.T) {
	suite.RunSuite(t, new(MiddlewareSuite))
}
