package http_session

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	http_common "github.com/humanbelnik/watchparty/internal/delivery/http/common"
	http_auth_middleware "github.com/humanbelnik/watchparty/internal/delivery/http/middleware/auth"
	infra_memory_session "github.com/humanbelnik/watchparty/internal/infra/memory/session"
	"github.com/humanbelnik/watchparty/internal/model"
	usecase_session "github.com/humanbelnik/watchparty/internal/usecase/session"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SessionControllerSuite struct {
	suite.Suite

	router *gin.Engine
}

func (s *SessionControllerSuite) BeforeEach(t provider.T) {
	gin.SetMode(gin.TestMode)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	uc := usecase_session.New(infra_memory_session.New(clock), 24*time.Hour, usecase_session.WithClock(clock))

	s.router = gin.New()
	New(uc, http_auth_middleware.New(uc)).RegisterRoutes(s.router.Group("/api/v1"))
}

func (s *SessionControllerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(http_common.UserTokenHeader, token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *SessionControllerSuite) create(t provider.T, token string) model.Session {
	w := s.do(http.MethodPost, "/api/v1/session/create", token, CreateRequestDTO{Name: "Host"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp CreateResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Session
}

func (s *SessionControllerSuite) TestCreate(t provider.T) {
	t.Run("Anonymous caller gets a token and becomes host", func(t provider.T) {
		w := s.do(http.MethodPost, "/api/v1/session/create", "", nil)
		require.Equal(t, http.StatusCreated, w.Code)

		token := w.Header().Get(http_common.UserTokenHeader)
		require.NotEmpty(t, token)

		var resp CreateResponseDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Code, 6)
		assert.Equal(t, token, resp.Session.HostID)
		assert.Equal(t, model.StatusWaiting, resp.Session.Status)
	})

	t.Run("Known token is reused and not echoed", func(t provider.T) {
		w := s.do(http.MethodPost, "/api/v1/session/create", "host-1", CreateRequestDTO{Name: "Host"})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Header().Get(http_common.UserTokenHeader))
	})
}

func (s *SessionControllerSuite) TestJoinStartVote(t provider.T) {
	session := s.create(t, "host-1")
	movies := []model.Movie{{ID: 550, Title: "Fight Club"}, {ID: 13, Title: "Forrest Gump"}}

	w := s.do(http.MethodPost, "/api/v1/session/join", "guest-1", JoinRequestDTO{Code: session.Code, Name: "Guest"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/session/start", "guest-1", StartRequestDTO{Code: session.Code, Movies: movies})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/session/start", "", StartRequestDTO{Code: session.Code, Movies: movies})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/session/start", "host-1", StartRequestDTO{Code: session.Code, Movies: movies})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/session/start", "host-1", StartRequestDTO{Code: session.Code, Movies: movies})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/session/join", "late-1", JoinRequestDTO{Code: session.Code})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/session/vote", "guest-1", VoteRequestDTO{Code: session.Code, LikedMovieIDs: []model.MovieID{550}})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/session/vote", "late-1", VoteRequestDTO{Code: session.Code, LikedMovieIDs: []model.MovieID{550}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/v1/session/"+session.Code, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got model.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, model.StatusVoting, got.Status)
	assert.Equal(t, []string{"guest-1"}, got.Votes[550])
	assert.Len(t, got.Users, 2)
}

func (s *SessionControllerSuite) TestBadInput(t provider.T) {
	session := s.create(t, "host-1")

	testCases := []struct {
		name   string
		path   string
		token  string
		body   any
		status int
	}{
		{
			name:   "Join without code",
			path:   "/api/v1/session/join",
			body:   map[string]string{"name": "x"},
			status: http.StatusBadRequest,
		},
		{
			name:   "Start without movies",
			path:   "/api/v1/session/start",
			token:  "host-1",
			body:   StartRequestDTO{Code: session.Code},
			status: http.StatusBadRequest,
		},
		{
			name:   "Vote without any movie",
			path:   "/api/v1/session/vote",
			token:  "host-1",
			body:   VoteRequestDTO{Code: session.Code},
			status: http.StatusBadRequest,
		},
		{
			name:   "Join unknown code",
			path:   "/api/v1/session/join",
			body:   JoinRequestDTO{Code: "NOPE00"},
			status: http.StatusNotFound,
		},
		{
			name:   "Vote before start",
			path:   "/api/v1/session/vote",
			token:  "host-1",
			body:   VoteRequestDTO{Code: session.Code, LikedMovieIDs: []model.MovieID{1}},
			status: http.StatusConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			w := s.do(http.MethodPost, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, w.Code)

			var resp http_common.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func (s *SessionControllerSuite) TestGetUnknown(t provider.T) {
	w := s.do(http.MethodGet, "/api/v1/session/ZZZZZZ", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionControllerSuite(t *testing.T) {
	suite.RunSuite(t, new(SessionControllerSuite))
}
