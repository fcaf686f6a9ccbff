package http_session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/watchparty/internal/delivery/http/common"
	http_auth_middleware "github.com/humanbelnik/watchparty/internal/delivery/http/middleware/auth"
	"github.com/humanbelnik/watchparty/internal/model"
	usecase_session "github.com/humanbelnik/watchparty/internal/usecase/session"
)

type SessionUsecase interface {
	Create(ctx context.Context, host model.User) (model.Session, error)
	Join(ctx context.Context, code model.RoomCode, user model.User) (model.Session, error)
	Start(ctx context.Context, code model.RoomCode, hostID string, movies []model.Movie) (model.Session, error)
	Vote(ctx context.Context, code model.RoomCode, userID string, liked, disliked []model.MovieID) (model.Session, error)
	Get(ctx context.Context, code model.RoomCode) (model.Session, error)
}

type Controller struct {
	usecase    SessionUsecase
	middleware *http_auth_middleware.Middleware
	logger     *slog.Logger
}

func New(usecase SessionUsecase, middleware *http_auth_middleware.Middleware) *Controller {
	return &Controller{
		usecase:    usecase,
		middleware: middleware,
		logger:     slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/session")
	{
		sessions.POST("/create", c.middleware.UserToken(), c.create)
		sessions.POST("/join", c.middleware.UserToken(), c.join)
		sessions.POST("/start", c.middleware.UserRequired(), c.start)
		sessions.POST("/vote", c.middleware.UserRequired(), c.vote)
		sessions.GET("/:code", c.get)
	}
}

// CreateRequestDTO DTO для создания сессии
type CreateRequestDTO struct {
	Name string `json:"name" binding:"max=64"`
}

// CreateResponseDTO DTO для ответа создания сессии
type CreateResponseDTO struct {
	Code    string        `json:"code"`
	Session model.Session `json:"session"`
}

// Create создает сессию
// @Summary Создание сессии
// @Description Создает сессию просмотра, вызывающий становится хостом
// @Tags Session
// @Accept json
// @Produce json
// @Param request body CreateRequestDTO false "Имя хоста"
// @Success 201 {object} CreateResponseDTO "Сессия создана"
// @Header 201 {string} X-user-token "Токен пользователя"
// @Failure 400 {object} http_common.ErrorResponse "Неверный формат запроса"
// @Failure 500 {object} http_common.ErrorResponse "Внутренняя ошибка сервера"
// @Failure 503 {object} http_common.ErrorResponse "Ресурс недоступен"
// @Router /session/create [post]
func (c *Controller) create(ctx *gin.Context) {
	var req CreateRequestDTO
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: "invalid request format",
			})
			return
		}
	}

	session, err := c.usecase.Create(ctx, model.User{
		ID:   http_auth_middleware.UserID(ctx),
		Name: req.Name,
	})
	if err != nil {
		c.logger.Error("failed to create session", slog.String("error", err.Error()))
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, CreateResponseDTO{
		Code:    session.Code,
		Session: session,
	})
}

// JoinRequestDTO DTO для входа в сессию
type JoinRequestDTO struct {
	Code string `json:"code" binding:"required,max=16"`
	Name string `json:"name" binding:"max=64"`
}

// Join добавляет участника в сессию
// @Summary Вход в сессию
// @Description Добавляет пользователя в ожидающую сессию. Повторный вход участника разрешен в любом статусе
// @Tags Session
// @Accept json
// @Produce json
// @Param request body JoinRequestDTO true "Код сессии и имя"
// @Success 200 {object} model.Session "Сессия"
// @Header 200 {string} X-user-token "Токен пользователя"
// @Failure 400 {object} http_common.ErrorResponse "Неверный формат запроса"
// @Failure 404 {object} http_common.ErrorResponse "Сессия не найдена"
// @Failure 409 {object} http_common.ErrorResponse "Голосование уже началось"
// @Failure 500 {object} http_common.ErrorResponse "Внутренняя ошибка сервера"
// @Router /session/join [post]
func (c *Controller) join(ctx *gin.Context) {
	var req JoinRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	session, err := c.usecase.Join(ctx, req.Code, model.User{
		ID:   http_auth_middleware.UserID(ctx),
		Name: req.Name,
	})
	if err != nil {
		c.logger.Error("failed to join session", slog.String("error", err.Error()), slog.String("code", req.Code))
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, session)
}

// StartRequestDTO DTO для запуска голосования
type StartRequestDTO struct {
	Code   string        `json:"code" binding:"required,max=16"`
	Movies []model.Movie `json:"movies" binding:"required,min=1,dive"`
}

// Start запускает голосование
// @Summary Запуск голосования
// @Description Переводит сессию в статус voting. Доступно только хосту
// @Tags Session
// @Accept json
// @Produce json
// @Param request body StartRequestDTO true "Код сессии и фильмы"
// @Success 200 {object} model.Session "Сессия"
// @Failure 400 {object} http_common.ErrorResponse "Неверный формат запроса"
// @Failure 401 {object} http_common.ErrorResponse "Не авторизован"
// @Failure 403 {object} http_common.ErrorResponse "Доступно только хосту"
// @Failure 404 {object} http_common.ErrorResponse "Сессия не найдена"
// @Failure 409 {object} http_common.ErrorResponse "Сессия уже запущена"
// @Failure 500 {object} http_common.ErrorResponse "Внутренняя ошибка сервера"
// @Security UserToken
// @Router /session/start [post]
func (c *Controller) start(ctx *gin.Context) {
	var req StartRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	session, err := c.usecase.Start(ctx, req.Code, http_auth_middleware.UserID(ctx), req.Movies)
	if err != nil {
		c.logger.Error("failed to start session", slog.String("error", err.Error()), slog.String("code", req.Code))
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, session)
}

// VoteRequestDTO DTO для голосования
type VoteRequestDTO struct {
	Code             string          `json:"code" binding:"required,max=16"`
	LikedMovieIDs    []model.MovieID `json:"likedMovieIds"`
	DislikedMovieIDs []model.MovieID `json:"dislikedMovieIds"`
}

// Vote сохраняет голоса пользователя
// @Summary Голосование
// @Description Лайк добавляет пользователя к фильму, дизлайк убирает
// @Tags Session
// @Accept json
// @Produce json
// @Param request body VoteRequestDTO true "Голоса"
// @Success 200 {object} model.Session "Сессия"
// @Failure 400 {object} http_common.ErrorResponse "Неверный формат запроса"
// @Failure 401 {object} http_common.ErrorResponse "Не авторизован"
// @Failure 403 {object} http_common.ErrorResponse "Пользователь не участник сессии"
// @Failure 404 {object} http_common.ErrorResponse "Сессия не найдена"
// @Failure 409 {object} http_common.ErrorResponse "Голосование не идет"
// @Failure 500 {object} http_common.ErrorResponse "Внутренняя ошибка сервера"
// @Security UserToken
// @Router /session/vote [post]
func (c *Controller) vote(ctx *gin.Context) {
	var req VoteRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}
	if len(req.LikedMovieIDs) == 0 && len(req.DislikedMovieIDs) == 0 {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "no votes",
		})
		return
	}

	session, err := c.usecase.Vote(ctx, req.Code, http_auth_middleware.UserID(ctx), req.LikedMovieIDs, req.DislikedMovieIDs)
	if err != nil {
		c.logger.Error("failed to vote", slog.String("error", err.Error()), slog.String("code", req.Code))
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, session)
}

// Get возвращает сессию
// @Summary Получение сессии
// @Description Снимок сессии для восстановления после переподключения
// @Tags Session
// @Produce json
// @Param code path string true "Код сессии"
// @Success 200 {object} model.Session "Сессия"
// @Failure 404 {object} http_common.ErrorResponse "Сессия не найдена"
// @Failure 500 {object} http_common.ErrorResponse "Внутренняя ошибка сервера"
// @Router /session/{code} [get]
func (c *Controller) get(ctx *gin.Context) {
	code := ctx.Param("code")

	session, err := c.usecase.Get(ctx, code)
	if err != nil {
		if !errors.Is(err, usecase_session.ErrResourceNotFound) {
			c.logger.Error("failed to get session", slog.String("error", err.Error()), slog.String("code", code))
		}
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, session)
}

func (c *Controller) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase_session.ErrBadRequest):
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{Message: err.Error()})
	case errors.Is(err, usecase_session.ErrForbidden):
		ctx.JSON(http.StatusForbidden, http_common.ErrorResponse{Message: err.Error()})
	case errors.Is(err, usecase_session.ErrResourceNotFound):
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{Message: "not found"})
	case errors.Is(err, usecase_session.ErrConflict):
		ctx.JSON(http.StatusConflict, http_common.ErrorResponse{Message: err.Error()})
	case errors.Is(err, usecase_session.ErrRoomsUnavailable):
		ctx.JSON(http.StatusServiceUnavailable, http_common.ErrorResponse{Message: "unavailable"})
	default:
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{Message: "internal error"})
	}
}
