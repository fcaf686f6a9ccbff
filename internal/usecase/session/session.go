package usecase_session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/humanbelnik/watchparty/internal/metrics"
	"github.com/humanbelnik/watchparty/internal/model"
)

var (
	ErrCodeConflict     = errors.New("code conflict")
	ErrRoomsUnavailable = errors.New("no available rooms")
	ErrInternal         = errors.New("internal error")
	ErrResourceNotFound = errors.New("no such resource")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrBadRequest       = errors.New("bad request")
)

// Repositories return ErrCodeConflict from Create when the code is taken and
// ErrResourceNotFound for unknown or expired codes. Update applies fn
// atomically; an error from fn aborts the update and is returned as is.
//
//go:generate mockery --name=SessionRepository --output=./mocks --filename=repository.go
type SessionRepository interface {
	Create(ctx context.Context, s model.Session) error
	Get(ctx context.Context, code model.RoomCode) (model.Session, error)
	Update(ctx context.Context, code model.RoomCode, fn func(s *model.Session) error) (model.Session, error)
}

// LiveRooms lets code generation skip codes held by the live registry.
type LiveRooms interface {
	Exists(code model.RoomCode) bool
}

type Usecase struct {
	repo      SessionRepository
	liveRooms LiveRooms
	ttl       time.Duration
	now       func() time.Time
}

type Option func(*Usecase)

func WithLiveRooms(lr LiveRooms) Option {
	return func(u *Usecase) {
		u.liveRooms = lr
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *Usecase) {
		u.now = now
	}
}

func New(
	repo SessionRepository,
	ttl time.Duration,
	opts ...Option,
) *Usecase {
	if ttl <= 0 {
		ttl = 24 * time.Hour /* default */
	}

	u := &Usecase{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// ResolveUserToken returns token, or a fresh user id when the client has
// none yet.
func (u *Usecase) ResolveUserToken(token string) string {
	if token != "" {
		return token
	}
	return uuid.New().String()
}

func (u *Usecase) Create(ctx context.Context, host model.User) (session model.Session, err error) {
	defer func() { metrics.SessionOpsTotal.WithLabelValues("create", metrics.Result(err)).Inc() }()

	if host.ID == "" {
		return model.Session{}, fmt.Errorf("%w: empty host id", ErrBadRequest)
	}
	return u.createSession(ctx, host)
}

// Assuming that codes can conflict.
// Retrying...
func (u *Usecase) createSession(ctx context.Context, host model.User) (model.Session, error) {
	var retries = 3
	for retries > 0 {
		code := u.buildRoomCode()
		if u.liveRooms != nil && u.liveRooms.Exists(code) {
			retries--
			continue
		}

		now := u.now()
		s := model.Session{
			Code:      code,
			HostID:    host.ID,
			Users:     []model.User{host},
			Votes:     make(map[model.MovieID][]string),
			Status:    model.StatusWaiting,
			CreatedAt: now,
			ExpiresAt: now.Add(u.ttl),
		}
		if err := u.repo.Create(ctx, s); err != nil {
			if errors.Is(err, ErrCodeConflict) {
				retries--
				continue
			}
			return model.Session{}, errors.Join(ErrInternal, err)
		}
		return s, nil
	}
	return model.Session{}, ErrRoomsUnavailable
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (u *Usecase) buildRoomCode() string {
	const codeLen = 6
	var builder strings.Builder
	builder.Grow(codeLen)

	for range codeLen {
		builder.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}

	return builder.String()
}

// Join adds user to a waiting session. Users already on the roster may rejoin
// at any status, which is how a refreshed client recovers.
func (u *Usecase) Join(ctx context.Context, code model.RoomCode, user model.User) (session model.Session, err error) {
	defer func() { metrics.SessionOpsTotal.WithLabelValues("join", metrics.Result(err)).Inc() }()

	if user.ID == "" {
		return model.Session{}, fmt.Errorf("%w: empty user id", ErrBadRequest)
	}

	session, err = u.repo.Update(ctx, model.NormalizeCode(code), func(s *model.Session) error {
		if s.HasUser(user.ID) {
			return nil
		}
		if s.Status != model.StatusWaiting {
			return fmt.Errorf("%w: session is %s", ErrConflict, s.Status)
		}
		s.Users = append(s.Users, user)
		return nil
	})
	return session, u.mapErr(err)
}

func (u *Usecase) Start(ctx context.Context, code model.RoomCode, hostID string, movies []model.Movie) (session model.Session, err error) {
	defer func() { metrics.SessionOpsTotal.WithLabelValues("start", metrics.Result(err)).Inc() }()

	session, err = u.repo.Update(ctx, model.NormalizeCode(code), func(s *model.Session) error {
		if s.HostID != hostID {
			return fmt.Errorf("%w: only host can start the session", ErrForbidden)
		}
		if s.Status != model.StatusWaiting {
			return fmt.Errorf("%w: session is %s", ErrConflict, s.Status)
		}
		s.Status = model.StatusVoting
		if len(movies) > 0 {
			s.Movies = slices.Clone(movies)
		}
		return nil
	})
	return session, u.mapErr(err)
}

// Vote merges a user's swipes. Likes add the user to a movie without
// duplicates and dislikes remove them, so replays are harmless and a later
// swipe overwrites an earlier one.
func (u *Usecase) Vote(ctx context.Context, code model.RoomCode, userID string, liked, disliked []model.MovieID) (session model.Session, err error) {
	defer func() { metrics.SessionOpsTotal.WithLabelValues("vote", metrics.Result(err)).Inc() }()

	session, err = u.repo.Update(ctx, model.NormalizeCode(code), func(s *model.Session) error {
		if !s.HasUser(userID) {
			return fmt.Errorf("%w: %s is not a session member", ErrForbidden, userID)
		}
		if s.Status != model.StatusVoting {
			return fmt.Errorf("%w: session is %s", ErrConflict, s.Status)
		}
		if s.Votes == nil {
			s.Votes = make(map[model.MovieID][]string)
		}
		for _, movieID := range disliked {
			s.Votes[movieID] = slices.DeleteFunc(s.Votes[movieID], func(id string) bool { return id == userID })
			if len(s.Votes[movieID]) == 0 {
				delete(s.Votes, movieID)
			}
		}
		for _, movieID := range liked {
			if len(s.Movies) > 0 && !s.HasMovie(movieID) {
				return fmt.Errorf("%w: movie %d is not in this session", ErrBadRequest, movieID)
			}
			if !slices.Contains(s.Votes[movieID], userID) {
				s.Votes[movieID] = append(s.Votes[movieID], userID)
			}
		}
		return nil
	})
	return session, u.mapErr(err)
}

// Complete records a live match and closes the session. Completing a
// completed session only appends the match.
func (u *Usecase) Complete(ctx context.Context, code model.RoomCode, movieID model.MovieID) (err error) {
	defer func() { metrics.SessionOpsTotal.WithLabelValues("complete", metrics.Result(err)).Inc() }()

	_, err = u.repo.Update(ctx, model.NormalizeCode(code), func(s *model.Session) error {
		if s.Status == model.StatusWaiting {
			return fmt.Errorf("%w: session is %s", ErrConflict, s.Status)
		}
		s.Status = model.StatusCompleted
		if !slices.Contains(s.Matches, movieID) {
			s.Matches = append(s.Matches, movieID)
		}
		return nil
	})
	return u.mapErr(err)
}

func (u *Usecase) Get(ctx context.Context, code model.RoomCode) (session model.Session, err error) {
	defer func() { metrics.SessionOpsTotal.WithLabelValues("get", metrics.Result(err)).Inc() }()

	session, err = u.repo.Get(ctx, model.NormalizeCode(code))
	return session, u.mapErr(err)
}

func (u *Usecase) mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrResourceNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrBadRequest):
		return err
	default:
		return errors.Join(ErrInternal, err)
	}
}
