package usecase_party

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/humanbelnik/watchparty/internal/metrics"
	"github.com/humanbelnik/watchparty/internal/model"
)

var (
	ErrResourceNotFound = errors.New("no such room")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidRound     = errors.New("invalid round")
)

// Notifier receives room state changes. Calls are made while the room is
// locked, so per-room notifications arrive in mutation order. Implementations
// must not block and must not call back into the Registry.
type Notifier interface {
	ParticipantJoined(code model.RoomCode, p model.Participant, roster []model.Participant)
	ParticipantLeft(code model.RoomCode, p model.Participant, roster []model.Participant)
	RoundStarted(code model.RoomCode, movies []model.Movie)
	RoundRestarted(code model.RoomCode)
	MatchFound(code model.RoomCode, match model.Match)
}

type nopNotifier struct{}

func (nopNotifier) ParticipantJoined(model.RoomCode, model.Participant, []model.Participant) {}
func (nopNotifier) ParticipantLeft(model.RoomCode, model.Participant, []model.Participant) {}
func (nopNotifier) RoundStarted(model.RoomCode, []model.Movie) {}
func (nopNotifier) RoundRestarted(model.RoomCode) {}
func (nopNotifier) MatchFound(model.RoomCode, model.Match) {}

type Registry struct {
	mu    sync.RWMutex
	rooms map[model.RoomCode]*Room

	// notifier has its own lock: it is read while a room is locked, and
	// Evict locks rooms while holding mu.
	notifierMu sync.RWMutex
	notifier   Notifier

	grace  time.Duration
	now    func() time.Time
	logger *slog.Logger
}

type RegistryOption func(*Registry)

func WithNotifier(n Notifier) RegistryOption {
	return func(r *Registry) {
		r.notifier = n
	}
}

func WithGracePeriod(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.grace = d
	}
}

func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		rooms:    make(map[model.RoomCode]*Room),
		notifier: nopNotifier{},
		grace:    5 * time.Minute, /* default */
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetNotifier exists because the gateway that implements Notifier is built
// on top of the Registry.
func (r *Registry) SetNotifier(n Notifier) {
	r.notifierMu.Lock()
	defer r.notifierMu.Unlock()
	if n == nil {
		n = nopNotifier{}
	}
	r.notifier = n
}

func (r *Registry) notify() Notifier {
	r.notifierMu.RLock()
	defer r.notifierMu.RUnlock()
	return r.notifier
}

// CreateOrGetRoom returns the live room for code, creating an empty one if
// needed. Concurrent callers for the same new code get the same Room.
func (r *Registry) CreateOrGetRoom(code model.RoomCode) *Room {
	code = model.NormalizeCode(code)

	r.mu.RLock()
	room, ok := r.rooms[code]
	r.mu.RUnlock()
	if ok {
		return room
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok = r.rooms[code]; !ok {
		room = newRoom(code, r.now())
		r.rooms[code] = room
		metrics.RoomsActive.Inc()
		r.logger.Info("room created", "room", code)
	}
	return room
}

func (r *Registry) lookup(code model.RoomCode) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[model.NormalizeCode(code)]
	if !ok {
		return nil, ErrResourceNotFound
	}
	return room, nil
}

// lock returns the room locked. A room evicted between lookup and locking is
// reported as missing.
func (r *Registry) lock(code model.RoomCode) (*Room, error) {
	room, err := r.lookup(code)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	if room.evicted {
		room.mu.Unlock()
		return nil, ErrResourceNotFound
	}
	return room, nil
}

// AddParticipant joins userID to the room, creating the room on first join.
// Rejoining updates the connection instead of duplicating the entry.
func (r *Registry) AddParticipant(code model.RoomCode, userID, displayName, connectionID string) ([]model.Participant, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrForbidden)
	}

	for {
		room := r.CreateOrGetRoom(code)
		room.mu.Lock()
		if room.evicted {
			// Lost a race with the janitor, the next iteration creates a fresh room.
			room.mu.Unlock()
			continue
		}

		room.addParticipant(userID, displayName, connectionID)
		roster := room.roster()
		r.notify().ParticipantJoined(room.code, *room.participant(userID), roster)
		room.mu.Unlock()

		r.logger.Info("participant joined",
			"room", room.code,
			"user_id", userID,
			"participants", len(roster))
		return roster, nil
	}
}

// SetMovies starts a round. Only the host may do it, and the candidate list
// cannot be swapped while a round is running.
func (r *Registry) SetMovies(code model.RoomCode, hostID string, movies []model.Movie) ([]model.Movie, error) {
	if len(movies) == 0 {
		return nil, fmt.Errorf("%w: empty movie list", ErrInvalidRound)
	}

	room, err := r.lock(code)
	if err != nil {
		return nil, err
	}
	defer room.mu.Unlock()

	if room.hostID != hostID {
		return nil, fmt.Errorf("%w: only host can start a round", ErrForbidden)
	}

	if room.roundActive() {
		if model.SameMovies(room.movies, movies) {
			return slices.Clone(room.movies), nil
		}
		return nil, fmt.Errorf("%w: round already started with a different movie list", ErrConflict)
	}

	room.movies = append([]model.Movie(nil), movies...)
	r.notify().RoundStarted(room.code, slices.Clone(room.movies))

	r.logger.Info("round started",
		"room", room.code,
		"movies", len(movies))
	return slices.Clone(room.movies), nil
}

// RestartRound drops the current candidates, votes and matches.
func (r *Registry) RestartRound(code model.RoomCode, hostID string) error {
	room, err := r.lock(code)
	if err != nil {
		return err
	}
	defer room.mu.Unlock()

	if room.hostID != hostID {
		return fmt.Errorf("%w: only host can restart a round", ErrForbidden)
	}

	room.resetRound()
	r.notify().RoundRestarted(room.code)
	r.logger.Info("round restarted", "room", room.code)
	return nil
}

// RecordVote stores userID's vote for movieID, overwriting an earlier one,
// and reports whether the vote completed a unanimous match.
func (r *Registry) RecordVote(code model.RoomCode, movieID model.MovieID, userID string, vote model.Vote) (model.MatchResult, error) {
	result := model.MatchResult{MovieID: movieID}
	if !vote.Valid() {
		return result, fmt.Errorf("%w: unknown vote %q", ErrInvalidRound, vote)
	}

	room, err := r.lock(code)
	if err != nil {
		return result, err
	}
	defer room.mu.Unlock()

	if !room.isActive(userID) {
		return result, fmt.Errorf("%w: %s is not an active participant", ErrForbidden, userID)
	}
	if !room.roundActive() {
		return result, fmt.Errorf("%w: round not started", ErrConflict)
	}
	movie, ok := room.movie(movieID)
	if !ok {
		return result, fmt.Errorf("%w: movie %d is not in this round", ErrResourceNotFound, movieID)
	}

	room.setVote(movieID, userID, vote)
	metrics.VotesTotal.WithLabelValues(string(vote)).Inc()

	if room.evaluate(movieID) {
		result.Matched = true
		r.announce(room, movie, "vote")
	}
	return result, nil
}

// RemoveParticipant marks the owner of connectionID inactive. Pending movies
// are re-evaluated against the remaining participants, so a departure can
// complete matches. Newly matched movies are returned.
func (r *Registry) RemoveParticipant(code model.RoomCode, connectionID string) ([]model.Movie, error) {
	room, err := r.lock(code)
	if err != nil {
		return nil, err
	}
	defer room.mu.Unlock()

	p, ok := room.deactivate(connectionID, r.now())
	if !ok {
		// Stale connection of a participant that already rejoined.
		return nil, nil
	}

	roster := room.roster()
	r.notify().ParticipantLeft(room.code, *p, roster)
	r.logger.Info("participant left",
		"room", room.code,
		"user_id", p.UserID,
		"participants", len(roster))

	matched := room.evaluatePending()
	for _, m := range matched {
		r.announce(room, m, "disconnect")
	}
	return matched, nil
}

func (r *Registry) announce(room *Room, movie model.Movie, trigger string) {
	metrics.MatchesTotal.WithLabelValues(trigger).Inc()
	r.notify().MatchFound(room.code, model.Match{
		RoomCode:     room.code,
		MovieID:      movie.ID,
		Title:        movie.Title,
		PosterPath:   movie.PosterPath,
		Participants: room.activeCount(),
		MatchedAt:    r.now(),
	})
	r.logger.Info("match found",
		"room", room.code,
		"movie_id", movie.ID,
		"trigger", trigger)
}

func (r *Registry) Snapshot(code model.RoomCode) (model.RoomSnapshot, error) {
	room, err := r.lock(code)
	if err != nil {
		return model.RoomSnapshot{}, err
	}
	defer room.mu.Unlock()
	return room.snapshot(), nil
}

func (r *Registry) Exists(code model.RoomCode) bool {
	_, err := r.lookup(code)
	return err == nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Evict drops rooms that have had no active participant for longer than the
// grace period and returns their codes.
func (r *Registry) Evict(now time.Time) []model.RoomCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []model.RoomCode
	for code, room := range r.rooms {
		room.mu.Lock()
		if room.activeCount() == 0 && !room.emptySince.IsZero() && now.Sub(room.emptySince) > r.grace {
			room.evicted = true
			delete(r.rooms, code)
			evicted = append(evicted, code)
		}
		room.mu.Unlock()
	}

	if len(evicted) > 0 {
		metrics.RoomsActive.Sub(float64(len(evicted)))
		metrics.RoomsEvicted.Add(float64(len(evicted)))
		r.logger.Info("rooms evicted", "count", len(evicted))
	}
	return evicted
}

// RunJanitor evicts idle rooms every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Evict(r.now())
		}
	}
}
