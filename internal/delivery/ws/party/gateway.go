package ws_party

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/humanbelnik/watchparty/internal/metrics"
	"github.com/humanbelnik/watchparty/internal/model"
	usecase_party "github.com/humanbelnik/watchparty/internal/usecase/party"
	"golang.org/x/time/rate"
)

var (
	errNotJoined = fmt.Errorf("%w: join the room first", usecase_party.ErrForbidden)
	errNoSession = fmt.Errorf("%w: session not found", usecase_party.ErrResourceNotFound)
)

// SessionSyncer mirrors live round changes into the durable session.
type SessionSyncer interface {
	Start(ctx context.Context, code model.RoomCode, hostID string, movies []model.Movie) (model.Session, error)
	Complete(ctx context.Context, code model.RoomCode, movieID model.MovieID) error
}

type MatchArchiver interface {
	Archive(ctx context.Context, m model.Match) error
}

// Gateway routes client events to the Registry and Registry notifications to
// room broadcasts. It keeps no room state of its own.
type Gateway struct {
	registry *usecase_party.Registry
	hub      *Hub
	validate *validator.Validate

	sessions    SessionSyncer
	archive     MatchArchiver
	syncTimeout time.Duration
	jobs        chan durableJob

	eventsPerSecond float64
	eventBurst      int
	sendBuffer      int
	maxMessageSize  int64

	now    func() time.Time
	logger *slog.Logger
}

type GatewayOption func(*Gateway)

func WithSessionSyncer(s SessionSyncer) GatewayOption {
	return func(g *Gateway) {
		g.sessions = s
	}
}

func WithMatchArchiver(a MatchArchiver) GatewayOption {
	return func(g *Gateway) {
		g.archive = a
	}
}

func WithSyncTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.syncTimeout = d
	}
}

func WithRateLimit(eventsPerSecond float64, burst int) GatewayOption {
	return func(g *Gateway) {
		g.eventsPerSecond = eventsPerSecond
		g.eventBurst = burst
	}
}

func WithSendBuffer(n int) GatewayOption {
	return func(g *Gateway) {
		g.sendBuffer = n
	}
}

func WithMaxMessageSize(n int64) GatewayOption {
	return func(g *Gateway) {
		g.maxMessageSize = n
	}
}

func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) {
		g.now = now
	}
}

func WithLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway registers the gateway as the registry's notifier.
func NewGateway(registry *usecase_party.Registry, hub *Hub, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		registry:        registry,
		hub:             hub,
		validate:        validator.New(),
		syncTimeout:     3 * time.Second,
		eventsPerSecond: 20,
		eventBurst:      40,
		sendBuffer:      256,
		maxMessageSize:  64 * 1024,
		now:             time.Now,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.jobs = make(chan durableJob, 1024)
	go g.runJobs()

	registry.SetNotifier(g)
	return g
}

func (g *Gateway) NewClient(conn Conn) *Client {
	limit := rate.Inf
	if g.eventsPerSecond > 0 {
		limit = rate.Limit(g.eventsPerSecond)
	}
	return newClient(conn, g.sendBuffer, rate.NewLimiter(limit, g.eventBurst))
}

// Serve runs the connection until the client goes away.
func (g *Gateway) Serve(conn Conn) {
	client := g.NewClient(conn)
	metrics.WSConnectionsActive.Inc()
	defer metrics.WSConnectionsActive.Dec()

	go client.writePump()
	client.readPump(g.maxMessageSize, g.HandleMessage)

	g.Disconnect(client)
	client.closeSend()
}

// Wait blocks until every durable write queued before the call has run.
// Writes queued concurrently with Wait are not awaited.
func (g *Gateway) Wait() {
	done := make(chan struct{})
	g.jobs <- durableJob{done: done}
	<-done
}

func (g *Gateway) HandleMessage(c *Client, data []byte) {
	var in inboundEvent
	if err := json.Unmarshal(data, &in); err != nil {
		g.replyError(c, "", ErrCodeBadRequest, "malformed event")
		return
	}

	if !c.limiter.Allow() {
		metrics.WSEventsTotal.WithLabelValues(in.Type, ErrCodeRateLimited).Inc()
		g.replyError(c, in.Type, ErrCodeRateLimited, "too many events")
		return
	}

	var err error
	switch in.Type {
	case EventJoin:
		err = g.handleJoin(c, in.Payload)
	case EventStartSession:
		err = g.handleStartSession(c, in.Payload)
	case EventVoteMovie:
		err = g.handleVote(c, in.Payload)
	case EventSendMessage:
		err = g.handleMessage(c, in.Payload)
	case EventRestartSession:
		err = g.handleRestart(c, in.Payload)
	case EventPing:
		g.hub.Send(c, Event{Type: EventPong})
	default:
		g.replyError(c, in.Type, ErrCodeBadRequest, "unknown event type")
		metrics.WSEventsTotal.WithLabelValues("unknown", ErrCodeBadRequest).Inc()
		return
	}

	if err != nil {
		code, message := errorCode(err)
		g.replyError(c, in.Type, code, message)
		metrics.WSEventsTotal.WithLabelValues(in.Type, code).Inc()
		if code == ErrCodeInternal {
			g.logger.Error("failed to handle event", "error", err, "type", in.Type, "connection_id", c.id)
		}
		return
	}
	metrics.WSEventsTotal.WithLabelValues(in.Type, "ok").Inc()
}

func (g *Gateway) decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errBadPayload("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errBadPayload("malformed payload")
	}
	if err := g.validate.Struct(v); err != nil {
		return errBadPayload(err.Error())
	}
	return nil
}

func (g *Gateway) handleJoin(c *Client, raw json.RawMessage) error {
	var p JoinPayload
	if err := g.decode(raw, &p); err != nil {
		return err
	}
	code := model.NormalizeCode(p.RoomID)

	if bound, user := c.identity(); bound != model.EmptyRoomCode && (bound != code || user.ID != p.User.ID) {
		g.leave(c)
	}

	// Subscribe first so the joiner sees its own user_joined.
	g.hub.Subscribe(code, c)
	if _, err := g.registry.AddParticipant(code, p.User.ID, p.User.Name, c.id); err != nil {
		g.hub.Unsubscribe(code, c)
		return err
	}
	c.bind(code, p.User)

	snapshot, err := g.registry.Snapshot(code)
	if err != nil {
		return err
	}
	g.hub.Send(c, Event{Type: EventSessionState, Payload: snapshot})
	return nil
}

func (g *Gateway) handleStartSession(c *Client, raw json.RawMessage) error {
	var p StartSessionPayload
	if err := g.decode(raw, &p); err != nil {
		return err
	}
	code, user, err := g.member(c, p.RoomID)
	if err != nil {
		return err
	}

	movies, err := g.registry.SetMovies(code, user.ID, p.Movies)
	if err != nil {
		return err
	}

	if g.sessions != nil {
		g.async("session_start", code, func(ctx context.Context) error {
			_, err := g.sessions.Start(ctx, code, user.ID, movies)
			return err
		})
	}
	return nil
}

func (g *Gateway) handleVote(c *Client, raw json.RawMessage) error {
	var p VoteMoviePayload
	if err := g.decode(raw, &p); err != nil {
		return err
	}
	code, user, err := g.member(c, p.RoomID)
	if err != nil {
		return err
	}
	if p.UserID != "" && p.UserID != user.ID {
		return fmt.Errorf("%w: cannot vote for another user", usecase_party.ErrForbidden)
	}

	result, err := g.registry.RecordVote(code, p.MovieID, user.ID, p.Vote)
	if err != nil {
		return err
	}

	g.hub.Send(c, Event{Type: EventVoteAck, Payload: VoteAck{
		MovieID: p.MovieID,
		Vote:    p.Vote,
		Matched: result.Matched,
	}})
	return nil
}

func (g *Gateway) handleMessage(c *Client, raw json.RawMessage) error {
	var p SendMessagePayload
	if err := g.decode(raw, &p); err != nil {
		return err
	}
	code, user, err := g.member(c, p.RoomID)
	if err != nil {
		return err
	}

	name := p.User.Name
	if name == "" {
		name = user.Name
	}
	g.hub.Broadcast(code, Event{Type: EventReceiveMessage, Payload: ChatMessage{
		Text:      p.Message,
		User:      ChatUser{ID: user.ID, Name: name},
		Timestamp: g.now().UnixMilli(),
	}})
	return nil
}

func (g *Gateway) handleRestart(c *Client, raw json.RawMessage) error {
	var p RestartSessionPayload
	if err := g.decode(raw, &p); err != nil {
		return err
	}
	code, user, err := g.member(c, p.RoomID)
	if err != nil {
		return err
	}
	return g.registry.RestartRound(code, user.ID)
}

// member returns the identity bound to c if it joined roomID. An unknown
// room is reported as not found before membership is checked.
func (g *Gateway) member(c *Client, roomID string) (model.RoomCode, model.User, error) {
	code := model.NormalizeCode(roomID)
	if !g.registry.Exists(code) {
		return "", model.User{}, errNoSession
	}
	bound, user := c.identity()
	if bound == model.EmptyRoomCode || bound != code {
		return "", model.User{}, errNotJoined
	}
	return code, user, nil
}

// Disconnect is called once the transport is gone. It is not an error for
// the user, so nothing is reported back.
func (g *Gateway) Disconnect(c *Client) {
	g.leave(c)
}

func (g *Gateway) leave(c *Client) {
	code, user := c.identity()
	if code == model.EmptyRoomCode {
		return
	}
	c.unbind()
	g.hub.Unsubscribe(code, c)

	if _, err := g.registry.RemoveParticipant(code, c.id); err != nil && !errors.Is(err, usecase_party.ErrResourceNotFound) {
		g.logger.Error("failed to remove participant", "error", err, "room", code, "user_id", user.ID)
	}
}

func (g *Gateway) replyError(c *Client, event, code, message string) {
	g.hub.Send(c, Event{Type: EventError, Payload: ErrorPayload{
		Event:   event,
		Code:    code,
		Message: message,
	}})
}

type durableJob struct {
	op   string
	code model.RoomCode
	fn   func(ctx context.Context) error

	// done marks a barrier queued by Wait.
	done chan struct{}
}

// async queues a best-effort durable write. Jobs run one at a time in
// submission order, so a session is started before it is completed.
// Failures are logged and never reach the live channel.
func (g *Gateway) async(op string, code model.RoomCode, fn func(ctx context.Context) error) {
	select {
	case g.jobs <- durableJob{op: op, code: code, fn: fn}:
	default:
		g.logger.Warn("durable write dropped, queue full", "op", op, "room", code)
	}
}

func (g *Gateway) runJobs() {
	for job := range g.jobs {
		if job.done != nil {
			close(job.done)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), g.syncTimeout)
		if err := job.fn(ctx); err != nil {
			g.logger.Warn("durable write failed", "op", job.op, "room", job.code, "error", err)
		}
		cancel()
	}
}

func (g *Gateway) ParticipantJoined(code model.RoomCode, _ model.Participant, roster []model.Participant) {
	g.hub.Broadcast(code, Event{Type: EventUserJoined, Payload: roster})
}

func (g *Gateway) ParticipantLeft(code model.RoomCode, _ model.Participant, roster []model.Participant) {
	g.hub.Broadcast(code, Event{Type: EventUserLeft, Payload: roster})
}

func (g *Gateway) RoundStarted(code model.RoomCode, movies []model.Movie) {
	g.hub.Broadcast(code, Event{Type: EventSessionStarted, Payload: movies})
}

func (g *Gateway) RoundRestarted(code model.RoomCode) {
	g.hub.Broadcast(code, Event{Type: EventSessionRestarted, Payload: map[string]string{"roomId": code}})
}

func (g *Gateway) MatchFound(code model.RoomCode, m model.Match) {
	g.hub.Broadcast(code, Event{Type: EventMatchFound, Payload: m.MovieID})

	if g.sessions != nil {
		g.async("session_complete", code, func(ctx context.Context) error {
			return g.sessions.Complete(ctx, code, m.MovieID)
		})
	}
	if g.archive != nil {
		g.async("match_archive", code, func(ctx context.Context) error {
			return g.archive.Archive(ctx, m)
		})
	}
}

type badPayloadError struct {
	message string
}

func (e badPayloadError) Error() string {
	return e.message
}

func errBadPayload(message string) error {
	return badPayloadError{message: message}
}

func errorCode(err error) (string, string) {
	var bad badPayloadError
	switch {
	case errors.As(err, &bad):
		return ErrCodeBadRequest, bad.message
	case errors.Is(err, usecase_party.ErrResourceNotFound):
		return ErrCodeNotFound, err.Error()
	case errors.Is(err, usecase_party.ErrConflict):
		return ErrCodeConflict, err.Error()
	case errors.Is(err, usecase_party.ErrForbidden):
		return ErrCodeForbidden, err.Error()
	case errors.Is(err, usecase_party.ErrInvalidRound):
		return ErrCodeBadRequest, err.Error()
	default:
		return ErrCodeInternal, "internal error"
	}
}
