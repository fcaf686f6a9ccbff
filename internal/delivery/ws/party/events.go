package ws_party

import (
	"github.com/goccy/go-json"
	"github.com/humanbelnik/watchparty/internal/model"
)

// Inbound events.
const (
	EventJoin           = "join"
	EventStartSession   = "startSession"
	EventVoteMovie      = "voteMovie"
	EventSendMessage    = "sendMessage"
	EventRestartSession = "restartSession"
	EventPing           = "ping"
)

// Outbound events.
const (
	EventUserJoined       = "user_joined"
	EventUserLeft         = "user_left"
	EventSessionStarted   = "session_started"
	EventSessionRestarted = "session_restarted"
	EventSessionState     = "session_state"
	EventMatchFound       = "match_found"
	EventReceiveMessage   = "receive_message"
	EventVoteAck          = "vote_ack"
	EventPong             = "pong"
	EventError            = "error"
)

// Error codes carried by EventError.
const (
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeForbidden   = "forbidden"
	ErrCodeBadRequest  = "bad_request"
	ErrCodeRateLimited = "rate_limited"
	ErrCodeInternal    = "internal"
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type inboundEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinPayload struct {
	RoomID string     `json:"roomId" validate:"required,max=16"`
	User   model.User `json:"user" validate:"required"`
}

type StartSessionPayload struct {
	RoomID string        `json:"roomId" validate:"required,max=16"`
	Movies []model.Movie `json:"movies" validate:"required,min=1,max=200,dive"`
}

type VoteMoviePayload struct {
	RoomID  string        `json:"roomId" validate:"required,max=16"`
	MovieID model.MovieID `json:"movieId" validate:"required"`
	UserID  string        `json:"userId"`
	Vote    model.Vote    `json:"vote" validate:"required,oneof=like dislike"`
}

type ChatUser struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type SendMessagePayload struct {
	RoomID  string   `json:"roomId" validate:"required,max=16"`
	Message string   `json:"message" validate:"required,max=1000"`
	User    ChatUser `json:"user"`
}

type RestartSessionPayload struct {
	RoomID string `json:"roomId" validate:"required,max=16"`
}

type ChatMessage struct {
	Text      string   `json:"text"`
	User      ChatUser `json:"user"`
	Timestamp int64    `json:"timestamp"`
}

type VoteAck struct {
	MovieID model.MovieID `json:"movieId"`
	Vote    model.Vote    `json:"vote"`
	Matched bool          `json:"matched"`
}

type ErrorPayload struct {
	Event   string `json:"event,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
