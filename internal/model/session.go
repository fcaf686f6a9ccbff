package model

import (
	"slices"
	"time"
)

type SessionStatus = string

const (
	StatusWaiting   SessionStatus = "waiting"
	StatusVoting    SessionStatus = "voting"
	StatusCompleted SessionStatus = "completed"
)

// Session is the durable, TTL-bound view of a watch party used for
// reconnect recovery.
type Session struct {
	Code      RoomCode             `json:"code"`
	HostID    string               `json:"host_id"`
	Users     []User               `json:"users"`
	Movies    []Movie              `json:"movies"`
	Votes     map[MovieID][]string `json:"votes"`
	Matches   []MovieID            `json:"matches"`
	Status    SessionStatus        `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

func (s *Session) HasUser(userID string) bool {
	return slices.ContainsFunc(s.Users, func(u User) bool { return u.ID == userID })
}

func (s *Session) HasMovie(movieID MovieID) bool {
	return slices.ContainsFunc(s.Movies, func(m Movie) bool { return m.ID == movieID })
}
