package model

import (
	"strings"
	"time"
)

type RoomCode = string

const EmptyRoomCode RoomCode = ""

// NormalizeCode makes user-typed codes comparable with generated ones.
func NormalizeCode(code string) RoomCode {
	return strings.ToUpper(strings.TrimSpace(code))
}

type Participant struct {
	UserID       string `json:"id"`
	DisplayName  string `json:"name"`
	ConnectionID string `json:"-"`
	Active       bool   `json:"active"`
}

// RoomSnapshot is a read-only copy of live room state.
type RoomSnapshot struct {
	Code         RoomCode             `json:"code"`
	HostID       string               `json:"host_id"`
	Participants []Participant        `json:"participants"`
	Movies       []Movie              `json:"movies"`
	Likes        map[MovieID][]string `json:"likes"`
	Matches      []MovieID            `json:"matches"`
	EmptySince   *time.Time           `json:"empty_since,omitempty"`
}
