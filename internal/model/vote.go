package model

import "time"

type Vote string

const (
	LikeVote    Vote = "like"
	DislikeVote Vote = "dislike"
)

func (v Vote) Valid() bool {
	return v == LikeVote || v == DislikeVote
}

type MatchResult struct {
	MovieID MovieID
	Matched bool
}

// Match is an archived unanimous match.
type Match struct {
	RoomCode     RoomCode  `json:"room_code"`
	MovieID      MovieID   `json:"movie_id"`
	Title        string    `json:"title"`
	PosterPath   string    `json:"poster_path"`
	Participants int       `json:"participants"`
	MatchedAt    time.Time `json:"matched_at"`
}
