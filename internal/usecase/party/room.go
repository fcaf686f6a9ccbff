package usecase_party

import (
	"slices"
	"sync"
	"time"

	"github.com/humanbelnik/watchparty/internal/model"
)

// Room is the live state of one watch party. Every method expects mu to be
// held by the caller; only Registry takes it.
type Room struct {
	mu sync.Mutex

	code         model.RoomCode
	hostID       string
	participants []*model.Participant
	movies       []model.Movie
	// movieID -> userID -> vote
	votes   map[model.MovieID]map[string]model.Vote
	matches []model.MovieID

	emptySince time.Time
	evicted    bool
}

func newRoom(code model.RoomCode, now time.Time) *Room {
	return &Room{
		code:       code,
		votes:      make(map[model.MovieID]map[string]model.Vote),
		emptySince: now,
	}
}

func (r *Room) participant(userID string) *model.Participant {
	for _, p := range r.participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (r *Room) addParticipant(userID, displayName, connectionID string) {
	if p := r.participant(userID); p != nil {
		p.ConnectionID = connectionID
		p.Active = true
		if displayName != "" {
			p.DisplayName = displayName
		}
	} else {
		r.participants = append(r.participants, &model.Participant{
			UserID:       userID,
			DisplayName:  displayName,
			ConnectionID: connectionID,
			Active:       true,
		})
	}

	// A room whose host is gone is claimed by the next user to join.
	if r.hostID == "" || !r.isActive(r.hostID) {
		r.hostID = userID
	}
	r.emptySince = time.Time{}
}

// deactivate returns false when connectionID is not the participant's
// current connection.
func (r *Room) deactivate(connectionID string, now time.Time) (*model.Participant, bool) {
	for _, p := range r.participants {
		if p.ConnectionID != connectionID || !p.Active {
			continue
		}
		p.Active = false
		if p.UserID == r.hostID {
			r.handOverHost()
		}
		if r.activeCount() == 0 {
			r.emptySince = now
		}
		return p, true
	}
	return nil, false
}

// handOverHost passes the host role to the earliest active participant.
// With nobody left the departed host keeps it until someone joins.
func (r *Room) handOverHost() {
	for _, p := range r.participants {
		if p.Active {
			r.hostID = p.UserID
			return
		}
	}
}

func (r *Room) activeCount() int {
	n := 0
	for _, p := range r.participants {
		if p.Active {
			n++
		}
	}
	return n
}

func (r *Room) isActive(userID string) bool {
	p := r.participant(userID)
	return p != nil && p.Active
}

// roster returns the active participants in join order.
func (r *Room) roster() []model.Participant {
	out := make([]model.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out
}

func (r *Room) roundActive() bool {
	return len(r.movies) > 0
}

func (r *Room) movie(movieID model.MovieID) (model.Movie, bool) {
	for _, m := range r.movies {
		if m.ID == movieID {
			return m, true
		}
	}
	return model.Movie{}, false
}

func (r *Room) setVote(movieID model.MovieID, userID string, vote model.Vote) {
	ballot, ok := r.votes[movieID]
	if !ok {
		ballot = make(map[string]model.Vote)
		r.votes[movieID] = ballot
	}
	ballot[userID] = vote
}

func (r *Room) matched(movieID model.MovieID) bool {
	return slices.Contains(r.matches, movieID)
}

// unanimous reports whether every active participant liked movieID.
// A room without active participants never matches.
func (r *Room) unanimous(movieID model.MovieID) bool {
	ballot := r.votes[movieID]
	active := 0
	for _, p := range r.participants {
		if !p.Active {
			continue
		}
		active++
		if ballot[p.UserID] != model.LikeVote {
			return false
		}
	}
	return active > 0
}

// evaluate records movieID as a match the first time it becomes unanimous.
func (r *Room) evaluate(movieID model.MovieID) bool {
	if r.matched(movieID) || !r.unanimous(movieID) {
		return false
	}
	r.matches = append(r.matches, movieID)
	return true
}

// evaluatePending re-checks every not yet matched movie of the round in list
// order.
func (r *Room) evaluatePending() []model.Movie {
	var out []model.Movie
	for _, m := range r.movies {
		if r.evaluate(m.ID) {
			out = append(out, m)
		}
	}
	return out
}

func (r *Room) resetRound() {
	r.movies = nil
	r.votes = make(map[model.MovieID]map[string]model.Vote)
	r.matches = nil
}

func (r *Room) snapshot() model.RoomSnapshot {
	s := model.RoomSnapshot{
		Code:         r.code,
		HostID:       r.hostID,
		Participants: make([]model.Participant, 0, len(r.participants)),
		Movies:       slices.Clone(r.movies),
		Likes:        make(map[model.MovieID][]string, len(r.votes)),
		Matches:      slices.Clone(r.matches),
	}
	for _, p := range r.participants {
		s.Participants = append(s.Participants, *p)
	}
	for movieID, ballot := range r.votes {
		for _, p := range r.participants {
			if ballot[p.UserID] == model.LikeVote {
				s.Likes[movieID] = append(s.Likes[movieID], p.UserID)
			}
		}
	}
	if !r.emptySince.IsZero() {
		t := r.emptySince
		s.EmptySince = &t
	}
	return s
}
