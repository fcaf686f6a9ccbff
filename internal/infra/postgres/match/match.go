package infra_postgres_match

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/humanbelnik/watchparty/internal/model"
	"github.com/jmoiron/sqlx"
)

type Driver struct {
	db *sqlx.DB
}

func New(
	db *sqlx.DB,
) *Driver {
	return &Driver{db: db}
}

const schema = `
	CREATE TABLE IF NOT EXISTS party_matches (
		id           UUID PRIMARY KEY,
		room_code    TEXT NOT NULL,
		movie_id     BIGINT NOT NULL,
		title        TEXT NOT NULL,
		poster_path  TEXT NOT NULL DEFAULT '',
		participants INT NOT NULL,
		matched_at   TIMESTAMPTZ NOT NULL,
		UNIQUE (room_code, movie_id, matched_at)
	)
`

func (d *Driver) EnsureSchema(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

type matchDTO struct {
	ID           uuid.UUID `db:"id"`
	RoomCode     string    `db:"room_code"`
	MovieID      int64     `db:"movie_id"`
	Title        string    `db:"title"`
	PosterPath   string    `db:"poster_path"`
	Participants int       `db:"participants"`
	MatchedAt    time.Time `db:"matched_at"`
}

func (d *Driver) Save(ctx context.Context, m model.Match) error {
	dto := matchDTO{
		ID:           uuid.New(),
		RoomCode:     m.RoomCode,
		MovieID:      m.MovieID,
		Title:        m.Title,
		PosterPath:   m.PosterPath,
		Participants: m.Participants,
		MatchedAt:    m.MatchedAt,
	}

	query := `
		INSERT INTO party_matches (id, room_code, movie_id, title, poster_path, participants, matched_at)
		VALUES (:id, :room_code, :movie_id, :title, :poster_path, :participants, :matched_at)
		ON CONFLICT DO NOTHING
	`

	_, err := d.db.NamedExecContext(ctx, query, dto)
	return err
}

func (d *Driver) ListByRoom(ctx context.Context, code model.RoomCode) ([]model.Match, error) {
	var dtos []matchDTO

	query := `
		SELECT id, room_code, movie_id, title, poster_path, participants, matched_at
		FROM party_matches
		WHERE room_code = $1
		ORDER BY matched_at ASC
	`

	if err := d.db.SelectContext(ctx, &dtos, query, code); err != nil {
		return nil, err
	}

	matches := make([]model.Match, 0, len(dtos))
	for _, dto := range dtos {
		matches = append(matches, model.Match{
			RoomCode:     dto.RoomCode,
			MovieID:      dto.MovieID,
			Title:        dto.Title,
			PosterPath:   dto.PosterPath,
			Participants: dto.Participants,
			MatchedAt:    dto.MatchedAt,
		})
	}
	return matches, nil
}
