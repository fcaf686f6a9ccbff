package infra_postgres_match

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/humanbelnik/watchparty/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MatchInfraUnitSuite struct {
	suite.Suite
}

type resources struct {
	db     *sqlx.DB
	mock   sqlmock.Sqlmock
	driver *Driver
	ctx    context.Context
}

func initResources(t provider.T) *resources {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	driver := New(sqlxDB)

	return &resources{
		db:     sqlxDB,
		mock:   mock,
		driver: driver,
		ctx:    context.Background(),
	}
}

type MatchBuilder struct {
	m model.Match
}

func NewMatchBuilder() *MatchBuilder {
	return &MatchBuilder{
		m: model.Match{
			RoomCode:     "ABC123",
			MovieID:      42,
			Title:        "Test Movie",
			PosterPath:   "/poster.jpg",
			Participants: 3,
			MatchedAt:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func (b *MatchBuilder) WithMovieID(id model.MovieID) *MatchBuilder {
	b.m.MovieID = id
	return b
}

func (b *MatchBuilder) Build() model.Match {
	return b.m
}

func (suite *MatchInfraUnitSuite) TestEnsureSchema(t provider.T) {
	t.Parallel()
	r := initResources(t)

	r.mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS party_matches")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, r.driver.EnsureSchema(r.ctx))
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (suite *MatchInfraUnitSuite) TestSave(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		setupMocks  func(r *resources, m model.Match)
		expectError bool
	}{
		{
			name: "Should insert match",
			setupMocks: func(r *resources, m model.Match) {
				r.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO party_matches")).
					WithArgs(sqlmock.AnyArg(), m.RoomCode, m.MovieID, m.Title, m.PosterPath, m.Participants, m.MatchedAt).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "Should return database error",
			setupMocks: func(r *resources, m model.Match) {
				r.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO party_matches")).
					WillReturnError(errors.New("connection reset"))
			},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			m := NewMatchBuilder().Build()
			tc.setupMocks(r, m)

			err := r.driver.Save(r.ctx, m)

			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, r.mock.ExpectationsWereMet())
		})
	}
}

func (suite *MatchInfraUnitSuite) TestListByRoom(t provider.T) {
	t.Parallel()
	r := initResources(t)

	first := NewMatchBuilder().Build()
	second := NewMatchBuilder().WithMovieID(7).Build()

	rows := sqlmock.NewRows([]string{"id", "room_code", "movie_id", "title", "poster_path", "participants", "matched_at"}).
		AddRow("8f14e45f-ceea-467a-a866-051f0bd4e1a3", first.RoomCode, first.MovieID, first.Title, first.PosterPath, first.Participants, first.MatchedAt).
		AddRow("1679091c-5a88-4faf-afb5-e6087eb1b2dc", second.RoomCode, second.MovieID, second.Title, second.PosterPath, second.Participants, second.MatchedAt)

	r.mock.ExpectQuery(regexp.QuoteMeta("FROM party_matches")).
		WithArgs("ABC123").
		WillReturnRows(rows)

	matches, err := r.driver.ListByRoom(r.ctx, "ABC123")

	assert.NoError(t, err)
	assert.Equal(t, []model.Match{first, second}, matches)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (suite *MatchInfraUnitSuite) TestListByRoomError(t provider.T) {
	t.Parallel()
	r := initResources(t)

	r.mock.ExpectQuery(regexp.QuoteMeta("FROM party_matches")).
		WithArgs("ABC123").
		WillReturnError(errors.New("connection reset"))

	matches, err := r.driver.ListByRoom(r.ctx, "ABC123")

	assert.Error(t, err)
	assert.Nil(t, matches)
}

func TestMatchInfraUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(MatchInfraUnitSuite))
}
