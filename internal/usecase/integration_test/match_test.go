package integrationtest

import (
	"context"
	"testing"
	"time"

	infra_pg_init "github.com/humanbelnik/watchparty/internal/infra/postgres/init"
	infra_postgres_match "github.com/humanbelnik/watchparty/internal/infra/postgres/match"
	"github.com/humanbelnik/watchparty/internal/model"
	usecase_match "github.com/humanbelnik/watchparty/internal/usecase/match"
	"github.com/jmoiron/sqlx"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type UsecaseMatchIntegrationSuite struct {
	suite.Suite
	db *sqlx.DB
	uc *usecase_match.Usecase
}

func (s *UsecaseMatchIntegrationSuite) BeforeAll(t provider.T) {

	s.db = infra_pg_init.MustEstablishConn(getConfig().Postgres)
	repo := infra_postgres_match.New(s.db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	s.uc = usecase_match.New(repo)
}

func (s *UsecaseMatchIntegrationSuite) AfterAll(t provider.T) {
	if s.db != nil {
		_, _ = s.db.Exec(`DELETE FROM party_matches WHERE room_code = 'ITEST1'`)
		s.db.Close()
	}
}

func (s *UsecaseMatchIntegrationSuite) TestIntegrationArchive(t provider.T) {
	ctx := context.Background()
	matchedAt := time.Now().UTC().Truncate(time.Millisecond)

	m := model.Match{
		RoomCode:     "ITEST1",
		MovieID:      550,
		Title:        "Fight Club",
		Participants: 3,
		MatchedAt:    matchedAt,
	}
	require.NoError(t, s.uc.Archive(ctx, m))
	// Replays are absorbed by the unique key.
	require.NoError(t, s.uc.Archive(ctx, m))

	history, err := s.uc.History(ctx, "itest1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.MovieID(550), history[0].MovieID)
	assert.True(t, matchedAt.Equal(history[0].MatchedAt))
}

func TestMatchIntegrationSuite(t *testing.T) {
	requireEnv(t)
	suite.RunSuite(t, new(UsecaseMatchIntegrationSuite))
}
