package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("boom")))
}

func TestVotesTotalByLabel(t *testing.T) {
	before := testutil.ToFloat64(VotesTotal.WithLabelValues("like"))
	VotesTotal.WithLabelValues("like").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(VotesTotal.WithLabelValues("like")))
}

func TestMetricsLint(t *testing.T) {
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer,
		"watchparty_rooms_active", "watchparty_votes_total", "watchparty_matches_total")
	require.NoError(t, err)
	assert.Empty(t, problems)
}
