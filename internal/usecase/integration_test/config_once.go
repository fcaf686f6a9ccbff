package integrationtest

import (
	"os"
	"sync"

	"testing"

	"github.com/humanbelnik/watchparty/internal/config"
)

var (
	cfg     *config.Config
	cfgOnce sync.Once
)

func getConfig() *config.Config {
	cfgOnce.Do(func() {
		cfg = config.FromEnv()
	})
	return cfg
}

// requireEnv skips suites that need live Redis and Postgres.
func requireEnv(t *testing.T) {
	if os.Getenv("INTEGRATION") == "" {
		t.Skip("INTEGRATION is not set")
	}
}
