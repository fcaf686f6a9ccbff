package app

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/humanbelnik/watchparty/internal/config"
	http_init "github.com/humanbelnik/watchparty/internal/delivery/http/init"
	http_access_middleware "github.com/humanbelnik/watchparty/internal/delivery/http/middleware/access"
	http_auth_middleware "github.com/humanbelnik/watchparty/internal/delivery/http/middleware/auth"
	http_room "github.com/humanbelnik/watchparty/internal/delivery/http/room"
	http_session "github.com/humanbelnik/watchparty/internal/delivery/http/session"
	ws_party "github.com/humanbelnik/watchparty/internal/delivery/ws/party"
	infra_memory_session "github.com/humanbelnik/watchparty/internal/infra/memory/session"
	infra_pg_init "github.com/humanbelnik/watchparty/internal/infra/postgres/init"
	infra_postgres_match "github.com/humanbelnik/watchparty/internal/infra/postgres/match"
	infra_redis_init "github.com/humanbelnik/watchparty/internal/infra/redis/init"
	infra_redis_session "github.com/humanbelnik/watchparty/internal/infra/redis/session"
	usecase_match "github.com/humanbelnik/watchparty/internal/usecase/match"
	usecase_party "github.com/humanbelnik/watchparty/internal/usecase/party"
	usecase_session "github.com/humanbelnik/watchparty/internal/usecase/session"
)

func Go(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	var sessionRepository usecase_session.SessionRepository
	switch cfg.Session.Store {
	case "memory":
		sessionRepository = infra_memory_session.New(nil)
	default:
		redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
		sessionRepository = infra_redis_session.New(redisConn, "watchparty_session")
	}

	registry := usecase_party.NewRegistry(
		usecase_party.WithGracePeriod(cfg.Party.GracePeriod),
		usecase_party.WithLogger(logger),
	)
	go registry.RunJanitor(ctx, cfg.Party.JanitorInterval)

	sessionUC := usecase_session.New(sessionRepository, cfg.Session.TTL,
		usecase_session.WithLiveRooms(registry),
	)

	gatewayOpts := []ws_party.GatewayOption{
		ws_party.WithSessionSyncer(sessionUC),
		ws_party.WithSyncTimeout(cfg.Session.SyncTimeout),
		ws_party.WithRateLimit(cfg.Gateway.EventsPerSecond, cfg.Gateway.EventBurst),
		ws_party.WithSendBuffer(cfg.Gateway.SendBuffer),
		ws_party.WithMaxMessageSize(cfg.Gateway.MaxMessageSize),
		ws_party.WithLogger(logger),
	}

	var matchUC *usecase_match.Usecase
	if cfg.Archive.Enabled {
		pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)
		matchRepository := infra_postgres_match.New(pgConn)
		if err := matchRepository.EnsureSchema(ctx); err != nil {
			log.Fatalf("failed to prepare match archive: %v", err)
		}
		matchUC = usecase_match.New(matchRepository)
		gatewayOpts = append(gatewayOpts, ws_party.WithMatchArchiver(matchUC))
	}

	hub := ws_party.NewHub(logger)
	gateway := ws_party.NewGateway(registry, hub, gatewayOpts...)

	var history http_room.MatchHistory
	if matchUC != nil {
		history = matchUC
	}

	authMiddleware := http_auth_middleware.New(sessionUC)

	controllerPool := http_init.NewControllerPool(cfg.HTTP.Mode)
	controllerPool.Add(http_session.New(sessionUC, authMiddleware))
	controllerPool.Add(http_room.New(registry, history))
	if cfg.HTTP.Mode != http_access_middleware.ReadOnlyMode {
		controllerPool.Add(ws_party.NewController(gateway))
	}

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}
