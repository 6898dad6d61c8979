package app

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	libredis "vehicleparking/backend/libs/redis"
	appconfig "vehicleparking/backend/services/parking-service/internal/config"
	"vehicleparking/backend/services/parking-service/internal/db"
	"vehicleparking/backend/services/parking-service/internal/feed"
	"vehicleparking/backend/services/parking-service/internal/http"
	"vehicleparking/backend/services/parking-service/internal/http/handlers"
	"vehicleparking/backend/services/parking-service/internal/http/middleware"
	"vehicleparking/backend/services/parking-service/internal/password"
	redisstore "vehicleparking/backend/services/parking-service/internal/redis"
	"vehicleparking/backend/services/parking-service/internal/repository"
	"vehicleparking/backend/services/parking-service/internal/service"
)

// App wires dependencies for the parking service.
type App struct {
	server *httpserver.Server
	hub    *feed.Hub
	db     *sql.DB
	redis  *goredis.Client
	logger *zap.Logger
}

// New builds application graph: connects storage, migrates the schema, seeds the
// admin account and assembles the HTTP surface.
func New(ctx context.Context, cfg *appconfig.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.Migrate(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	redisClient, err := libredis.NewRedisClient(ctx, cfg.RedisOptions())
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	a := &App{db: sqlDB, redis: redisClient, logger: logger}

	accountRepo := repository.NewAccountRepository(sqlDB)
	lotRepo := repository.NewLotRepository(sqlDB)
	reservationRepo := repository.NewReservationRepository(sqlDB)
	sessionStore := redisstore.NewStore(redisClient, cfg.SessionTTL())

	hub := feed.NewHub(logger)
	accountSvc := service.NewAccountService(accountRepo, password.NewBcryptHasher(0), logger)
	lotSvc := service.NewLotService(lotRepo, hub, logger)
	reservationSvc := service.NewReservationService(reservationRepo, lotRepo, hub, service.SystemClock, logger)
	tokenSvc := service.NewTokenService(cfg.Session.Secret, cfg.SessionTTL())
	sessionSvc := service.NewSessionService(accountSvc, sessionStore, tokenSvc, logger)

	if cfg.SeedAdmin() {
		created, err := accountSvc.EnsureAdmin(ctx, cfg.Admin.FullName, cfg.Admin.Username, cfg.Admin.Password)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seed admin: %w", err)
		}
		if created {
			logger.Info("admin account created", zap.String("username", cfg.Admin.Username))
		}
	} else {
		logger.Warn("admin password not configured, skipping admin seeding")
	}

	feedServer := feed.NewServer(hub, lotSvc.Snapshot, cfg.Feed.WriteTimeout, cfg.Feed.PingInterval, logger)
	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandlers:  handlers.NewAuthHandlers(accountSvc, sessionSvc, cfg.HTTP.SecureCookie, logger),
		AdminHandlers: handlers.NewAdminHandlers(lotSvc, logger),
		UserHandlers:  handlers.NewUserHandlers(reservationSvc, logger),
		FeedHandler:   feedServer.HandleWS,
		HealthHandler: handlers.NewHealthHandler(),
	}, middleware.AuthMiddleware(sessionSvc, logger))

	a.hub = hub
	a.server = httpserver.NewServer(
		cfg.HTTPAddress(),
		router,
		logger,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
	)
	return a, nil
}

// Run serves HTTP traffic and the availability feed until ctx is cancelled or
// either of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.hub.Run(ctx)
	})
	g.Go(func() error {
		return a.server.Run(ctx)
	})
	return g.Wait()
}

// Close releases acquired resources.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
