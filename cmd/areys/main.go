package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/areys-travel/areys/internal/agencies"
	agencieshttp "github.com/areys-travel/areys/internal/agencies/http"
	"github.com/areys-travel/areys/internal/airlines"
	airlineshttp "github.com/areys-travel/areys/internal/airlines/http"
	"github.com/areys-travel/areys/internal/app"
	"github.com/areys-travel/areys/internal/audit"
	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/flights"
	flightshttp "github.com/areys-travel/areys/internal/flights/http"
	"github.com/areys-travel/areys/internal/manifest"
	"github.com/areys-travel/areys/internal/notify"
	"github.com/areys-travel/areys/internal/perms"
	permshttp "github.com/areys-travel/areys/internal/perms/http"
	"github.com/areys-travel/areys/internal/platform/db"
	"github.com/areys-travel/areys/internal/scope"
	"github.com/areys-travel/areys/internal/settings"
	settingshttp "github.com/areys-travel/areys/internal/settings/http"
	"github.com/areys-travel/areys/internal/shared"
	"github.com/areys-travel/areys/internal/store"
	storehttp "github.com/areys-travel/areys/internal/store/http"
	"github.com/areys-travel/areys/internal/users"
	usershttp "github.com/areys-travel/areys/internal/users/http"
)

// fanOutBroadcaster pushes role changes to every registered sink.
type fanOutBroadcaster []perms.Broadcaster

func (b fanOutBroadcaster) UpsertRoleDefinition(def perms.RoleDefinition) {
	for _, sink := range b {
		sink.UpsertRoleDefinition(def)
	}
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "areys_session", cfg.SessionSecret,
		cfg.SessionIdleTTL, cfg.SessionMaxTTL, cfg.IsProduction())

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	activity := audit.NewLogger(asynqClient, logger)
	recorder := audit.NewRecorder(pool)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)

	flightsRepo := flights.NewRepository(pool)
	airlinesRepo := airlines.NewRepository(pool)
	agenciesRepo := agencies.NewRepository(pool)
	settingsRepo := settings.NewRepository(pool)
	usersRepo := users.NewRepository(pool)
	permsRepo := perms.NewRepository(pool)

	roleDefs, err := permsRepo.List(ctx)
	if err != nil {
		logger.Warn("load role catalog", slog.Any("error", err))
	}
	authorizer := perms.NewAuthorizer(roleDefs)

	resolver := scope.NewResolver(authRepo)
	loader := store.NewLoader(flightsRepo, airlinesRepo, agenciesRepo, settingsRepo, usersRepo, permsRepo, logger)
	listener := notify.NewListener(redisClient, logger)
	stores := store.NewManager(loader, resolver, listener, logger)
	defer stores.Close()

	publisher := notify.NewPublisher(redisClient, logger)

	flightsService := flights.NewService(flightsRepo, activity, publisher, logger)
	airlinesService := airlines.NewService(airlinesRepo, activity, publisher, logger)
	agenciesService := agencies.NewService(agenciesRepo, activity, publisher, logger)
	settingsService := settings.NewService(settingsRepo, activity, publisher, logger)
	usersService := users.NewService(usersRepo, activity, publisher, logger)
	permsService := perms.NewService(permsRepo, fanOutBroadcaster{stores, authorizer}, activity, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		AuthService:    authService,
		StoreReleaser:  stores,

		AuthHandler:     auth.NewHandler(logger, authService, sessionManager, authorizer, stores),
		StoreHandler:    storehttp.NewHandler(logger, stores, recorder),
		FlightsHandler:  flightshttp.NewHandler(logger, flightsService, stores),
		AirlinesHandler: airlineshttp.NewHandler(logger, airlinesService, stores),
		AgenciesHandler: agencieshttp.NewHandler(logger, agenciesService, stores),
		SettingsHandler: settingshttp.NewHandler(logger, settingsService, stores),
		UsersHandler:    usershttp.NewHandler(logger, usersService, stores),
		RolesHandler:    permshttp.NewHandler(logger, permsService, resolver),
		ManifestHandler: manifest.NewHandler(logger, stores),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
