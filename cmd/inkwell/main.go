package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/inkwell-blog/inkwell/internal/app"
	"github.com/inkwell-blog/inkwell/internal/auth"
	"github.com/inkwell-blog/inkwell/internal/authz"
	"github.com/inkwell-blog/inkwell/internal/blogs"
	"github.com/inkwell-blog/inkwell/internal/media"
	"github.com/inkwell-blog/inkwell/internal/observability"
	"github.com/inkwell-blog/inkwell/internal/platform/cache"
	"github.com/inkwell-blog/inkwell/internal/platform/db"
	"github.com/inkwell-blog/inkwell/internal/posts"
	"github.com/inkwell-blog/inkwell/internal/roles"
	"github.com/inkwell-blog/inkwell/internal/shared"
	"github.com/inkwell-blog/inkwell/internal/themes"
	"github.com/inkwell-blog/inkwell/internal/users"
	"github.com/inkwell-blog/inkwell/jobs"
)

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

	pool, err := db.New(ctx, cfg.PGDSN, 10)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "inkwell_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	usersRepo := users.NewRepository(pool)
	blogsRepo := blogs.NewRepository(pool)
	themesRepo := themes.NewRepository(pool)
	rolesRepo := roles.NewRepository(pool)
	postsRepo := posts.NewRepository(pool)
	mediaRepo := media.NewRepository(pool)
	sessionRepo := auth.NewRepository(pool)

	engine := authz.NewEngine(blogsRepo, rolesRepo, logger).WithDenialRecorder(metrics)
	authzMiddleware := authz.Middleware{Engine: engine, Logger: logger}

	authService := auth.NewService(usersRepo, sessionRepo, logger)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	usersService := users.NewService(usersRepo, blogsRepo)
	usersHandler := users.NewHandler(logger, usersService)

	themesService := themes.NewService(themesRepo)
	themesHandler := themes.NewHandler(logger, themesService)

	blogsService := blogs.NewService(blogsRepo, engine, themesService, logger)
	blogsHandler := blogs.NewHandler(logger, blogsService)

	rolesService := roles.NewService(rolesRepo, auditLogger, logger).WithDenialRecorder(metrics)
	rolesHandler := roles.NewHandler(logger, rolesService)

	postsService := posts.NewService(postsRepo, blogsRepo, mediaRepo)
	postsHandler := posts.NewHandler(logger, postsService, authzMiddleware)

	storage, err := media.NewLocalStorage(cfg.MediaDir)
	if err != nil {
		logger.Error("init media storage", slog.Any("error", err))
		os.Exit(1)
	}
	mediaService := media.NewService(mediaRepo, storage, logger)
	mediaHandler := media.NewHandler(logger, mediaService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		AuthHandler:    authHandler,
		UsersHandler:   usersHandler,
		BlogsHandler:   blogsHandler,
		RolesHandler:   rolesHandler,
		PostsHandler:   postsHandler,
		MediaHandler:   mediaHandler,
		ThemesHandler:  themesHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
