package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/learnhub/learnhub-api/internal/audit"
	"github.com/learnhub/learnhub-api/internal/auth"
	"github.com/learnhub/learnhub-api/internal/config"
	"github.com/learnhub/learnhub-api/internal/handler"
	"github.com/learnhub/learnhub-api/internal/middleware"
	"github.com/learnhub/learnhub-api/internal/repository"
	"github.com/learnhub/learnhub-api/internal/usecase"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mongodb")
	}

	db := client.Database(cfg.Mongo.Database)

	userRepo := repository.NewUserMongoRepository(ctx, &logger, db)
	profileRepo := repository.NewProfileMongoRepository(ctx, &logger, db)
	roleRepo := repository.NewRoleMongoRepository(ctx, &logger, db)
	assignmentRepo := repository.NewRoleAssignmentMongoRepository(ctx, &logger, db)
	transactor := repository.NewMongoTransactor(client)

	if err := roleRepo.EnsureDefaultRoles(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed default roles")
	}

	var auditSink audit.Sink = audit.NewLogSink(&logger)
	if cfg.Audit.Persist {
		auditSink = audit.Fanout(auditSink, audit.NewMongoSink(db))
	}

	roleUsecase := usecase.NewRoleUsecase(roleRepo, assignmentRepo, userRepo, transactor, auditSink)
	syncUsecase := usecase.NewSyncUsecase(userRepo, profileRepo, assignmentRepo, roleUsecase, transactor)
	userUsecase := usecase.NewUserUsecase(userRepo, profileRepo, transactor, auditSink)

	codec := auth.NewTokenCodec(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.Audience)
	authenticator := middleware.NewAuthenticator(codec, syncUsecase, userRepo, &logger)

	userHandler, err := handler.NewUserHTTPHandler(userRepo, profileRepo, userUsecase, roleUsecase, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build user handler")
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(authenticator.Authenticate)
	router.Route("/api/v1", userHandler.Routes)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped cleanly")
}
