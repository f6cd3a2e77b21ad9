package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bibliotech/consultation-api/internal/api"
	"github.com/bibliotech/consultation-api/internal/core/ports"
	"github.com/bibliotech/consultation-api/internal/infrastructure/config"
	mongoinfra "github.com/bibliotech/consultation-api/internal/infrastructure/db/mongo"
	redisinfra "github.com/bibliotech/consultation-api/internal/infrastructure/db/redis"
	"github.com/bibliotech/consultation-api/internal/infrastructure/email"
	"github.com/bibliotech/consultation-api/internal/infrastructure/queue"
	"github.com/bibliotech/consultation-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title           BiblioTech Consultation API
// @version         1.0
// @description     Appointment scheduling and notification engine for in-person book consultations.
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongoinfra.Connect(ctx, mongoinfra.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisinfra.Connect(ctx, redisinfra.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	if err := ensureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	// --- Outbound mail ---
	var mailer ports.Mailer
	if cfg.SMTP.Host != "" {
		mailer, err = email.NewSMTPMailer(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("smtp mailer setup failed")
		}
	} else {
		mailer = email.NewLogMailer(log)
	}

	mailQueue := queue.NewMailQueue(cfg.MailWorkers, mailer, log)
	mailQueue.Start(ctx)

	// --- HTTP server ---
	e := api.NewRouter(api.RouterDeps{
		DB:        db,
		Redis:     rdb,
		Mail:      mailQueue,
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("consultation api started")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

// ensureIndexes creates the collection indexes at startup, including the
// unique partial index that enforces one active appointment per (book, date).
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := mongoinfra.NewAppointmentRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := mongoinfra.NewNotificationRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	return mongoinfra.NewUserRepository(db).EnsureIndexes(ctx)
}
