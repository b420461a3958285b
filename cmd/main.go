package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/echo-quest/user-service/internal/adapter"
	"github.com/echo-quest/user-service/internal/config"
	"github.com/echo-quest/user-service/internal/hasher"
	"github.com/echo-quest/user-service/internal/mailer"
	"github.com/echo-quest/user-service/internal/repository"
	"github.com/echo-quest/user-service/internal/usecase"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration. A missing MONGO_URI is fatal here.
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to MongoDB. The client is shared across requests; the driver
	// pools and re-establishes connections while the process is healthy.
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	cancelConnect()
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	err = mongoClient.Ping(pingCtx, readpref.Primary())
	cancelPing()
	if err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	logger.Info("MongoDB connection established successfully")
	db := mongoClient.Database(cfg.MongoDatabase)

	userRepo := repository.NewUserRepository(db, logger)

	var mailSender mailer.Mailer
	switch cfg.MailerDriver {
	case "smtp":
		mailSender = mailer.NewSMTPMailerService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom, cfg.EmailFromName, logger)
	default:
		mailSender = mailer.NewMailerSendService(cfg.MailerSendAPIKey, cfg.EmailFrom, cfg.EmailFromName, logger)
	}

	authUsecase := usecase.NewAuthUsecase(userRepo, mailSender, hasher.NewBcryptHasher(), logger)
	authHandler := adapter.NewAuthHandler(authUsecase, func(ctx context.Context) error {
		return mongoClient.Ping(ctx, readpref.Primary())
	}, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: adapter.NewRouter(authHandler, logger),
	}

	go func() {
		logger.Info("Starting User Service", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// Teardown on process shutdown signals.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down User Service")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Error("Failed to disconnect MongoDB", zap.Error(err))
	}
}
