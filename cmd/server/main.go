package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pinkknives/skolapp-realtime/internal/cache"
	"github.com/pinkknives/skolapp-realtime/internal/config"
	"github.com/pinkknives/skolapp-realtime/internal/logging"
	"github.com/pinkknives/skolapp-realtime/internal/repository"
	"github.com/pinkknives/skolapp-realtime/internal/service"
	"github.com/pinkknives/skolapp-realtime/internal/transport/rest"
	"github.com/pinkknives/skolapp-realtime/internal/transport/ws"
)

func main() {
	// .env is optional; real deployments configure the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Init(cfg.LogLevel)
	log := logging.Logger

	ctx := context.Background()

	if cfg.APIKey == "" {
		log.Warn("API_KEY not set: capability token issuance will fail until it is configured")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.WithError(err).Fatal("failed to ping MongoDB")
	}
	log.Info("connected to MongoDB")

	db := mongoClient.Database("skolapp")

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.WithError(err).Fatal("failed to ping Redis")
	}
	log.Info("connected to Redis")

	// Initialize hub
	wsHub := ws.NewHub()

	// Initialize repositories
	quizRepo := repository.NewQuizRepo(db)
	sessionRepo := repository.NewSessionRepo(db)

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(cfg)
	tokenSvc := service.NewTokenService(cfg)
	quizSvc := service.NewQuizService(quizRepo)
	answerSvc := service.NewAnswerService(sessionCache)
	sessionSvc := service.NewSessionService(quizRepo, sessionRepo, sessionCache, answerSvc)

	// Create router with container
	container := &rest.Container{
		AuthService:    authSvc,
		TokenService:   tokenSvc,
		QuizService:    quizSvc,
		SessionService: sessionSvc,
		AnswerService:  answerSvc,
		WSHub:          wsHub,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen and serve")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}
