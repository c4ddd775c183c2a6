package main

import (
	"context"   // Context for Redis operations and shutdown
	"errors"    // Error matching
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal notifications
	"syscall"   // SIGTERM
	"time"      // Shutdown timeout

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging

	"wallet_admin/internal/admin"      // Account actions
	"wallet_admin/internal/api"        // Custom package for API handlers
	"wallet_admin/internal/config"     // Custom package for configuration
	"wallet_admin/internal/db"         // Database connection
	"wallet_admin/internal/events"     // Transaction event stream
	"wallet_admin/internal/notify"     // Admin email notifications
	"wallet_admin/internal/repository" // Persistence
	"wallet_admin/internal/wallet"     // Transaction workflow
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{}) // Machine readable logs in production
	}
	log := logrus.StandardLogger()

	// Connect to the database
	gdb, err := db.Open(cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	store := repository.NewGorm(gdb)

	// Setup Redis client, the listing cache is optional
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	} else {
		logrus.Warn("REDIS_ADDR not set, admin listings will not be cached")
	}

	// Email dispatcher: disabled (simulated) without SMTP credentials
	dispatcher := notify.NewDispatcher(notify.NewRenderer(cfg.AdminURL), cfg.Mail.From, cfg.Mail.SendTimeout, log)
	state := dispatcher.Init(notify.SetupTransport(cfg.Mail, log))
	logrus.WithField("state", state).Info("Email dispatcher initialized")
	notifier := notify.NewAdminNotifier(store, dispatcher, log)

	publisher := events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic) // Noop without brokers
	defer publisher.Close()

	walletSvc := wallet.NewService(store, notifier, publisher, log, wallet.Options{NotifyOnReject: cfg.NotifyOnReject})
	adminSvc := admin.NewService(store, store, log)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.RegisterRoutes(r, api.Deps{
		Accounts:   store,
		Wallet:     walletSvc,
		Admin:      adminSvc,
		Dispatcher: dispatcher,
		Redis:      redisClient,
		CacheTTL:   cfg.CacheTTL,
		JWTSecret:  cfg.JWTSecret,
		IsProd:     cfg.IsProd,
	})

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for interrupt, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("server shutdown: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logrus.Info("Server stopped")
}
