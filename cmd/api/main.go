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
	"go.uber.org/zap"

	"petcare-booking/internal/adapters/auth/gateway"
	mailsmtp "petcare-booking/internal/adapters/mail/smtp"
	pg "petcare-booking/internal/adapters/storage/postgres"
	"petcare-booking/internal/config"
	"petcare-booking/internal/platform/logger"
	"petcare-booking/internal/ports/auth"
	"petcare-booking/internal/ports/mail"
	"petcare-booking/internal/router"
)

func main() {
	// .env es opcional; en Docker todo llega por env directamente.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}
	cfg := config.MustRead(configPath)

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync() //nolint:errcheck

	opts := router.Options{Cfg: cfg, Log: log}

	if cfg.Database.DSN != "" {
		db, err := pg.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatal("postgres connect failed", zap.Error(err))
		}
		defer db.Close()
		opts.DB = db
		log.Info("connected to postgres")
	} else {
		log.Info("no database.dsn configured, using in-memory storage")
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatal("redis connect failed", zap.Error(err))
		}
		cancel()
		defer rdb.Close()
		opts.Redis = rdb
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	var mailer mail.Sender
	if cfg.SMTP.Enabled {
		mailer = mailsmtp.New(cfg.SMTP)
		log.Info("smtp sender enabled", zap.String("host", cfg.SMTP.Host))
	}
	opts.Mailer = mailer

	var verifier auth.AuthVerifier
	if cfg.Identity.BaseURL != "" {
		verifier = gateway.NewVerifier(gateway.NewClient(cfg.Identity))
		log.Info("identity gateway enabled", zap.String("base_url", cfg.Identity.BaseURL))
	} else {
		log.Warn("identity gateway not configured, running in dev auth mode")
	}
	opts.AuthVerifier = verifier

	handler, err := router.NewRouter(opts)
	if err != nil {
		log.Fatal("router setup failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
