package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/ignite/newsletter/internal/api"
	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/email"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/repository/postgres"
	"github.com/ignite/newsletter/internal/subscription"
)

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("database connected")

	var sender email.Sender
	if cfg.Email.SES.AccessKey != "" && cfg.Email.SES.SecretKey != "" {
		sesSender, err := email.NewSESSender(context.Background(), cfg.Email.FromName, cfg.Email.FromAddress, cfg.Email.SES)
		if err != nil {
			log.Fatalf("Failed to initialize SES sender: %v", err)
		}
		sender = sesSender
		logger.Info("email transport ready", "region", cfg.Email.SES.Region)
	} else {
		sender = email.LogSender{}
		logger.Warn("no SES credentials configured, email delivery disabled")
	}

	templates, err := email.NewTemplates()
	if err != nil {
		log.Fatalf("Failed to parse email templates: %v", err)
	}

	svc := subscription.NewService(
		db,
		postgres.NewSubscriberRepo(db),
		sender,
		templates,
		cfg.Application.BaseURL,
	)
	server := api.NewServer(cfg.Server, svc)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"base_url", cfg.Application.BaseURL,
		)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}
	logger.Info("server stopped")
}
