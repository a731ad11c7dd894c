package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jonatasvm/pagamento-sub000/internal/amqp"
	"github.com/Jonatasvm/pagamento-sub000/internal/auth"
	"github.com/Jonatasvm/pagamento-sub000/internal/config"
	apphttp "github.com/Jonatasvm/pagamento-sub000/internal/http"
	"github.com/Jonatasvm/pagamento-sub000/internal/services"
	"github.com/Jonatasvm/pagamento-sub000/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	promoteAdmins(context.Background(), store, cfg.AdminEmails)

	// The API stays up without the broker; the worker's periodic poll picks
	// up rows whose messages were never published.
	var publisher services.SyncPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, sync messages will be skipped", "error", err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	authManager := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	requests := services.NewRequestService(store, publisher)
	sessions := services.NewEditSessions(cfg.EditSessionTTL)

	srv := apphttp.NewServer(":"+cfg.Port, requests, store, authManager, sessions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting pagamentos server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// promoteAdmins grants the admin flag to accounts listed in ADMIN_EMAILS so
// an operator can bootstrap the first administrator without touching the
// database.
func promoteAdmins(ctx context.Context, store *storage.SQLiteRepository, emails []string) {
	for _, email := range emails {
		user, err := store.GetUserByEmail(ctx, email)
		if err != nil {
			slog.Warn("Admin email has no account yet", "email", email)
			continue
		}
		if user.Admin {
			continue
		}
		user.Admin = true
		user.PasswordHash = ""
		if err := store.UpdateUser(ctx, user); err != nil {
			slog.Error("Failed to promote admin", "email", email, "error", err)
			continue
		}
		slog.Info("Promoted account to admin", "email", email)
	}
}
