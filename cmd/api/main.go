package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/jas-4484/eduhub/internal/auth"
	"github.com/jas-4484/eduhub/internal/config"
	"github.com/jas-4484/eduhub/internal/database"
	"github.com/jas-4484/eduhub/internal/indexes"
	"github.com/jas-4484/eduhub/internal/logger"
	"github.com/jas-4484/eduhub/internal/perf"
	"github.com/jas-4484/eduhub/internal/routes"
	"github.com/jas-4484/eduhub/internal/store/mongostore"
	"github.com/jas-4484/eduhub/internal/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("eduhub stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	client, err := database.ConnectMongoDB(cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error("Failed to disconnect from MongoDB", slog.Any("error", err))
		}
	}()
	store := mongostore.New(client.Database(cfg.DatabaseName))

	catalog := indexes.Default()
	if cfg.EnsureIndexes {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := indexes.EnsureIndexes(ctx, store, catalog, log)
		cancel()
		if err != nil {
			return err
		}
	}

	reporters := []perf.Reporter{perf.NewLogReporter(log)}
	var mail *perf.MailReporter
	if cfg.SMTP.Enabled() && len(cfg.AlertRecipients) > 0 {
		mail = perf.NewMailReporter(utils.NewMailer(cfg.SMTP), cfg.AlertRecipients, log)
		reporters = append(reporters, mail)
	}

	router := routes.SetupRouter(routes.Deps{
		Store:   store,
		Monitor: perf.NewMonitor(store, catalog, log, perf.WithReporters(reporters...)),
		Auth:    auth.NewAuthenticator(cfg.JWTSecret, 24*time.Hour),
		Logger:  log,
		Timeout: cfg.QueryTimeout,
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server running", slog.String("port", cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err = srv.Shutdown(ctx)
	if mail != nil {
		if cerr := mail.Close(ctx); cerr != nil {
			log.Warn("anomaly mail left undelivered", slog.Any("error", cerr))
		}
	}
	return err
}
