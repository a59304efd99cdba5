// nightsky-server serves astronomical event queries over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloudeng.io/logging/ctxlog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unklstewy/nightsky/internal/auth"
	"github.com/unklstewy/nightsky/internal/db"
	"github.com/unklstewy/nightsky/internal/engine"
	"github.com/unklstewy/nightsky/internal/metrics"
	"github.com/unklstewy/nightsky/pkg/config"
)

var (
	configPath        = flag.String("config", "configs/config.json", "Path to configuration file")
	port              = flag.String("port", "", "HTTP server port (overrides config)")
	snapshotRetention = flag.Duration("snapshot-retention", 30*24*time.Hour, "Age after which event snapshots are pruned")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, err = engine.NewLogger(ctx, cfg.Logging, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	logger := ctxlog.Logger(ctx)

	agg, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize event engine: %v", err)
	}
	if err := metrics.RegisterCache(prometheus.DefaultRegisterer, agg.Cache()); err != nil {
		log.Fatalf("Failed to register cache metrics: %v", err)
	}

	authSvc := auth.NewService(auth.Config{
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenDuration: cfg.Auth.TokenDuration(),
	})

	var st store
	if cfg.Database.Enabled {
		database, err := db.ReconnectWithRetry(ctx, cfg.Database, 5, 2*time.Second)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := database.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		users := db.NewUserRepository(database)
		if err := bootstrapAdmin(ctx, users, authSvc); err != nil {
			logger.Warn("admin bootstrap failed", "error", err)
		}
		snapshots := db.NewSnapshotRepository(database)
		st = store{
			users:     users,
			sites:     db.NewSiteRepository(database),
			snapshots: snapshots,
			stats:     database,
		}
		if cfg.Auth.JWTSecret == "" {
			logger.Warn("no JWT secret configured, logins will fail (set NIGHTSKY_JWT_SECRET)")
		}
		go pruneSnapshots(ctx, snapshots, *snapshotRetention)
	} else {
		logger.Info("database disabled, serving public endpoints only")
	}

	srv := newServer(cfg, agg, authSvc, st, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", httpServer.Addr, "tls", cfg.Server.TLSEnabled)
		var err error
		if cfg.Server.TLSEnabled {
			err = httpServer.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Info("server stopped")
}

type userCreator interface {
	Create(ctx context.Context, user *db.User) error
}

// bootstrapAdmin creates the admin account from NIGHTSKY_ADMIN_PASSWORD
// when that variable is set and the account does not exist yet.
func bootstrapAdmin(ctx context.Context, users userCreator, authSvc *auth.Service) error {
	password := os.Getenv("NIGHTSKY_ADMIN_PASSWORD")
	if password == "" {
		return nil
	}
	hash, err := authSvc.HashPassword(password)
	if err != nil {
		return err
	}
	err = users.Create(ctx, &db.User{
		Username:      "admin",
		Email:         "admin@nightsky.local",
		PasswordHash:  hash,
		Role:          auth.RoleAdmin,
		IsActive:      true,
		EmailVerified: true,
	})
	if errors.Is(err, db.ErrUserExists) {
		return nil
	}
	if err == nil {
		ctxlog.Logger(ctx).Info("created admin account")
	}
	return err
}

type snapshotPruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int64, error)
}

// pruneSnapshots deletes old snapshots hourly until ctx is done.
func pruneSnapshots(ctx context.Context, p snapshotPruner, maxAge time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		n, err := p.Prune(ctx, maxAge)
		if err != nil {
			ctxlog.Logger(ctx).Warn("snapshot pruning failed", "error", err)
		} else if n > 0 {
			ctxlog.Logger(ctx).Info("pruned snapshots", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
