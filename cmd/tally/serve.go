package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"tally/internal/admin"
	"tally/internal/api"
	"tally/internal/blob"
	"tally/internal/config"
	"tally/internal/identity"
	"tally/internal/ledger"
	"tally/internal/metrics"
	"tally/internal/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Tally server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	blobs := blob.NewStore(pool)
	identityStore := identity.NewStore(blobs, cfg.Auth.SessionTTL)
	ledgerService := ledger.NewService(blobs)
	rollup := admin.NewRollup(identityStore, ledgerService)
	limiter := ratelimit.New(cfg.RateLimit.Default, cfg.RateLimit.Window)

	var google *identity.GoogleProvider
	if cfg.Auth.Google.ClientID != "" {
		google = identity.NewGoogleProvider(identity.GoogleConfig{
			ClientID:     cfg.Auth.Google.ClientID,
			ClientSecret: cfg.Auth.Google.ClientSecret,
			RedirectURL:  cfg.Auth.Google.RedirectURL,
		})
	}

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (total, idle, acquired int32) {
		stat := pool.Stat()
		return stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns()
	})

	// Expired session blobs accumulate otherwise.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := identityStore.CleanExpiredSessions(ctx)
				if err != nil {
					slog.Error("session cleanup failed", "error", err)
					continue
				}
				if removed > 0 {
					slog.Info("cleaned expired sessions", "removed", removed)
				}
			}
		}
	}()

	router := api.NewRouter(api.RouterDeps{
		Identity:       identityStore,
		Google:         google,
		Ledgers:        ledgerService,
		Rollup:         rollup,
		Limiter:        limiter,
		Metrics:        m,
		DB:             pool,
		AdminKey:       cfg.Auth.AdminKey,
		Roster:         cfg.Report.Employees,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
