package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carelog/carelog/internal/config"
	"github.com/carelog/carelog/internal/domain/enrich"
	"github.com/carelog/carelog/internal/domain/migration"
	"github.com/carelog/carelog/internal/domain/reconcile"
	"github.com/carelog/carelog/internal/platform/db"
	"github.com/carelog/carelog/internal/platform/docstore"
	"github.com/carelog/carelog/internal/platform/middleware"
	"github.com/carelog/carelog/internal/platform/progress"
	"github.com/carelog/carelog/internal/platform/reporting"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carelog-server",
		Short: "Encounter record reconciliation server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(fixesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	return logger
}

func connect(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*docstore.PG, *pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	store := docstore.NewPG(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := enrich.EnsureOverrideSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info().Msg("connected to database")
	return store, pool, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the reconciliation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	store, pool, err := connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	fixes := enrich.NewOverrideRepoPG(pool)
	svc := reconcile.NewService(store, fixes, logger, progress.Logger(logger))

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")

	reconcile.NewHandler(svc).RegisterRoutes(apiV1)
	reporting.NewHandler(pool).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending document migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			store, pool, err := connect(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			runner := migration.NewRunner(store, logger)
			if err := runner.Apply(ctx, migration.All()); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			store, pool, err := connect(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			fixes := enrich.NewOverrideRepoPG(pool)
			svc := reconcile.NewService(store, fixes, logger, progress.Logger(logger))
			report, err := svc.Run(ctx)
			if err != nil {
				return err
			}

			s := report.Summary()
			fmt.Printf("records: %d\npatients: %d\nmapped pairs: %d\nconflicts: %d\nduplicate groups: %d\n",
				s.RecordCount, s.PatientCount, s.Mapping.MappedPairs, s.Mapping.Conflicts, s.GroupCount)
			return nil
		},
	}
}

func fixesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixes",
		Short: "Manage manual fix overrides",
	}

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import fix overrides from a YAML file (defaults to OVERRIDES_FILE)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			path, err := overridesPath(args, cfg)
			if err != nil {
				return err
			}
			overrides, err := enrich.LoadOverridesFile(path)
			if err != nil {
				return err
			}

			ctx := context.Background()
			_, pool, err := connect(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := enrich.NewOverrideRepoPG(pool)
			for _, o := range overrides {
				if err := repo.Add(ctx, o); err != nil {
					return err
				}
			}
			logger.Info().Int("count", len(overrides)).Msg("fix overrides imported")
			return nil
		},
	}

	cmd.AddCommand(importCmd)
	return cmd
}

// overridesPath resolves the import file: an explicit argument wins,
// otherwise the configured OVERRIDES_FILE.
func overridesPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.OverridesFile != "" {
		return cfg.OverridesFile, nil
	}
	return "", fmt.Errorf("no overrides file: pass a path or set OVERRIDES_FILE")
}
