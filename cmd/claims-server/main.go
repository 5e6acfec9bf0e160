package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/caresuite/claims-api/internal/config"
	"github.com/caresuite/claims-api/internal/domain/claims"
	"github.com/caresuite/claims-api/internal/domain/payments"
	"github.com/caresuite/claims-api/internal/domain/settings"
	"github.com/caresuite/claims-api/internal/platform/auth"
	"github.com/caresuite/claims-api/internal/platform/db"
	"github.com/caresuite/claims-api/internal/platform/invoicing"
	"github.com/caresuite/claims-api/internal/platform/middleware"
)

const version = "0.1.0"

var (
	migrateSchema string
	migrateDir    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "claims-server",
		Short:   "Insurance claims API server",
		Version: version,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}

	migrateUpCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(func(ctx context.Context, m *db.Migrator) error {
				n, err := m.Up(ctx, migrateSchema)
				if err != nil {
					return err
				}
				fmt.Printf("applied %d migration(s) to schema %q\n", n, migrateSchema)
				return nil
			})
		},
	}

	migrateStatusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx, migrateSchema)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied " + s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Printf("%03d  %-40s %s\n", s.Version, s.Name, state)
				}
				return nil
			})
		},
	}

	migrateDownCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("down migrations are not supported; restore from a backup instead")
		},
	}

	for _, c := range []*cobra.Command{migrateUpCmd, migrateStatusCmd} {
		c.Flags().StringVar(&migrateSchema, "schema", "public", "target schema")
		c.Flags().StringVar(&migrateDir, "dir", "./migrations", "migrations directory")
	}

	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd, migrateDownCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "claims-api").Logger()
	if cfg.IsDev() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}

func runMigrate(fn func(ctx context.Context, m *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, db.NewMigrator(pool, migrateDir))
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	logger.Info().Str("env", cfg.Env).Msg("database pool ready")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Location-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}
	e.Use(db.LocationMiddleware(cfg.DefaultLocation))

	invClient := invoicing.NewHTTPClient(cfg.InvoicingBaseURL, cfg.InvoicingAPIKey, logger,
		invoicing.WithTimeout(time.Duration(cfg.InvoicingTimeout)*time.Second))

	claimsSvc := claims.NewService(claims.NewRepoPG(pool), pool, cfg.ClaimNumberPrefix, logger)
	paymentsSvc := payments.NewService(payments.NewRepoPG(pool), invClient, claimsSvc, pool, logger)

	apiV1 := e.Group("/api/v1", middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	claims.NewHandler(claimsSvc).RegisterRoutes(apiV1)
	payments.NewHandler(paymentsSvc).RegisterRoutes(apiV1)
	settings.NewHandler(settings.NewRepoPG(pool, cfg.ClaimNumberPrefix)).RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
