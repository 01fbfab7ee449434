package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinicdesk/internal/config"
	"github.com/clinicdesk/clinicdesk/internal/domain/records"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/middleware"
	"github.com/clinicdesk/clinicdesk/internal/storage"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the configured backend with the first-run demo dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			kv, cleanup, err := openStorage(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			store := records.NewStore(kv)
			if err := store.Initialize(ctx); err != nil {
				return err
			}
			users := auth.NewService(kv, auth.TokenConfig{})
			if err := users.Initialize(ctx); err != nil {
				return err
			}
			logger.Info().Msg("seed complete")
			return nil
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// openStorage selects the document backend: postgres when DATABASE_URL is
// configured, JSON files under DATA_DIR otherwise.
func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.KV, func(), error) {
	if cfg.UsesPostgres() {
		pool, err := storage.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, err
		}
		pg := storage.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info().Msg("using postgres document store")
		return pg, pool.Close, nil
	}

	kv, err := storage.NewFile(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Str("dir", cfg.DataDir).Msg("using file document store")
	return kv, func() {}, nil
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	secret := cfg.SessionSecret
	if secret == "" {
		// Development fallback: sessions do not survive a restart.
		var buf [32]byte
		if _, err := crypto_rand.Read(buf[:]); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate session secret")
		}
		secret = hex.EncodeToString(buf[:])
		logger.Warn().Msg("SESSION_SECRET not set; using a generated secret")
	}
	tokenCfg := auth.TokenConfig{
		SigningKey: []byte(secret),
		TTL:        cfg.SessionTTLDuration(),
	}

	ctx := context.Background()
	kv, cleanup, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer cleanup()

	// Record store: seed on first run, then hydrate into memory.
	store := records.NewStore(kv)
	if err := store.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize record store")
	}
	patients, incidents, err := store.Hydrate(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to hydrate record store")
	}
	logger.Info().
		Int("patients", len(patients)).
		Int("incidents", len(incidents)).
		Msg("record store hydrated")

	userSvc := auth.NewService(kv, tokenCfg)
	if err := userSvc.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize user accounts")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// Login is the one unauthenticated API route.
	public := e.Group("/api/v1")
	auth.NewHandler(userSvc).RegisterRoutes(public)

	// Everything else requires a session token.
	api := e.Group("/api/v1", auth.TokenMiddleware(tokenCfg))
	records.NewHandler(store, auth.Gate{}).RegisterRoutes(api)

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
