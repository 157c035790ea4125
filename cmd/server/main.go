package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mirrorlabs/claude-gateway/internal/api"
	"github.com/mirrorlabs/claude-gateway/internal/claude"
	"github.com/mirrorlabs/claude-gateway/internal/config"
	"github.com/mirrorlabs/claude-gateway/internal/repository/memory"
	"github.com/mirrorlabs/claude-gateway/internal/repository/redis"
	"github.com/mirrorlabs/claude-gateway/internal/service"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := setupLogging(cfg.Logging); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logging")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting claude-gateway")

	// Initialize the worker launcher
	cli := claude.NewCLI(cfg.Claude.CLIPath, cfg.Claude.Cwd, cfg.Claude.Timeout)

	if !cfg.Claude.SkipVerify {
		log.Info().Msg("Verifying Claude Code CLI...")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := cli.Verify(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("Claude Code CLI verification failed; install and authenticate it, or set claude.skip_verify")
		}
		cancel()
		log.Info().Msg("Claude Code CLI verified successfully")
	}

	// Session store and background cleanup
	store := memory.NewSessionStore(cfg.Session.TTL)
	sweeper := memory.NewSweeper(store, cfg.Session.CleanupInterval)
	sweeper.Start()
	defer sweeper.Stop()

	// Redis is optional; without it rate limiting is off
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
	}

	completions := service.NewCompletionService(cli, store, service.ToolOptions{
		MaxTurns:        cfg.Claude.MaxTurns,
		AllowedTools:    cfg.Claude.AllowedTools,
		DisallowedTools: cfg.Claude.DisallowedTools,
	})

	router := api.NewRouter(cfg, store, completions, redisClient)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func setupLogging(cfg config.LoggingConfig) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var writers []io.Writer
	if os.Getenv("ENV") != "production" {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		writers = append(writers, os.Stderr)
	}

	if cfg.File != "" {
		rotator, err := rotatelogs.New(
			cfg.File+".%Y%m%d",
			rotatelogs.WithLinkName(cfg.File),
			rotatelogs.WithMaxAge(cfg.MaxAge),
			rotatelogs.WithRotationTime(24*time.Hour),
		)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", cfg.File, err)
		}
		writers = append(writers, rotator)
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))
	return nil
}
