package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ca-backoffice/config"
	"ca-backoffice/internal/api"
	"ca-backoffice/internal/auth"
	"ca-backoffice/internal/cache"
	"ca-backoffice/internal/database"
	"ca-backoffice/internal/events"
	"ca-backoffice/internal/license"
	"ca-backoffice/internal/vault"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := setupLogger(cfg.LoggingConfig)

	// Signing secrets come from Vault when enabled, from config otherwise.
	licenseKey := cfg.LicenseConfig.SigningKey
	authSecret := cfg.AuthConfig.JWTSecret
	if cfg.VaultConfig.Enabled {
		vaultClient, err := vault.NewClient(vault.Config{
			Enabled:    cfg.VaultConfig.Enabled,
			Address:    cfg.VaultConfig.Address,
			Token:      cfg.VaultConfig.Token,
			SecretPath: cfg.VaultConfig.SecretPath,
			TLSEnabled: cfg.VaultConfig.TLSEnabled,
			CACert:     cfg.VaultConfig.CACert,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create vault client")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		secrets, err := vaultClient.GetSecrets(ctx)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to read secrets from vault")
		}
		licenseKey = secrets.LicenseSigningKey
		authSecret = secrets.AuthJWTSecret
		logger.Info().Msg("signing secrets loaded from vault")
	}
	if licenseKey == "" {
		logger.Fatal().Msg("license signing key is not configured")
	}
	if authSecret == "" {
		logger.Fatal().Msg("auth JWT secret is not configured")
	}

	db, err := database.NewDB(database.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: cfg.DatabaseConfig.Password,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.RunMigrations(ctx); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}
	cancel()

	repo := database.NewRepository(db)

	// Optional Redis cache in front of the enforcement hot path.
	var licenseStore license.Store = repo
	var cacheService *cache.Service
	if cfg.RedisConfig.Enabled {
		cacheService, err = cache.NewService(cache.Config{
			Enabled:  cfg.RedisConfig.Enabled,
			Address:  cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			PoolSize: cfg.RedisConfig.PoolSize,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, continuing without cache")
		} else {
			defer cacheService.Close()
			licenseStore = cache.NewCachedStore(repo, cacheService)
		}
	}

	eventBus := events.NewEventBus()

	codec := license.NewCodec(licenseKey)
	verifier := license.NewVerifier(codec)
	issuer := license.NewIssuer(codec)
	enforcer := license.NewEnforcer(licenseStore, verifier, eventBus, logger)

	authConfig := auth.DefaultConfig()
	authConfig.JWTSecret = authSecret
	authConfig.AccessTokenDuration = cfg.AuthConfig.AccessTokenDuration
	authConfig.MinPasswordLength = cfg.AuthConfig.MinPasswordLength
	authService := auth.NewService(repo, authConfig)

	if cfg.AuthConfig.AdminEmail != "" && cfg.AuthConfig.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := authService.SeedAdmin(ctx, cfg.AuthConfig.AdminName, cfg.AuthConfig.AdminEmail, cfg.AuthConfig.AdminPassword)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to seed admin account")
		}
	}

	server := api.NewServer(api.ServerConfig{
		Port:           cfg.ServerConfig.Port,
		Host:           cfg.ServerConfig.Host,
		ProductionMode: cfg.ServerConfig.ProductionMode,
		AllowOrigins:   cfg.ServerConfig.AllowedOrigins,
	}, repo, eventBus, authService, enforcer, issuer, cacheService, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownTimeout := time.Duration(cfg.ServerConfig.ShutdownTimeout) * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.JSONFormat {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
