package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/flightline-labs/discstash/internal/auth"
	"github.com/flightline-labs/discstash/internal/config"
	"github.com/flightline-labs/discstash/internal/database"
	"github.com/flightline-labs/discstash/internal/identity"
	"github.com/flightline-labs/discstash/internal/inventory"
	"github.com/flightline-labs/discstash/internal/logging"
	"github.com/flightline-labs/discstash/internal/marketplace"
	"github.com/flightline-labs/discstash/internal/messaging"
	"github.com/flightline-labs/discstash/internal/metrics"
	"github.com/flightline-labs/discstash/internal/profiles"
	"github.com/flightline-labs/discstash/internal/server"
	"github.com/flightline-labs/discstash/internal/signup"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "discstash-api",
		Short: "DiscStash disc collection and marketplace backend",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")
	cmd.PersistentFlags().String("redis-address", defaults.GetString("redis.address"), "Redis address for token revocation (optional)")
	cmd.PersistentFlags().String("uploads-dir", defaults.GetString("uploads.dir"), "Directory for uploaded disc images")
	cmd.PersistentFlags().Int("public-rate-per-minute", defaults.GetInt("http.public_rate_per_minute"), "Per-address request budget for auth routes")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "redis.address", "redis-address")
	bindFlag(cmd, "uploads.dir", "uploads-dir")
	bindFlag(cmd, "http.public_rate_per_minute", "public-rate-per-minute")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var revoker auth.TokenRevoker
	if appConfig.RedisAddress != "" {
		redisClient := auth.NewRedisClient(appConfig.RedisAddress, appConfig.RedisPassword)
		defer redisClient.Close()
		revoker = auth.NewRedisRevoker(redisClient)
		logger.Info("using redis token revocation", zap.String("address", appConfig.RedisAddress))
	}

	tokenIssuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		TokenTTL:      appConfig.TokenTTL,
		Revoker:       revoker,
	})

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	identityService, err := identity.NewService(identity.ServiceConfig{
		Database:   db,
		Tokens:     tokenIssuer,
		IDProvider: identity.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	profileStore, err := profiles.NewStore(profiles.StoreConfig{Database: db})
	if err != nil {
		return err
	}
	provisioner, err := signup.NewProvisioner(signup.ProvisionerConfig{
		Profiles: profileStore,
		Policy: signup.RetryPolicy{
			MaxAttempts: appConfig.Signup.MaxProvisionAttempts,
			BaseDelay:   appConfig.Signup.BackoffBase,
			CapDelay:    appConfig.Signup.BackoffCap,
		},
		Logger:  logger,
		Metrics: collector,
	})
	if err != nil {
		return err
	}
	signupService, err := signup.NewService(signup.ServiceConfig{
		Registrar:         identityService,
		Profiles:          profileStore,
		Provisioner:       provisioner,
		Compensation:      signup.SignOutCompensation{Sessions: identityService},
		MinPasswordLength: appConfig.Signup.MinPasswordLength,
		Logger:            logger,
		Metrics:           collector,
	})
	if err != nil {
		return err
	}

	inventoryService, err := inventory.NewService(inventory.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}
	marketplaceService, err := marketplace.NewService(marketplace.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}
	messagingService, err := messaging.NewService(messaging.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}
	imageStore, err := inventory.NewImageStore(appConfig.UploadsDir)
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Signup:              signupService,
		Identity:            identityService,
		Tokens:              tokenIssuer,
		Profiles:            profileStore,
		Inventory:           inventoryService,
		Marketplace:         marketplaceService,
		Messaging:           messagingService,
		Images:              imageStore,
		Collector:           collector,
		Gatherer:            registry,
		Logger:              logger,
		PublicRatePerMinute: appConfig.PublicRatePerMinute,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
