package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jpdavalos423/pokecollect/internal/auth"
	"github.com/jpdavalos423/pokecollect/internal/binder"
	"github.com/jpdavalos423/pokecollect/internal/cards"
	"github.com/jpdavalos423/pokecollect/internal/collection"
	"github.com/jpdavalos423/pokecollect/internal/config"
	"github.com/jpdavalos423/pokecollect/internal/database"
	"github.com/jpdavalos423/pokecollect/internal/logging"
	"github.com/jpdavalos423/pokecollect/internal/provider"
	"github.com/jpdavalos423/pokecollect/internal/server"
	"github.com/jpdavalos423/pokecollect/internal/users"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "pokecollect-api",
		Short: "PokeCollect card collection backend service",
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
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("provider-base-url", defaults.GetString("provider.base_url"), "Card data provider base URL")
	cmd.PersistentFlags().Duration("provider-cache-ttl", defaults.GetDuration("provider.cache_ttl"), "Provider gateway cache TTL")
	cmd.PersistentFlags().Duration("cards-stale-after", defaults.GetDuration("cards.stale_after"), "Card metadata staleness threshold")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "provider.base_url", "provider-base-url")
	bindFlag(cmd, "provider.cache_ttl", "provider-cache-ttl")
	bindFlag(cmd, "cards.stale_after", "cards-stale-after")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
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
		// An explicitly requested file must exist and parse; only the
		// absence of an optional discovered file is ignorable.
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && !errors.As(err, &configNotFound) {
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

	tokenManager := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "pokecollect-api",
		Audience:      "pokecollect-web",
		TokenTTL:      appConfig.TokenTTL,
	})

	usersService, err := users.NewService(users.ServiceConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	gatewayCache, err := provider.NewTTLCache(appConfig.ProviderCacheEntries, time.Now)
	if err != nil {
		return err
	}

	gateway, err := provider.NewClient(provider.ClientConfig{
		BaseURL:    appConfig.ProviderBaseURL,
		HTTPClient: &http.Client{Timeout: appConfig.ProviderTimeout},
		Cache:      gatewayCache,
		CacheTTL:   appConfig.ProviderCacheTTL,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	cardStore, err := cards.NewStore(cards.StoreConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	collectionService, err := collection.NewService(collection.ServiceConfig{
		Database:   db,
		Cards:      cardStore,
		Fetcher:    gateway,
		StaleAfter: appConfig.CardStaleAfter,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	binderService, err := binder.NewService(binder.ServiceConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenManager: tokenManager,
		Users:        usersService,
		Cards:        cardStore,
		Browser:      gateway,
		Collection:   collectionService,
		Binder:       binderService,
		Logger:       logger,
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
