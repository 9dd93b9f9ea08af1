package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                   = "POKECOLLECT"
	defaultHTTPAddress          = "0.0.0.0:8080"
	defaultDatabasePath         = "pokecollect.db"
	defaultLogLevel             = "info"
	defaultProviderBaseURL      = "https://api.tcgdex.net/v2/en"
	defaultProviderTimeout      = 10 * time.Second
	defaultProviderCacheTTL     = 5 * time.Minute
	defaultCardStaleAfter       = 24 * time.Hour
	defaultTokenTTL             = 7 * 24 * time.Hour
	defaultProviderCacheEntries = 2048
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress          string
	DatabasePath         string
	LogLevel             string
	SigningSecret        string
	TokenTTL             time.Duration
	ProviderBaseURL      string
	ProviderTimeout      time.Duration
	ProviderCacheTTL     time.Duration
	ProviderCacheEntries int
	CardStaleAfter       time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("auth.token_ttl", defaultTokenTTL)
	configViper.SetDefault("provider.base_url", defaultProviderBaseURL)
	configViper.SetDefault("provider.timeout", defaultProviderTimeout)
	configViper.SetDefault("provider.cache_ttl", defaultProviderCacheTTL)
	configViper.SetDefault("provider.cache_entries", defaultProviderCacheEntries)
	configViper.SetDefault("cards.stale_after", defaultCardStaleAfter)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:          configViper.GetString("http.address"),
		DatabasePath:         configViper.GetString("database.path"),
		LogLevel:             configViper.GetString("log.level"),
		SigningSecret:        configViper.GetString("auth.signing_secret"),
		TokenTTL:             configViper.GetDuration("auth.token_ttl"),
		ProviderBaseURL:      configViper.GetString("provider.base_url"),
		ProviderTimeout:      configViper.GetDuration("provider.timeout"),
		ProviderCacheTTL:     configViper.GetDuration("provider.cache_ttl"),
		ProviderCacheEntries: configViper.GetInt("provider.cache_entries"),
		CardStaleAfter:       configViper.GetDuration("cards.stale_after"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(c.ProviderBaseURL)); err != nil {
		return fmt.Errorf("provider.base_url is invalid: %w", err)
	}
	if c.ProviderCacheTTL <= 0 {
		return fmt.Errorf("provider.cache_ttl must be positive")
	}
	if c.CardStaleAfter <= 0 {
		return fmt.Errorf("cards.stale_after must be positive")
	}
	if c.ProviderCacheEntries <= 0 {
		return fmt.Errorf("provider.cache_entries must be positive")
	}
	return nil
}
