package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "DISCSTASH"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDatabasePath = "discstash.db"
	defaultLogLevel     = "info"
	defaultUploadsDir   = "uploads"
	defaultTokenTTLMins = 60
	defaultPublicRate   = 30

	defaultMinPasswordLength    = 6
	defaultMaxProvisionAttempts = 3
	defaultBackoffBaseMillis    = 1000
	defaultBackoffCapMillis     = 5000
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress         string
	DatabasePath        string
	LogLevel            string
	SigningSecret       string
	TokenTTL            time.Duration
	RedisAddress        string
	RedisPassword       string
	UploadsDir          string
	PublicRatePerMinute int
	Signup              SignupConfig
}

// SignupConfig tunes the account provisioning flow.
type SignupConfig struct {
	MinPasswordLength    int
	MaxProvisionAttempts int
	BackoffBase          time.Duration
	BackoffCap           time.Duration
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
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMins)
	configViper.SetDefault("redis.address", "")
	configViper.SetDefault("redis.password", "")
	configViper.SetDefault("uploads.dir", defaultUploadsDir)
	configViper.SetDefault("http.public_rate_per_minute", defaultPublicRate)
	configViper.SetDefault("signup.min_password_length", defaultMinPasswordLength)
	configViper.SetDefault("signup.max_provision_attempts", defaultMaxProvisionAttempts)
	configViper.SetDefault("signup.backoff_base_ms", defaultBackoffBaseMillis)
	configViper.SetDefault("signup.backoff_cap_ms", defaultBackoffCapMillis)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:         configViper.GetString("http.address"),
		DatabasePath:        configViper.GetString("database.path"),
		LogLevel:            configViper.GetString("log.level"),
		SigningSecret:       configViper.GetString("auth.signing_secret"),
		TokenTTL:            time.Duration(configViper.GetInt("token.ttl_minutes")) * time.Minute,
		RedisAddress:        configViper.GetString("redis.address"),
		RedisPassword:       configViper.GetString("redis.password"),
		UploadsDir:          configViper.GetString("uploads.dir"),
		PublicRatePerMinute: configViper.GetInt("http.public_rate_per_minute"),
		Signup: SignupConfig{
			MinPasswordLength:    configViper.GetInt("signup.min_password_length"),
			MaxProvisionAttempts: configViper.GetInt("signup.max_provision_attempts"),
			BackoffBase:          time.Duration(configViper.GetInt("signup.backoff_base_ms")) * time.Millisecond,
			BackoffCap:           time.Duration(configViper.GetInt("signup.backoff_cap_ms")) * time.Millisecond,
		},
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
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token.ttl_minutes must be positive")
	}
	if c.Signup.MinPasswordLength < 1 {
		return fmt.Errorf("signup.min_password_length must be positive")
	}
	if c.Signup.MaxProvisionAttempts < 1 {
		return fmt.Errorf("signup.max_provision_attempts must be positive")
	}
	if c.Signup.BackoffBase <= 0 || c.Signup.BackoffCap < c.Signup.BackoffBase {
		return fmt.Errorf("signup backoff window is invalid")
	}
	return nil
}
