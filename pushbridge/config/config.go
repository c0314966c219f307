package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-push-bridge/pushhub"
)

const defaultRegistrationCacheTTL = 24 * time.Hour

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ProjectID          string
	ListenAddr         string
	IdentityURL        string
	NativeBridgeURL    string
	NumPipelineWorkers int

	// Relay is disabled when RelaySubscriptionID is empty; callbacks then only
	// arrive over HTTP.
	RelayTopicID        string
	RelaySubscriptionID string
	RelayDLQTopicID     string

	Hub        pushhub.Config
	CorsConfig middleware.CorsConfig
	Redis      RedisConfig

	PubsubConsumerConfig *messagepipeline.GooglePubsubConsumerConfig
}

// RelayEnabled reports whether callbacks are also consumed from Pub/Sub.
func (c *Config) RelayEnabled() bool {
	return c.RelaySubscriptionID != ""
}

// envOverrides holds every variable that may override the YAML. Pointer and
// slice fields stay nil when the variable is unset.
type envOverrides struct {
	ProjectID           *string        `env:"PROJECT_ID"`
	Port                *string        `env:"PORT"`
	IdentityURL         *string        `env:"IDENTITY_SERVICE_URL"`
	NativeBridgeURL     *string        `env:"NATIVE_BRIDGE_URL"`
	NumPipelineWorkers  *int           `env:"NUM_PIPELINE_WORKERS"`
	RelayTopicID        *string        `env:"RELAY_TOPIC_ID"`
	RelaySubscriptionID *string        `env:"RELAY_SUBSCRIPTION_ID"`
	RelayDLQTopicID     *string        `env:"RELAY_DLQ_TOPIC_ID"`
	GCMSenderID         *string        `env:"GCM_SENDER_ID"`
	GCMTimeout          *time.Duration `env:"GCM_TIMEOUT"`
	RedisAddr           *string        `env:"REDIS_ADDR"`
	RedisPassword       *string        `env:"REDIS_PASSWORD"`
	RedisDB             *int           `env:"REDIS_DB"`
	RedisEnabled        *bool          `env:"REDIS_ENABLED"`
	RedisTTL            *time.Duration `env:"REDIS_TTL"`
	CorsAllowedOrigins  []string       `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	override := func(key string) {
		logger.Debug("Overriding config value", "key", key, "source", "env")
	}

	if o.ProjectID != nil {
		override("PROJECT_ID")
		cfg.ProjectID = *o.ProjectID
	}
	if o.Port != nil {
		override("PORT")
		cfg.ListenAddr = ":" + *o.Port
	}
	if o.IdentityURL != nil {
		override("IDENTITY_SERVICE_URL")
		cfg.IdentityURL = *o.IdentityURL
	}
	if o.NativeBridgeURL != nil {
		override("NATIVE_BRIDGE_URL")
		cfg.NativeBridgeURL = *o.NativeBridgeURL
	}
	if o.NumPipelineWorkers != nil && *o.NumPipelineWorkers > 0 {
		override("NUM_PIPELINE_WORKERS")
		cfg.NumPipelineWorkers = *o.NumPipelineWorkers
	}
	if o.RelayTopicID != nil {
		override("RELAY_TOPIC_ID")
		cfg.RelayTopicID = *o.RelayTopicID
	}
	if o.RelaySubscriptionID != nil {
		override("RELAY_SUBSCRIPTION_ID")
		cfg.RelaySubscriptionID = *o.RelaySubscriptionID
		cfg.PubsubConsumerConfig = nil
	}
	if o.RelayDLQTopicID != nil {
		override("RELAY_DLQ_TOPIC_ID")
		cfg.RelayDLQTopicID = *o.RelayDLQTopicID
	}

	// Hub Overrides
	if o.GCMSenderID != nil {
		override("GCM_SENDER_ID")
		cfg.Hub.GCMSenderID = *o.GCMSenderID
	}
	if o.GCMTimeout != nil {
		override("GCM_TIMEOUT")
		cfg.Hub.GCMTimeout = *o.GCMTimeout
	}

	// Redis Overrides
	if o.RedisAddr != nil && *o.RedisAddr != "" {
		cfg.Redis.Addr = *o.RedisAddr
		cfg.Redis.Enabled = true
	}
	if o.RedisPassword != nil {
		cfg.Redis.Password = *o.RedisPassword
	}
	if o.RedisDB != nil {
		cfg.Redis.DB = *o.RedisDB
	}
	if o.RedisEnabled != nil {
		cfg.Redis.Enabled = *o.RedisEnabled
	}
	if o.RedisTTL != nil {
		cfg.Redis.TTL = *o.RedisTTL
	}

	// CORS Overrides
	if len(o.CorsAllowedOrigins) > 0 {
		override("CORS_ALLOWED_ORIGINS")
		var cleanOrigins []string
		for _, origin := range o.CorsAllowedOrigins {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// Final Validation
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required (set via YAML or PROJECT_ID env var)")
	}
	if cfg.NativeBridgeURL == "" {
		return nil, fmt.Errorf("native_bridge_url is required (set via YAML or NATIVE_BRIDGE_URL env var)")
	}
	if cfg.Hub.GCMTimeout < 0 {
		return nil, fmt.Errorf("gcm timeout must not be negative, got %s", cfg.Hub.GCMTimeout)
	}
	if cfg.Hub.GCMTimeout == 0 {
		cfg.Hub.GCMTimeout = pushhub.DefaultGCMTimeout
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.NumPipelineWorkers <= 0 {
		cfg.NumPipelineWorkers = 1
	}
	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis is enabled but no address is set (REDIS_ADDR)")
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = defaultRegistrationCacheTTL
	}
	if cfg.Hub.GCMSenderID == "" {
		// Android registrations will fail with a configuration error; iOS still works.
		logger.Warn("No GCM sender ID configured")
	}

	if cfg.PubsubConsumerConfig == nil && cfg.RelayEnabled() {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.RelaySubscriptionID)
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}
