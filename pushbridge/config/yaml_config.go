package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-push-bridge/pushhub"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
	TTL      string `yaml:"ttl"`
}

type YamlHubConfig struct {
	GCMSenderID string `yaml:"gcm_sender_id"`
	GCMTimeout  string `yaml:"gcm_timeout"`
}

type YamlRelayConfig struct {
	TopicID        string `yaml:"topic_id"`
	SubscriptionID string `yaml:"subscription_id"`
	DLQTopicID     string `yaml:"dlq_topic_id"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ProjectID          string          `yaml:"project_id"`
	ListenAddr         string          `yaml:"listen_addr"`
	IdentityURL        string          `yaml:"identity_url"`
	NativeBridgeURL    string          `yaml:"native_bridge_url"`
	NumPipelineWorkers int             `yaml:"num_pipeline_workers"`
	Hub                YamlHubConfig   `yaml:"hub"`
	Relay              YamlRelayConfig `yaml:"relay"`
	CorsConfig         YamlCorsConfig  `yaml:"cors"`
	RedisConfig        YamlRedisConfig `yaml:"redis"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	gcmTimeout, err := parseOptionalDuration("hub.gcm_timeout", baseCfg.Hub.GCMTimeout)
	if err != nil {
		return nil, err
	}
	redisTTL, err := parseOptionalDuration("redis.ttl", baseCfg.RedisConfig.TTL)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ProjectID:           baseCfg.ProjectID,
		ListenAddr:          baseCfg.ListenAddr,
		IdentityURL:         baseCfg.IdentityURL,
		NativeBridgeURL:     baseCfg.NativeBridgeURL,
		NumPipelineWorkers:  baseCfg.NumPipelineWorkers,
		RelayTopicID:        baseCfg.Relay.TopicID,
		RelaySubscriptionID: baseCfg.Relay.SubscriptionID,
		RelayDLQTopicID:     baseCfg.Relay.DLQTopicID,
		Hub: pushhub.Config{
			GCMSenderID: baseCfg.Hub.GCMSenderID,
			GCMTimeout:  gcmTimeout,
		},
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
		Redis: RedisConfig{
			Addr:     baseCfg.RedisConfig.Addr,
			Password: baseCfg.RedisConfig.Password,
			DB:       baseCfg.RedisConfig.DB,
			Enabled:  baseCfg.RedisConfig.Enabled,
			TTL:      redisTTL,
		},
	}

	if cfg.RelaySubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.RelaySubscriptionID)
	}

	logger.Debug("YAML config mapping complete",
		"project_id", cfg.ProjectID,
		"listen_addr", cfg.ListenAddr,
		"relay_subscription_id", cfg.RelaySubscriptionID,
	)

	return cfg, nil
}

func parseOptionalDuration(key, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
