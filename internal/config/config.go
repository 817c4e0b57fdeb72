// Package config handles application configuration using Viper.
// Viper supports YAML files, environment variables, and defaults — merged
// in priority order. Configuration is loaded into structs, not accessed as
// raw key-value pairs.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration struct. Nested structs organize related
// settings; `mapstructure` tags tell Viper how to map YAML/env keys.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Search    SearchConfig    `mapstructure:"search"`
	Cache     CacheConfig     `mapstructure:"cache"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

type AuthConfig struct {
	APIKeys   []string `mapstructure:"api_keys"`
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProvidersConfig selects and orders the image-search backends.
// First provider in Order is primary; the rest are merged in as fallbacks.
type ProvidersConfig struct {
	Order          []string       `mapstructure:"order"`
	Pexels         PexelsConfig   `mapstructure:"pexels"`
	Unsplash       UnsplashConfig `mapstructure:"unsplash"`
	TimeoutSeconds int            `mapstructure:"timeout_seconds"`
	RatePerSecond  float64        `mapstructure:"rate_per_second"`
	RateBurst      int            `mapstructure:"rate_burst"`
}

type PexelsConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type UnsplashConfig struct {
	AccessKey string `mapstructure:"access_key"`
}

// SearchConfig tunes the pipeline itself.
type SearchConfig struct {
	ImagesPerSlide     int `mapstructure:"images_per_slide"`
	TopicsPerSlide     int `mapstructure:"topics_per_slide"`
	BaseImagesPerTopic int `mapstructure:"base_images_per_topic"`
	PerSlideShare      int `mapstructure:"per_slide_share"`
	PoolMultiplier     int `mapstructure:"pool_multiplier"`
	MaxConcurrent      int `mapstructure:"max_concurrent"`
}

type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
	MaxEntries int `mapstructure:"max_entries"`
}

type LLMConfig struct {
	// ProviderOrder controls which LLM providers generate query hints and
	// in what order. Empty list disables hint generation entirely.
	ProviderOrder []string        `mapstructure:"provider_order"`
	Anthropic     AnthropicConfig `mapstructure:"anthropic"`
	OpenAI        OpenAIConfig    `mapstructure:"openai"`
	RatePerMinute int             `mapstructure:"rate_per_minute"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults — apply when neither file nor env provides a value
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.database_path", "./storage/deck-image-service.db")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("providers.order", []string{"pexels", "unsplash"})
	v.SetDefault("providers.timeout_seconds", 10)
	v.SetDefault("providers.rate_per_second", 10)
	v.SetDefault("providers.rate_burst", 10)
	v.SetDefault("search.images_per_slide", 6)
	v.SetDefault("search.topics_per_slide", 5)
	v.SetDefault("search.base_images_per_topic", 4)
	v.SetDefault("search.per_slide_share", 3)
	v.SetDefault("search.pool_multiplier", 3)
	v.SetDefault("search.max_concurrent", 8)
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("llm.provider_order", []string{"anthropic", "openai"})
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.openai.model", "gpt-4o")
	v.SetDefault("llm.rate_per_minute", 10)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("log.level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Read config file (ignore "not found" — defaults + env are enough)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Environment variables override everything.
	// DECK_ prefix + nested keys: DECK_SERVER_PORT=9090 → server.port=9090
	v.SetEnvPrefix("DECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Address returns the listen address string like "0.0.0.0:8080".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProviderTimeout returns the per-call timeout as a duration.
func (p ProvidersConfig) ProviderTimeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
