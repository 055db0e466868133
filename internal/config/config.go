package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the pipeline service. It is constructed
// once per process and passed by reference; nothing is read from the
// environment after Load returns.
type Config struct {
	Environment string
	LogLevel    string
	Port        string
	Pipeline    PipelineConfig
	Auth        AuthConfig
}

// PipelineConfig holds per-invocation pipeline limits.
type PipelineConfig struct {
	TimeoutMs       int
	MaxResponseSize int
	AllowedOrigins  []string // empty means no allow-list (wildcard CORS)
}

// AuthConfig holds settings for the bearer-token stage.
type AuthConfig struct {
	JWTSecret string
}

// Load loads configuration from environment variables, with a .env file as
// fallback in development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PORT", "8081")
	viper.SetDefault("PIPELINE_TIMEOUT_MS", 29000)
	viper.SetDefault("MAX_RESPONSE_SIZE", 6*1024*1024)

	config := &Config{
		Environment: viper.GetString("ENVIRONMENT"),
		LogLevel:    viper.GetString("LOG_LEVEL"),
		Port:        viper.GetString("PORT"),
		Pipeline: PipelineConfig{
			TimeoutMs:       viper.GetInt("PIPELINE_TIMEOUT_MS"),
			MaxResponseSize: viper.GetInt("MAX_RESPONSE_SIZE"),
			AllowedOrigins:  splitOrigins(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("JWT_SECRET"),
		},
	}

	return config, nil
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
