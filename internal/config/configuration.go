package config

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// Database configuration
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	// Worker configuration
	StagingDir          string `mapstructure:"STAGING_DIR"`
	TranscodeWorkers    int    `mapstructure:"TRANSCODE_WORKERS" validate:"min=1"`
	TranscodeRatePerMin int    `mapstructure:"TRANSCODE_RATE_PER_MINUTE" validate:"min=1"`
	WatermarkEnabled    bool   `mapstructure:"WATERMARK_ENABLED"`

	// Object storage configuration
	S3Bucket        string `mapstructure:"S3_BUCKET" validate:"required"`
	S3Region        string `mapstructure:"S3_REGION"`
	S3PublicBaseURL string `mapstructure:"S3_PUBLIC_BASE_URL"`
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("mapstructure")
		if tag != "" {
			viper.BindEnv(tag)
		}
	}
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("STAGING_DIR", "/staging")
	viper.SetDefault("TRANSCODE_WORKERS", 1)
	viper.SetDefault("TRANSCODE_RATE_PER_MINUTE", 10)
	viper.SetDefault("S3_REGION", "us-east-1")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
