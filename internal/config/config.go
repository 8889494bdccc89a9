// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dannyrandall/movies-apigw/internal/movies"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Tracing string

const (
	TracingNone Tracing = "none"
	TracingXRay Tracing = "xray"
	TracingOTel Tracing = "otel"
)

const defaultServiceName = "movies"

type Config struct {
	// TableName is the DynamoDB table movies are written to. It is not
	// required: an empty name surfaces as a failed write.
	TableName   string  `mapstructure:"table_name"`
	LogLevel    string  `mapstructure:"log_level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	LogFormat   string  `mapstructure:"log_format" validate:"oneof=json text"`
	Tracing     Tracing `mapstructure:"tracing" validate:"oneof=none xray otel"`
	IDScheme    string  `mapstructure:"id_scheme" validate:"oneof=uuid ksuid"`
	ListenAddr  string  `mapstructure:"listen_addr" validate:"required"`
	QueueURL    string  `mapstructure:"queue_url" validate:"omitempty,url"`
	QueueName   string  `mapstructure:"queue_name"`
	ServiceName string  `mapstructure:"service_name"`
}

var validate = validator.New()

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("tracing", string(TracingXRay))
	v.SetDefault("id_scheme", "uuid")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("table_name", "")
	v.SetDefault("queue_url", "")
	v.SetDefault("queue_name", "")
	v.SetDefault("service_name", "")
}

func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"table_name":   {"TABLE_NAME"},
		"log_level":    {"LOG_LEVEL"},
		"log_format":   {"LOG_FORMAT"},
		"tracing":      {"TRACING"},
		"id_scheme":    {"ID_SCHEME"},
		"listen_addr":  {"LISTEN_ADDR"},
		"queue_url":    {"QUEUE_URL", "COPILOT_QUEUE_URI"},
		"queue_name":   {"QUEUE_NAME"},
		"service_name": {"SERVICE_NAME", "AWS_LAMBDA_FUNCTION_NAME"},
	}

	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// IDGenerator returns the id generator for default records.
func (c *Config) IDGenerator() func() string {
	if c.IDScheme == "ksuid" {
		return movies.NewKSUID
	}
	return movies.NewID
}

// Service returns ServiceName, or fallback when it is unset.
func (c *Config) Service(fallback string) string {
	if c.ServiceName != "" {
		return c.ServiceName
	}
	if fallback != "" {
		return fallback
	}
	return defaultServiceName
}
