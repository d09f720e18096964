package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"clinicbook/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL             string
	RequestTimeout         time.Duration
	DefaultDurationMinutes int

	LogLevel  string
	LogFormat string

	KafkaBrokers []string
	EventsTopic  string

	StubPort            string
	StubJWTSecret       string
	StubTokenTTL        time.Duration
	StubReadTimeout     time.Duration
	StubWriteTimeout    time.Duration
	StubIdleTimeout     time.Duration
	StubShutdownTimeout time.Duration
	StubHandlerTimeout  time.Duration
	StubLoginRateLimit  int
	StubLoginRateWindow time.Duration
	StubIdempotencyTTL  time.Duration
	StubMaxRequestSize  int

	Log *logger.Logger
}

// Load reads the configuration from the environment, after merging an
// optional .env file in the working directory. It exits on invalid values.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Output:    os.Stderr,
		AddSource: false,
		Service:   serviceName,
	})

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config without a logger and without validating it.
func FromEnv() *Config {
	return &Config{
		APIBaseURL:             strings.TrimRight(getEnvStr(EnvAPIBaseURL, DefaultAPIBaseURL), "/"),
		RequestTimeout:         getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		DefaultDurationMinutes: getEnvNum(EnvDefaultDuration, DefaultDurationMinutes),

		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		KafkaBrokers: getEnvList(EnvKafkaBrokers),
		EventsTopic:  getEnvStr(EnvEventsTopic, DefaultEventsTopic),

		StubPort:            getEnvStr(EnvStubPort, DefaultStubPort),
		StubJWTSecret:       getEnvStr(EnvStubJWTSecret, DefaultStubJWTSecret),
		StubTokenTTL:        getEnvDuration(EnvStubTokenTTL, DefaultStubTokenTTL),
		StubReadTimeout:     getEnvDuration(EnvStubReadTimeout, DefaultStubReadTimeout),
		StubWriteTimeout:    getEnvDuration(EnvStubWriteTimeout, DefaultStubWriteTimeout),
		StubIdleTimeout:     getEnvDuration(EnvStubIdleTimeout, DefaultStubIdleTimeout),
		StubShutdownTimeout: getEnvDuration(EnvStubShutdownTimeout, DefaultStubShutdownTimeout),
		StubHandlerTimeout:  getEnvDuration(EnvStubHandlerTimeout, DefaultStubHandlerTimeout),
		StubLoginRateLimit:  getEnvNum(EnvStubLoginRateLimit, DefaultStubLoginRateLimit),
		StubLoginRateWindow: getEnvDuration(EnvStubLoginRateWindow, DefaultStubLoginRateWindow),
		StubIdempotencyTTL:  getEnvDuration(EnvStubIdempotencyTTL, DefaultStubIdempotencyTTL),
		StubMaxRequestSize:  getEnvNum(EnvStubMaxRequestSize, DefaultStubMaxRequestSize),
	}
}

func (cfg *Config) EventsEnabled() bool {
	return len(cfg.KafkaBrokers) > 0
}

func (cfg *Config) Validate() error {
	var errors []string

	if u, err := url.Parse(cfg.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("APIBaseURL must be an absolute http(s) URL, got: %s", cfg.APIBaseURL))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.DefaultDurationMinutes <= 0 || cfg.DefaultDurationMinutes > MaxDurationMinutes {
		errors = append(errors, fmt.Sprintf("DefaultDurationMinutes must be between 1 and %d, got: %d", MaxDurationMinutes, cfg.DefaultDurationMinutes))
	}

	switch cfg.LogFormat {
	case logger.JSON, logger.TEXT:
	default:
		errors = append(errors, fmt.Sprintf("LogFormat must be json or text, got: %s", cfg.LogFormat))
	}

	for i, broker := range cfg.KafkaBrokers {
		if broker == "" {
			errors = append(errors, fmt.Sprintf("Kafka broker %d cannot be empty", i))
		}
	}
	if cfg.EventsEnabled() && cfg.EventsTopic == "" {
		errors = append(errors, "EventsTopic cannot be empty when Kafka brokers are configured")
	}

	if port, err := strconv.Atoi(cfg.StubPort); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("StubPort must be between 1 and 65535, got: %s", cfg.StubPort))
	}
	if cfg.StubJWTSecret == "" {
		errors = append(errors, "StubJWTSecret cannot be empty")
	}
	if cfg.StubTokenTTL <= 0 {
		errors = append(errors, fmt.Sprintf("StubTokenTTL must be positive, got: %s", cfg.StubTokenTTL))
	}
	if cfg.StubReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("StubReadTimeout must be positive, got: %s", cfg.StubReadTimeout))
	}
	if cfg.StubWriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("StubWriteTimeout must be positive, got: %s", cfg.StubWriteTimeout))
	}
	if cfg.StubIdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("StubIdleTimeout must be positive, got: %s", cfg.StubIdleTimeout))
	}
	if cfg.StubShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("StubShutdownTimeout must be positive, got: %s", cfg.StubShutdownTimeout))
	}

	if cfg.StubHandlerTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("StubHandlerTimeout must be positive, got: %s", cfg.StubHandlerTimeout))
	}
	if cfg.StubLoginRateLimit <= 0 {
		errors = append(errors, fmt.Sprintf("StubLoginRateLimit must be positive, got: %d", cfg.StubLoginRateLimit))
	}
	if cfg.StubLoginRateWindow <= 0 {
		errors = append(errors, fmt.Sprintf("StubLoginRateWindow must be positive, got: %s", cfg.StubLoginRateWindow))
	}
	if cfg.StubIdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("StubIdempotencyTTL must be positive, got: %s", cfg.StubIdempotencyTTL))
	}
	if cfg.StubMaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("StubMaxRequestSize must be positive, got: %d", cfg.StubMaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"api_base_url", cfg.APIBaseURL,
		"request_timeout", cfg.RequestTimeout,
		"default_duration_minutes", cfg.DefaultDurationMinutes,
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat,
		"kafka_brokers", cfg.KafkaBrokers,
		"events_topic", cfg.EventsTopic,
		"stub_port", cfg.StubPort,
		"stub_jwt_secret_set", cfg.StubJWTSecret != DefaultStubJWTSecret,
		"stub_token_ttl", cfg.StubTokenTTL,
		"stub_login_rate_limit", cfg.StubLoginRateLimit,
		"stub_login_rate_window", cfg.StubLoginRateWindow,
		"stub_idempotency_ttl", cfg.StubIdempotencyTTL,
	)
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
