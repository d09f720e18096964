package config

import "time"

const (
	DefaultAPIBaseURL      = "http://localhost:8000"
	DefaultRequestTimeout  = 10 * time.Second
	DefaultDurationMinutes = 30
	MaxDurationMinutes     = 8 * 60

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultEventsTopic = "clinic.appointments"

	DefaultStubPort            = "8000"
	DefaultStubJWTSecret       = "clinic-stub-secret"
	DefaultStubTokenTTL        = 60 * time.Minute
	DefaultStubReadTimeout     = 15 * time.Second
	DefaultStubWriteTimeout    = 15 * time.Second
	DefaultStubIdleTimeout     = 60 * time.Second
	DefaultStubShutdownTimeout = 30 * time.Second
	DefaultStubHandlerTimeout  = 5 * time.Second
	DefaultStubLoginRateLimit  = 10
	DefaultStubLoginRateWindow = time.Minute
	DefaultStubIdempotencyTTL  = 24 * time.Hour
	DefaultStubMaxRequestSize  = 1 << 20
)
