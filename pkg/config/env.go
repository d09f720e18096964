package config

const (
	EnvAPIBaseURL      = "CLINIC_API_BASE_URL"
	EnvRequestTimeout  = "CLINIC_REQUEST_TIMEOUT"
	EnvDefaultDuration = "CLINIC_DEFAULT_DURATION_MIN"

	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvEventsTopic  = "CLINIC_EVENTS_TOPIC"

	EnvStubPort            = "STUB_PORT"
	EnvStubJWTSecret       = "STUB_JWT_SECRET"
	EnvStubTokenTTL        = "STUB_TOKEN_TTL"
	EnvStubReadTimeout     = "STUB_READ_TIMEOUT"
	EnvStubWriteTimeout    = "STUB_WRITE_TIMEOUT"
	EnvStubIdleTimeout     = "STUB_IDLE_TIMEOUT"
	EnvStubShutdownTimeout = "STUB_SHUTDOWN_TIMEOUT"
	EnvStubHandlerTimeout  = "STUB_HANDLER_TIMEOUT"
	EnvStubLoginRateLimit  = "STUB_LOGIN_RATE_LIMIT"
	EnvStubLoginRateWindow = "STUB_LOGIN_RATE_WINDOW"
	EnvStubIdempotencyTTL  = "STUB_IDEMPOTENCY_TTL"
	EnvStubMaxRequestSize  = "STUB_MAX_REQUEST_SIZE"
)
