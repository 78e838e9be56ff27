package config

const (
	EnvPostgresDSN   = "POSTGRES_DSN"
	EnvMigrationsDir = "MIGRATIONS_DIR"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvMirrorTopic  = "MIRROR_TOPIC"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvReservationTTL = "RESERVATION_TTL"
	EnvCacheTTL       = "CACHE_TTL"

	EnvWriteRateLimit  = "WRITE_RATE_LIMIT"
	EnvWriteRateWindow = "WRITE_RATE_WINDOW"
	EnvReadRateLimit   = "READ_RATE_LIMIT"
	EnvReadRateWindow  = "READ_RATE_WINDOW"
	EnvPromoRateLimit  = "PROMO_RATE_LIMIT"
	EnvPromoRateWindow = "PROMO_RATE_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
