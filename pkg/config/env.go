package config

const (
	EnvConfigFile = "CONFIG_FILE"

	EnvStoreDriver = "STORE_DRIVER"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPostgresDSN             = "POSTGRES_DSN"
	EnvPostgresMaxOpenConns    = "POSTGRES_MAX_OPEN_CONNS"
	EnvPostgresMaxIdleConns    = "POSTGRES_MAX_IDLE_CONNS"
	EnvPostgresConnMaxLifetime = "POSTGRES_CONN_MAX_LIFETIME"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvTrustedProxies    = "TRUSTED_PROXIES"

	EnvRequestTimeout     = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL     = "IDEMPOTENCY_TTL"
	EnvIdempotencyBackend = "IDEMPOTENCY_BACKEND"
	EnvMaxRequestSize     = "MAX_REQUEST_SIZE"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDeletePolicy       = "DELETE_POLICY"
	EnvAdminBookingStatus = "ADMIN_BOOKING_STATUS"

	EnvNotificationDriver    = "NOTIFICATION_DRIVER"
	EnvNotificationRecipient = "NOTIFICATION_RECIPIENT"
	EnvNotificationTopic     = "NOTIFICATION_TOPIC"
	EnvNotificationDLQTopic  = "NOTIFICATION_DLQ_TOPIC"
	EnvNotificationGroupID   = "NOTIFICATION_GROUP_ID"
	EnvRabbitMQURL           = "RABBITMQ_URL"
	EnvRabbitMQQueue         = "RABBITMQ_QUEUE"

	EnvMetricsEnabled = "METRICS_ENABLED"
)
