package config

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"djagency/pkg/client"
	"djagency/pkg/logger"
)

var (
	mongoURIRegex    = regexp.MustCompile(`^mongodb(\+srv)?://`)
	postgresDSNRegex = regexp.MustCompile(`^postgres(ql)?://`)
	amqpURLRegex     = regexp.MustCompile(`^amqps?://`)
	credentialRegex  = regexp.MustCompile(`(://)[^:/@]+:[^@]+@`)
)

type Config struct {
	StoreDriver string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	PostgresDSN             string
	PostgresMaxOpenConns    int
	PostgresMaxIdleConns    int
	PostgresConnMaxLifetime time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	// TrustedProxies lists the CIDRs or addresses whose X-Forwarded-For is
	// believed when keying the public rate limit.
	TrustedProxies []string

	RequestTimeout     time.Duration
	IdempotencyTTL     time.Duration
	IdempotencyBackend string
	MaxRequestSize     int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DeletePolicy       DeletePolicy
	AdminBookingStatus string

	NotificationDriver    string
	NotificationRecipient string
	NotificationTopic     string
	NotificationDLQTopic  string
	NotificationGroupID   string
	RabbitMQURL           string
	RabbitMQQueue         string

	MetricsEnabled bool

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the configuration for serviceName and exits the process if it is invalid.
func Load(serviceName string) *Config {
	cfg, err := Parse(serviceName)
	if err != nil {
		if cfg == nil || cfg.Log == nil {
			logger.New(logger.Config{Service: serviceName}).Fatal(err.Error())
		}
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// Parse builds a Config from the environment and the optional CONFIG_FILE,
// returning the validation error instead of exiting.
func Parse(serviceName string) (*Config, error) {
	src, err := loadFile(os.Getenv(EnvConfigFile))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StoreDriver: strings.ToLower(src.getEnvStr(EnvStoreDriver, DefaultStoreDriver)),

		MongoURI:          src.getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: src.getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  src.getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		PostgresDSN:             src.getEnvStr(EnvPostgresDSN, DefaultPostgresDSN),
		PostgresMaxOpenConns:    src.getEnvNum(EnvPostgresMaxOpenConns, DefaultPostgresMaxOpenConns),
		PostgresMaxIdleConns:    src.getEnvNum(EnvPostgresMaxIdleConns, DefaultPostgresMaxIdleConns),
		PostgresConnMaxLifetime: src.getEnvDuration(EnvPostgresConnMaxLifetime, DefaultPostgresConnMaxLifetime),

		Port: src.getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: src.getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   src.getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),
		TrustedProxies:    src.getEnvList(EnvTrustedProxies),

		RequestTimeout:     src.getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL:     src.getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		IdempotencyBackend: strings.ToLower(src.getEnvStr(EnvIdempotencyBackend, DefaultIdempotencyBackend)),
		MaxRequestSize:     src.getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		RedisAddr:     src.getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: src.getEnvStr(EnvRedisPassword, ""),
		RedisDB:       src.getEnvNum(EnvRedisDB, DefaultRedisDB),

		ReadTimeout:     src.getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    src.getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     src.getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: src.getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DeletePolicy:       DeletePolicy(strings.ToLower(src.getEnvStr(EnvDeletePolicy, string(DefaultDeletePolicy)))),
		AdminBookingStatus: strings.ToLower(src.getEnvStr(EnvAdminBookingStatus, DefaultAdminBookingStatus)),

		NotificationDriver:    strings.ToLower(src.getEnvStr(EnvNotificationDriver, DefaultNotificationDriver)),
		NotificationRecipient: src.getEnvStr(EnvNotificationRecipient, DefaultNotificationRecipient),
		NotificationTopic:     src.getEnvStr(EnvNotificationTopic, DefaultNotificationTopic),
		NotificationDLQTopic:  src.getEnvStr(EnvNotificationDLQTopic, DefaultNotificationDLQTopic),
		NotificationGroupID:   src.getEnvStr(EnvNotificationGroupID, DefaultNotificationGroupID),
		RabbitMQURL:           src.getEnvStr(EnvRabbitMQURL, DefaultRabbitMQURL),
		RabbitMQQueue:         src.getEnvStr(EnvRabbitMQQueue, DefaultRabbitMQQueue),

		MetricsEnabled: src.getEnvBool(EnvMetricsEnabled, DefaultMetricsEnabled),

		Log: logger.New(logger.Config{
			Level:     src.getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    src.getEnvStr(EnvLogFormat, DefaultLogFormat),
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetPostgres() {
	cfg.Client.SetPostgres(cfg.Log, client.PostgresOptions{
		DSN:             cfg.PostgresDSN,
		MaxOpenConns:    cfg.PostgresMaxOpenConns,
		MaxIdleConns:    cfg.PostgresMaxIdleConns,
		ConnMaxLifetime: cfg.PostgresConnMaxLifetime,
		ConnectTimeout:  cfg.MongoConnTimeout,
	})
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

// SetStore connects the backend selected by StoreDriver.
func (cfg *Config) SetStore() {
	switch cfg.StoreDriver {
	case StorePostgres:
		cfg.SetPostgres()
	default:
		cfg.SetMongo()
	}
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !mongoURIRegex.MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactURL(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
	case StorePostgres:
		if !postgresDSNRegex.MatchString(cfg.PostgresDSN) {
			errors = append(errors, fmt.Sprintf("PostgresDSN must start with 'postgres://' or 'postgresql://', got: %s", redactURL(cfg.PostgresDSN)))
		}
		if cfg.PostgresMaxOpenConns <= 0 {
			errors = append(errors, fmt.Sprintf("PostgresMaxOpenConns must be positive, got: %d", cfg.PostgresMaxOpenConns))
		}
		if cfg.PostgresMaxIdleConns < 0 || cfg.PostgresMaxIdleConns > cfg.PostgresMaxOpenConns {
			errors = append(errors, fmt.Sprintf("PostgresMaxIdleConns must be between 0 and PostgresMaxOpenConns (%d), got: %d", cfg.PostgresMaxOpenConns, cfg.PostgresMaxIdleConns))
		}
	default:
		errors = append(errors, fmt.Sprintf("StoreDriver must be one of [%s %s], got: %s", StoreMongo, StorePostgres, cfg.StoreDriver))
	}

	switch cfg.IdempotencyBackend {
	case IdempotencyMemory:
	case IdempotencyRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr cannot be empty when IdempotencyBackend is redis")
		}
	default:
		errors = append(errors, fmt.Sprintf("IdempotencyBackend must be one of [%s %s], got: %s", IdempotencyMemory, IdempotencyRedis, cfg.IdempotencyBackend))
	}

	switch cfg.DeletePolicy {
	case DeletePolicyNullify, DeletePolicyCascade:
	default:
		errors = append(errors, fmt.Sprintf("DeletePolicy must be one of [%s %s], got: %s", DeletePolicyNullify, DeletePolicyCascade, cfg.DeletePolicy))
	}

	if cfg.AdminBookingStatus != "pending" && cfg.AdminBookingStatus != "confirmed" {
		errors = append(errors, fmt.Sprintf("AdminBookingStatus must be one of [pending confirmed], got: %s", cfg.AdminBookingStatus))
	}

	switch cfg.NotificationDriver {
	case NotificationLog:
	case NotificationKafka:
		if cfg.NotificationTopic == "" {
			errors = append(errors, "NotificationTopic cannot be empty when NotificationDriver is kafka")
		}
	case NotificationRabbitMQ:
		if !amqpURLRegex.MatchString(cfg.RabbitMQURL) {
			errors = append(errors, fmt.Sprintf("RabbitMQURL must start with 'amqp://' or 'amqps://', got: %s", redactURL(cfg.RabbitMQURL)))
		}
		if cfg.RabbitMQQueue == "" {
			errors = append(errors, "RabbitMQQueue cannot be empty when NotificationDriver is rabbitmq")
		}
	default:
		errors = append(errors, fmt.Sprintf("NotificationDriver must be one of [%s %s %s], got: %s", NotificationLog, NotificationKafka, NotificationRabbitMQ, cfg.NotificationDriver))
	}

	if at := strings.Index(cfg.NotificationRecipient, "@"); at <= 0 || at == len(cfg.NotificationRecipient)-1 {
		errors = append(errors, fmt.Sprintf("NotificationRecipient must be an email address, got: %s", cfg.NotificationRecipient))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	for _, proxy := range cfg.TrustedProxies {
		if !validProxy(proxy) {
			errors = append(errors, fmt.Sprintf("TrustedProxies must be IP addresses or CIDR ranges, got: %s", proxy))
		}
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
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
		"store_driver", cfg.StoreDriver,
		"mongo_uri", redactURL(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"postgres_dsn", redactURL(cfg.PostgresDSN),
		"postgres_max_open_conns", cfg.PostgresMaxOpenConns,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"trusted_proxies", cfg.TrustedProxies,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"idempotency_backend", cfg.IdempotencyBackend,
		"redis_addr", cfg.RedisAddr,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"delete_policy", cfg.DeletePolicy,
		"admin_booking_status", cfg.AdminBookingStatus,
		"notification_driver", cfg.NotificationDriver,
		"notification_recipient", cfg.NotificationRecipient,
		"rabbitmq_url", redactURL(cfg.RabbitMQURL),
		"metrics_enabled", cfg.MetricsEnabled,
	)
}

func validProxy(value string) bool {
	if strings.Contains(value, "/") {
		_, err := netip.ParsePrefix(value)
		return err == nil
	}
	_, err := netip.ParseAddr(value)
	return err == nil
}

func redactURL(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func (cfg *Config) GracefulShutdown(ctx context.Context) {
	cfg.Client.GracefulShutdown(ctx, cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
