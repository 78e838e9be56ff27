package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"limito/pkg/client"
	"limito/pkg/logger"

	"github.com/joho/godotenv"
)

type RateLimit struct {
	Limit  int
	Window time.Duration
}

type Config struct {
	Port string

	PostgresDSN   string
	MigrationsDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	MirrorTopic  string

	ReservationTTL time.Duration
	CacheTTL       time.Duration

	WriteRate RateLimit
	ReadRate  RateLimit
	PromoRate RateLimit

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	if err := godotenv.Load(); err != nil {
		// No .env file is the normal case in deployment.
		fmt.Println("No .env file loaded, relying on environment")
	}

	cfg := &Config{
		Port: getEnvStr(EnvPort, DefaultPort),

		PostgresDSN:   getEnvStr(EnvPostgresDSN, DefaultPostgresDSN),
		MigrationsDir: getEnvStr(EnvMigrationsDir, DefaultMigrationsDir),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, 0),

		KafkaBrokers: getEnvList(EnvKafkaBrokers),
		MirrorTopic:  getEnvStr(EnvMirrorTopic, "limito.inventory-mirror"),

		ReservationTTL: getEnvDuration(EnvReservationTTL, DefaultReservationTTL),
		CacheTTL:       getEnvDuration(EnvCacheTTL, DefaultCacheTTL),

		WriteRate: RateLimit{
			Limit:  getEnvNum(EnvWriteRateLimit, DefaultWriteRateLimit),
			Window: getEnvDuration(EnvWriteRateWindow, DefaultWriteRateWindow),
		},
		ReadRate: RateLimit{
			Limit:  getEnvNum(EnvReadRateLimit, DefaultReadRateLimit),
			Window: getEnvDuration(EnvReadRateWindow, DefaultReadRateWindow),
		},
		PromoRate: RateLimit{
			Limit:  getEnvNum(EnvPromoRateLimit, DefaultPromoRateLimit),
			Window: getEnvDuration(EnvPromoRateWindow, DefaultPromoRateWindow),
		},

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetPostgres() {
	cfg.Client.SetPostgres(cfg.Log, cfg.PostgresDSN)
}

func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("Redis not configured, rate-limit buckets stay process-local")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.PostgresDSN == "" {
		errs = append(errs, "PostgresDSN cannot be empty")
	} else if !regexp.MustCompile(`^postgres(ql)?://`).MatchString(cfg.PostgresDSN) {
		errs = append(errs, fmt.Sprintf("PostgresDSN must start with 'postgres://', got: %s", redactDSN(cfg.PostgresDSN)))
	}

	if cfg.ReservationTTL <= 0 {
		errs = append(errs, fmt.Sprintf("ReservationTTL must be positive, got: %s", cfg.ReservationTTL))
	}
	if cfg.CacheTTL <= 0 {
		errs = append(errs, fmt.Sprintf("CacheTTL must be positive, got: %s", cfg.CacheTTL))
	}

	for _, rl := range []struct {
		name string
		rl   RateLimit
	}{
		{"WriteRate", cfg.WriteRate},
		{"ReadRate", cfg.ReadRate},
		{"PromoRate", cfg.PromoRate},
	} {
		if rl.rl.Limit <= 0 {
			errs = append(errs, fmt.Sprintf("%s limit must be positive, got: %d", rl.name, rl.rl.Limit))
		}
		if rl.rl.Window <= 0 {
			errs = append(errs, fmt.Sprintf("%s window must be positive, got: %s", rl.name, rl.rl.Window))
		}
	}

	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errs) > 0 {
		msg := "Configuration validation failed:\n"
		for i, e := range errs {
			msg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", msg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"postgres_dsn", redactDSN(cfg.PostgresDSN),
		"migrations_dir", cfg.MigrationsDir,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", strings.Join(cfg.KafkaBrokers, ","),
		"mirror_topic", cfg.MirrorTopic,
		"reservation_ttl", cfg.ReservationTTL,
		"cache_ttl", cfg.CacheTTL,
		"write_rate", fmt.Sprintf("%d/%s", cfg.WriteRate.Limit, cfg.WriteRate.Window),
		"read_rate", fmt.Sprintf("%d/%s", cfg.ReadRate.Limit, cfg.ReadRate.Window),
		"promo_rate", fmt.Sprintf("%d/%s", cfg.PromoRate.Limit, cfg.PromoRate.Window),
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactDSN(dsn string) string {
	credentialRegex := regexp.MustCompile(`(postgres(ql)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(dsn, "${1}***:***@")
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
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
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
