package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "eventboard.yaml"

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if p := os.Getenv("EVENTBOARD_CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "EVENTBOARD_PORT")
	setString(&cfg.Server.CORSOrigin, "EVENTBOARD_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "EVENTBOARD_REQUEST_TIMEOUT")

	setString(&cfg.Store.Driver, "EVENTBOARD_STORE")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "EVENTBOARD_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "EVENTBOARD_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "EVENTBOARD_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "EVENTBOARD_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "EVENTBOARD_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.Logging.Level, "EVENTBOARD_LOG_LEVEL")
	setString(&cfg.Logging.Service, "EVENTBOARD_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "EVENTBOARD_LOG_ASYNC")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "EVENTBOARD_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Cache.L1TTL, "EVENTBOARD_CACHE_L1_TTL")
	setString(&cfg.Cache.L2Bucket, "EVENTBOARD_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "EVENTBOARD_CACHE_L2_TTL")

	// Notify
	setInt(&cfg.Notify.Buffer, "EVENTBOARD_NOTIFY_BUFFER")
	setDuration(&cfg.Notify.Heartbeat, "EVENTBOARD_NOTIFY_HEARTBEAT")
	setDuration(&cfg.Notify.MaxLifetime, "EVENTBOARD_NOTIFY_MAX_LIFETIME")

	setInt(&cfg.Breaker.MaxFailures, "EVENTBOARD_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "EVENTBOARD_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "EVENTBOARD_RATE_RPS")
	setInt(&cfg.Rate.Burst, "EVENTBOARD_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "EVENTBOARD_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "EVENTBOARD_RATE_MAX_IDLE_TIME")

	// Idempotency
	setString(&cfg.Idempotency.Bucket, "EVENTBOARD_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "EVENTBOARD_IDEMPOTENCY_TTL")

	// OpenTelemetry
	setBool(&cfg.OTEL.Enabled, "EVENTBOARD_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "EVENTBOARD_OTEL_INSECURE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Store.Driver {
	case DriverPostgres:
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("store.driver %q is not supported", cfg.Store.Driver)
	}
	if cfg.Notify.Buffer < 1 {
		return errors.New("notify.buffer must be >= 1")
	}
	if cfg.Notify.Heartbeat < 0 || cfg.Notify.MaxLifetime < 0 {
		return errors.New("notify durations must not be negative")
	}
	if cfg.Cache.L1MaxSizeMB < 1 {
		return errors.New("cache.l1_max_size_mb must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Rate.RequestsPerSecond <= 0 {
		return errors.New("rate.requests_per_second must be > 0")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
