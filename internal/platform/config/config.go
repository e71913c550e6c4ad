package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	LogLevel       string
	LogFormat      string
	StrictStatuses bool
	RoutesFile     string
	Postgres       PostgresConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	RateLimit      RateLimitConfig
}

// PostgresConfig configures the file and route stores. An empty URL selects
// in-memory stores.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the route cache. An empty URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RouteTTL     time.Duration
}

// KafkaConfig configures the file journal. No brokers selects the in-memory journal.
type KafkaConfig struct {
	Brokers      []string
	JournalTopic string
	Partitions   int32
	Replication  int16
}

// RateLimitConfig bounds requests per client on the public citizen endpoints.
type RateLimitConfig struct {
	Disabled bool
	Requests int
	Window   time.Duration
}

// DefaultRouteCacheTTL bounds how stale a cached route may be after a re-save
// on another instance.
var DefaultRouteCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present. Unparseable
// values fall back to their defaults; values out of range are errors.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	partitions, partitionsErr := getIntBits("KAFKA_JOURNAL_PARTITIONS", 6, 32)
	replication, replicationErr := getIntBits("KAFKA_JOURNAL_REPLICATION", 1, 16)

	cfg := Server{
		Addr:           getString("FILETRACK_ADDR", ":8080"),
		LogLevel:       getString("LOG_LEVEL", "info"),
		LogFormat:      getString("LOG_FORMAT", "json"),
		StrictStatuses: getBool("STRICT_STATUSES", true),
		RoutesFile:     os.Getenv("ROUTES_FILE"),
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			RouteTTL:     getDuration("ROUTE_CACHE_TTL", DefaultRouteCacheTTL),
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(os.Getenv("KAFKA_BROKERS")),
			JournalTopic: getString("KAFKA_JOURNAL_TOPIC", "file-journal"),
			Partitions:   int32(partitions),
			Replication:  int16(replication),
		},
		RateLimit: RateLimitConfig{
			Disabled: getBool("RATE_LIMIT_DISABLED", false),
			Requests: getInt("RATE_LIMIT_REQUESTS", 60),
			Window:   getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
	if err := errors.Join(partitionsErr, replicationErr, cfg.Validate()); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate reports every setting that cannot be wired. Kafka sizes accept -1 for
// the broker default.
func (s Server) Validate() error {
	var errs []error
	if !s.RateLimit.Disabled {
		if s.RateLimit.Requests <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", s.RateLimit.Requests))
		}
		if s.RateLimit.Window <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", s.RateLimit.Window))
		}
	}
	if s.Kafka.Partitions == 0 || s.Kafka.Partitions < -1 {
		errs = append(errs, fmt.Errorf("KAFKA_JOURNAL_PARTITIONS must be positive or -1, got %d", s.Kafka.Partitions))
	}
	if s.Kafka.Replication == 0 || s.Kafka.Replication < -1 {
		errs = append(errs, fmt.Errorf("KAFKA_JOURNAL_REPLICATION must be positive or -1, got %d", s.Kafka.Replication))
	}
	return errors.Join(errs...)
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

// getIntBits parses an integer that must fit in bitSize bits.
func getIntBits(key string, fallback int64, bitSize int) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	v, err := strconv.ParseInt(raw, 10, bitSize)
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%s=%s does not fit in %d bits", key, raw, bitSize)
	}
	if err != nil {
		return fallback, nil
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
