package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	CustomersFile     string        // path to customers.yaml (customers, jobs, feeds)
	OnlyCustomers     []string      // optional, harvest only these customers (ex: "EGI, EOSC")
	WatchCustomers    bool          // reload on customers.yaml changes
	StateDir          string        // per customer/job state markers and run locks
	OutputDir         string        // default base dir for avro files when a customer has none
	RunInterval       time.Duration // interval between harvest passes in serve mode (default: 1h)
	GCInterval        time.Duration // interval to drop stale snapshots (default: 24h)
	SnapshotRetention time.Duration // snapshots older than this are collected (default: 7d)
	ReloadToken       string        // bearer token for POST /reload, empty => reload endpoint disabled
	AllowedCIDRS      []string      // IPs/CIDRs allowed on the ops endpoints, empty => everyone
	TrustProxy        bool          // true if running behind a trusted reverse proxy

	// Upstream connections
	ConnTimeout        time.Duration // per request timeout
	ConnRetry          int           // attempts per request
	ConnSleepRetry     time.Duration // initial wait between attempts
	ConnRetryRandom    bool          // add random jitter between attempts
	ConnSleepRandomMax time.Duration // max jitter (used when ConnRetryRandom)

	// Publishing
	PublishWebAPI bool
	WriteAvro     bool
	PublishRedis  bool
	PublishNATS   bool
	WebAPIHost    string // default webapi host, customers may override
	WebAPIToken   string // default webapi token, customers may override

	// Redis (only required when PublishRedis)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisSnapshotTTL    time.Duration // TTL of published snapshots

	// NATS (only required when PublishNATS)
	NATSURL           string // ex: "nats://localhost:4222"
	NATSSubjectPrefix string // subjects are <prefix>.<customer>.<job>.<kind>
}

// env reads settings from the environment and collects every problem
// instead of stopping at the first one.
type env struct {
	errs []error
}

func Load() (*Config, error) {
	e := &env{}

	cfg := &Config{
		// Server settings
		ListenPort:      e.getenv("CONNECTORS_LISTEN_PORT", ":8080"),
		ShutdownTimeout: e.duration("CONNECTORS_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  e.getenv("CONNECTORS_LOG_LEVEL", "info"),
		PrettyLog: e.boolean("CONNECTORS_PRETTY_LOG", false),

		// Customers and scheduling
		CustomersFile:     e.getenv("CONNECTORS_CUSTOMERS_FILE", "/etc/argo-connectors/customers.yaml"),
		OnlyCustomers:     splitAndTrim(e.getenv("CONNECTORS_ONLY_CUSTOMERS", "")),
		WatchCustomers:    e.boolean("CONNECTORS_WATCH_CUSTOMERS", true),
		StateDir:          e.getenv("CONNECTORS_STATE_DIR", filepath.Join(xdg.StateHome, "argo-connectors")),
		OutputDir:         e.getenv("CONNECTORS_OUTPUT_DIR", filepath.Join(xdg.DataHome, "argo-connectors")),
		RunInterval:       e.duration("CONNECTORS_RUN_INTERVAL", time.Hour),
		GCInterval:        e.duration("CONNECTORS_GC_INTERVAL", 24*time.Hour),
		SnapshotRetention: e.duration("CONNECTORS_SNAPSHOT_RETENTION", 7*24*time.Hour),
		ReloadToken:       e.getenv("CONNECTORS_RELOAD_TOKEN", ""),
		AllowedCIDRS:      splitAndTrim(e.getenv("CONNECTORS_ALLOWED_CIDRS", "")),
		TrustProxy:        e.boolean("CONNECTORS_TRUST_PROXY", false),

		// Upstream connections
		ConnTimeout:        e.duration("CONNECTORS_CONNECTION_TIMEOUT", 180*time.Second),
		ConnRetry:          e.integer("CONNECTORS_CONNECTION_RETRY", 3),
		ConnSleepRetry:     e.duration("CONNECTORS_CONNECTION_SLEEP_RETRY", 60*time.Second),
		ConnRetryRandom:    e.boolean("CONNECTORS_CONNECTION_RETRY_RANDOM", true),
		ConnSleepRandomMax: e.duration("CONNECTORS_CONNECTION_SLEEP_RANDOM_MAX", 60*time.Second),

		// Publishing
		PublishWebAPI: e.boolean("CONNECTORS_PUBLISH_WEBAPI", true),
		WriteAvro:     e.boolean("CONNECTORS_WRITE_AVRO", false),
		PublishRedis:  e.boolean("CONNECTORS_PUBLISH_REDIS", false),
		PublishNATS:   e.boolean("CONNECTORS_PUBLISH_NATS", false),
		WebAPIHost:    e.getenv("CONNECTORS_WEBAPI_HOST", ""),
		WebAPIToken:   e.getenv("CONNECTORS_WEBAPI_TOKEN", ""),

		// Redis settings
		RedisAddr:           e.getenv("CONNECTORS_REDIS_ADDR", ""),
		RedisUser:           e.getenv("CONNECTORS_REDIS_USERNAME", "default"),
		RedisPassword:       e.getenv("CONNECTORS_REDIS_PASSWORD", ""),
		RedisDB:             e.integer("CONNECTORS_REDIS_DB", 0),
		RedisDT:             e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        e.duration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    e.duration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       e.integer("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: e.duration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  e.duration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisSnapshotTTL:    e.duration("REDIS_SNAPSHOT_TTL", 7*24*time.Hour),

		// NATS settings
		NATSURL:           e.getenv("CONNECTORS_NATS_URL", ""),
		NATSSubjectPrefix: e.getenv("CONNECTORS_NATS_SUBJECT_PREFIX", "argo.topology"),
	}

	cfg.validate(e)
	if len(e.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(e.errs...))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg, nil
}

func (c *Config) validate(e *env) {
	if c.ConnRetry < 1 {
		e.fail(fmt.Errorf("CONNECTORS_CONNECTION_RETRY must be >= 1, got %d", c.ConnRetry))
	}
	if c.RunInterval <= 0 {
		e.fail(fmt.Errorf("CONNECTORS_RUN_INTERVAL must be > 0, got %v", c.RunInterval))
	}
	if c.PublishRedis && c.RedisAddr == "" {
		e.fail(errors.New("CONNECTORS_REDIS_ADDR is required when CONNECTORS_PUBLISH_REDIS=true"))
	}
	if c.PublishNATS && c.NATSURL == "" {
		e.fail(errors.New("CONNECTORS_NATS_URL is required when CONNECTORS_PUBLISH_NATS=true"))
	}
}

// Redacted returns a copy that is safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	for _, s := range []*string{&cp.RedisPassword, &cp.WebAPIToken, &cp.ReloadToken} {
		if *s != "" {
			*s = "***REDACTED***"
		}
	}
	return cp
}

// helpers
func (e *env) fail(err error) {
	e.errs = append(e.errs, err)
}

func (e *env) getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (e *env) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.fail(fmt.Errorf("invalid integer value for %s: %q", key, v))
		return def
	}
	return i
}

func (e *env) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := ParseBool(v)
	if err != nil {
		e.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(fmt.Errorf("invalid duration value for %s: %q", key, v))
		return def
	}
	return d
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
