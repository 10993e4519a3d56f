package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StoreBackend string // file | sqlite | redis | memory
	DataDir      string // directory for the file backend (and default sqlite path)
	SQLitePath   string // sqlite database file
	StoragesFile string // optional YAML file of storages imported at startup

	RefreshInterval time.Duration // refetch the current url this often while serving, 0 disables

	// Redis (only when StoreBackend == "redis")
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisKeyPrefix      string        // ex: "jsv:"
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // initial wait between retries (grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// HTTP API access
	AllowedHosts    []string // optional, restrict access to specific Host headers
	AllowedCIDRS    []string // optional, restrict access to specific IPs/CIDRs
	TrustProxy      bool     // true => trust X-Forwarded-For headers
	CORSOrigins     []string // allowed browser origins, "*" for any
	RateLimitBurst  int      // requests a client may burst against remote-calling routes
	RateLimitPerMin int      // refill rate of the above
}

func Load() *Config {
	dataDir := getenv("JSV_DATA_DIR", "./data")

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("JSV_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("JSV_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("JSV_LOG_LEVEL", "info"),
		PrettyLog: mustBool("JSV_PRETTY_LOG", true),

		// Persistence
		StoreBackend: strings.ToLower(getenv("JSV_STORE_BACKEND", BackendFile)),
		DataDir:      dataDir,
		SQLitePath:   getenv("JSV_SQLITE_PATH", filepath.Join(dataDir, "jsonviewer.db")),
		StoragesFile: getenv("JSV_STORAGES_FILE", ""),

		RefreshInterval: mustDuration("JSV_REFRESH_INTERVAL", 0),

		// Redis settings
		RedisUser:           getenv("JSV_REDIS_USERNAME", ""),
		RedisPassword:       getenv("JSV_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("JSV_REDIS_DB", 0),
		RedisKeyPrefix:      getenv("JSV_REDIS_KEY_PREFIX", "jsv:"),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:    splitAndTrim(getenv("JSV_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    splitAndTrim(getenv("JSV_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("JSV_TRUST_PROXY", false),
		CORSOrigins:     splitAndTrim(getenv("JSV_CORS_ORIGINS", "*")),
		RateLimitBurst:  getenvInt("JSV_RATE_LIMIT_BURST", 20),
		RateLimitPerMin: getenvInt("JSV_RATE_LIMIT_PER_MIN", 120),
	}

	switch cfg.StoreBackend {
	case BackendFile, BackendSQLite, BackendMemory:
	case BackendRedis:
		cfg.RedisAddr = requireEnv("JSV_REDIS_ADDR")
	default:
		panic(fmt.Sprintf("❌ FATAL: unknown JSV_STORE_BACKEND %q (want file, sqlite, redis or memory)", cfg.StoreBackend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
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
