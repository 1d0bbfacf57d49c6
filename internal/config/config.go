package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Lookup backends.
const (
	BackendNone  = "none"
	BackendSQL   = "sql"
	BackendRedis = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	RequestTimeout  time.Duration // per request, proxied calls included
	ShutdownTimeout time.Duration // ex: 10s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// KIE server
	ServerRepo              string // directory holding the server state file
	ServerID                string // server id, names the default state file
	StateFile               string // optional, defaults to <repo>/<id>.xml
	ContainerDeployment     string // alias=group:artifact:version|...
	ContainerDeploymentFile string // optional yaml mapping file, merged after ContainerDeployment
	RedirectEnabled         bool   // false => alias is the deployment id, one release per alias
	UpstreamURL             string // KIE server the rewritten requests are proxied to
	RestBase                string // REST context stripped before template matching

	// Conversations
	ConversationHeader    string // request header carrying the conversation id
	ConversationSupported bool   // false => conversation ids are ignored
	ConversationGuard     string // "alias-or-config" | "alias"

	// Instance lookup
	LookupBackend      string        // "none" | "sql" | "redis"
	DatabaseURL        string        // postgres://, mysql://, sqlite3:// (sql backend, lookup sync source)
	LookupSyncInterval time.Duration // >0 with the redis backend and a DatabaseURL mirrors SQL owners into redis
	LookupTTL          time.Duration // expiry of mirrored owners, 0 = no expiry

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Message relay, enabled when StreamIn is set
	StreamIn         string
	StreamOut        string
	StreamDeadLetter string // optional
	StreamGroup      string
	StreamConsumer   string
	StreamBlock      time.Duration
	StreamClaimIdle  time.Duration // claim other consumers' pending entries idle this long
	StreamRecover    time.Duration // retry interval for unacknowledged entries

	AllowedHosts []string // optional, restrict admin routes to specific Host headers
	AllowedCIDRS []string // optional, restrict admin routes to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      normalizePort(getenv("LISTEN_PORT", "8080")),
		RequestTimeout:  mustDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: mustDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("LOG_LEVEL", "info"),
		PrettyLog: mustBool("PRETTY_LOG", false),

		// KIE server
		ServerRepo:              getenv("KIE_SERVER_REPO", "."),
		ServerID:                getenv("KIE_SERVER_ID", "kieserver"),
		StateFile:               getenv("KIE_SERVER_STATE_FILE", ""),
		ContainerDeployment:     getenv("KIE_CONTAINER_DEPLOYMENT", ""),
		ContainerDeploymentFile: getenv("KIE_CONTAINER_DEPLOYMENT_FILE", ""),
		RedirectEnabled:         mustBool("KIE_CONTAINER_REDIRECT_ENABLED", true),
		UpstreamURL:             requireEnv("KIE_SERVER_UPSTREAM_URL"),
		RestBase:                normalizeBase(getenv("KIE_SERVER_REST_BASE", "/services/rest/server")),

		// Conversations
		ConversationHeader:    getenv("KIE_CONVERSATION_ID_HEADER", "X-KIE-ConversationId"),
		ConversationSupported: mustBool("KIE_CONVERSATION_ID_SUPPORTED", true),
		ConversationGuard:     getenv("KIE_REDIRECT_CONVERSATION_GUARD", "alias-or-config"),

		// Instance lookup
		LookupBackend:      strings.ToLower(getenv("KIE_REDIRECT_LOOKUP_BACKEND", BackendNone)),
		DatabaseURL:        getenv("KIE_REDIRECT_DATABASE_URL", ""),
		LookupSyncInterval: mustDuration("KIE_REDIRECT_LOOKUP_SYNC_INTERVAL", 0),
		LookupTTL:          mustDuration("KIE_REDIRECT_LOOKUP_TTL", 0),

		// Redis settings
		RedisAddr:             getenv("REDIS_ADDR", ""),
		RedisUser:             getenv("REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Message relay
		StreamIn:         getenv("KIE_REDIRECT_STREAM_IN", ""),
		StreamOut:        getenv("KIE_REDIRECT_STREAM_OUT", ""),
		StreamDeadLetter: getenv("KIE_REDIRECT_STREAM_DEAD_LETTER", ""),
		StreamGroup:      getenv("KIE_REDIRECT_STREAM_GROUP", "kie-redirect"),
		StreamConsumer:   getenv("KIE_REDIRECT_STREAM_CONSUMER", hostname()),
		StreamBlock:      mustDuration("KIE_REDIRECT_STREAM_BLOCK", 5*time.Second),
		StreamClaimIdle:  mustDuration("KIE_REDIRECT_STREAM_CLAIM_IDLE", time.Minute),
		StreamRecover:    mustDuration("KIE_REDIRECT_STREAM_RECOVER_INTERVAL", 30*time.Second),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("TRUST_PROXY_HEADERS", false),
	}

	cfg.validate()

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.DatabaseURL != "" {
			cfgCopy.DatabaseURL = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func (c *Config) validate() {
	switch c.LookupBackend {
	case BackendNone, BackendRedis:
	case BackendSQL:
		if c.DatabaseURL == "" {
			panic("❌ FATAL: KIE_REDIRECT_DATABASE_URL is required when KIE_REDIRECT_LOOKUP_BACKEND=sql")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: Invalid KIE_REDIRECT_LOOKUP_BACKEND %q (want none, sql or redis)", c.LookupBackend))
	}

	if c.RedisRequired() && c.RedisAddr == "" {
		panic("❌ FATAL: REDIS_ADDR is required by the redis lookup backend and the message relay")
	}
	if c.RelayEnabled() && c.StreamOut == "" {
		panic("❌ FATAL: KIE_REDIRECT_STREAM_OUT is required when KIE_REDIRECT_STREAM_IN is set")
	}

	// Validate Redis password configuration
	if c.RedisRequired() && c.RedisPasswordRequired && c.RedisPassword == "" {
		panic("❌ FATAL: REDIS_PASSWORD is required when REDIS_PASSWORD_REQUIRED=true")
	}
}

// RedisRequired reports whether any component needs a Redis connection.
func (c *Config) RedisRequired() bool {
	return c.LookupBackend == BackendRedis || c.RelayEnabled()
}

func (c *Config) RelayEnabled() bool { return c.StreamIn != "" }

// LookupSyncEnabled reports whether SQL owners are mirrored into redis periodically.
func (c *Config) LookupSyncEnabled() bool {
	return c.LookupBackend == BackendRedis && c.DatabaseURL != "" && c.LookupSyncInterval > 0
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

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
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

// normalizePort accepts "8080" or ":8080".
func normalizePort(p string) string {
	p = strings.TrimSpace(p)
	if strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

// normalizeBase returns "/a/b" for "a/b/", and "" for "/".
func normalizeBase(b string) string {
	b = strings.Trim(strings.TrimSpace(b), "/")
	if b == "" {
		return ""
	}
	return "/" + b
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "kie-redirect"
	}
	return h
}
