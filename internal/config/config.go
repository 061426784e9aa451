package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress          string
	DatabaseURI         string
	RedisAddress        string
	TelegramAPIBase     string
	TelegramToken       string
	AdminChatIDs        []int64
	AdminTokenHash      string
	TriggerPollInterval time.Duration
	WorkerPoolSize      int
	TriggerBatchSize    int
	SessionTTL          time.Duration
	ShutdownTimeout     time.Duration
}

const (
	defaultRunAddress          = ":8080"
	defaultRedisAddress        = "127.0.0.1:6379"
	defaultTelegramAPIBase     = "https://api.telegram.org"
	defaultTriggerPollInterval = 10 * time.Second
	defaultWorkerPoolSize      = 2
	defaultTriggerBatchSize    = 16
	defaultSessionTTL          = 30 * time.Minute
	defaultShutdownTimeout     = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:          getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:         getString(lookup, "DATABASE_URI", ""),
		RedisAddress:        getString(lookup, "REDIS_ADDRESS", defaultRedisAddress),
		TelegramAPIBase:     getString(lookup, "TELEGRAM_API_BASE", defaultTelegramAPIBase),
		TelegramToken:       getString(lookup, "TELEGRAM_TOKEN", ""),
		AdminTokenHash:      getString(lookup, "ADMIN_TOKEN_HASH", ""),
		TriggerPollInterval: getDuration(lookup, "TRIGGER_POLL_INTERVAL", defaultTriggerPollInterval),
		WorkerPoolSize:      getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		TriggerBatchSize:    getInt(lookup, "TRIGGER_BATCH_SIZE", defaultTriggerBatchSize),
		SessionTTL:          getDuration(lookup, "SESSION_TTL", defaultSessionTTL),
		ShutdownTimeout:     getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("reviewflow", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		adminChatIDsStr    = getString(lookup, "ADMIN_CHAT_IDS", "")
		pollIntervalStr    = cfg.TriggerPollInterval.String()
		sessionTTLStr      = cfg.SessionTTL.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for rating sessions")
	fs.StringVar(&cfg.TelegramAPIBase, "tg-api", cfg.TelegramAPIBase, "Telegram Bot API base URL")
	fs.StringVar(&cfg.TelegramToken, "tg-token", cfg.TelegramToken, "Telegram bot token")
	fs.StringVar(&adminChatIDsStr, "admins", adminChatIDsStr, "Comma-separated administrator chat ids")
	fs.StringVar(&cfg.AdminTokenHash, "admin-token-hash", cfg.AdminTokenHash, "Bcrypt hash of the internal API token")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent trigger workers")
	fs.IntVar(&cfg.TriggerBatchSize, "trigger-batch", cfg.TriggerBatchSize, "Maximum orders per trigger polling batch")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between trigger polls")
	fs.StringVar(&sessionTTLStr, "session-ttl", sessionTTLStr, "Rating session time to live")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.TriggerPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.SessionTTL, err = time.ParseDuration(sessionTTLStr); err != nil {
		return nil, fmt.Errorf("invalid session ttl: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.AdminChatIDs, err = parseChatIDs(adminChatIDsStr); err != nil {
		return nil, fmt.Errorf("invalid admin chat ids: %w", err)
	}

	if tokenFile, ok := lookup("TELEGRAM_TOKEN_FILE"); ok && tokenFile != "" {
		content, err := os.ReadFile(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("read telegram token file: %w", err)
		}
		cfg.TelegramToken = strings.TrimSpace(string(content))
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.TriggerBatchSize <= 0 {
		cfg.TriggerBatchSize = defaultTriggerBatchSize
	}

	if cfg.TriggerPollInterval <= 0 {
		cfg.TriggerPollInterval = defaultTriggerPollInterval
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("telegram token must be provided")
	}

	return cfg, nil
}

func parseChatIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse chat id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
