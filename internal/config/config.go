package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress        string
	LogLevel          string
	DatabaseURI       string
	JWTSecret         string
	TokenTTL          time.Duration
	AdminLogins       []string
	AdminSecret       string
	LockTimeout       time.Duration
	ShutdownTimeout   time.Duration
	ReconcileInterval time.Duration
	WorkerPoolSize    int
	ReconcileBatch    int
	ExpiryHorizon     time.Duration
}

const (
	defaultRunAddress        = ":8080"
	defaultLogLevel          = "info"
	defaultJWTSecret         = "change-me-in-production"
	defaultEnvFile           = ".env"
	defaultTokenTTL          = 24 * time.Hour
	defaultLockTimeout       = 5 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultReconcileInterval = time.Minute
	defaultWorkerPoolSize    = 4
	defaultReconcileBatch    = 100
	defaultExpiryHorizon     = 72 * time.Hour
)

// Load parses configuration from flags, environment variables and an optional .env file.
func Load() (*Config, error) {
	envFile := defaultEnvFile
	if v, ok := os.LookupEnv("ENV_FILE"); ok && v != "" {
		envFile = v
	}
	lookup, err := withDotenv(envFile, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	return load(os.Args[1:], lookup)
}

type envLookup func(string) (string, bool)

// withDotenv layers values from path under base. A missing file is not an error.
func withDotenv(path string, base envLookup) (envLookup, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return base, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return func(key string) (string, bool) {
		if v, ok := base(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:        getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		LogLevel:          getString(lookup, "LOG_LEVEL", defaultLogLevel),
		DatabaseURI:       getString(lookup, "DATABASE_URI", ""),
		JWTSecret:         getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:          getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		AdminSecret:       getString(lookup, "ADMIN_SECRET", ""),
		LockTimeout:       getDuration(lookup, "LOCK_TIMEOUT", defaultLockTimeout),
		ShutdownTimeout:   getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		ReconcileInterval: getDuration(lookup, "RECONCILE_INTERVAL", defaultReconcileInterval),
		WorkerPoolSize:    getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ReconcileBatch:    getInt(lookup, "RECONCILE_BATCH_SIZE", defaultReconcileBatch),
		ExpiryHorizon:     getDuration(lookup, "EXPIRY_HORIZON", defaultExpiryHorizon),
	}

	fs := flag.NewFlagSet("creditledger", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		admins               = getString(lookup, "ADMIN_LOGINS", "")
		tokenTTLStr          = cfg.TokenTTL.String()
		lockTimeoutStr       = cfg.LockTimeout.String()
		shutdownTimeoutStr   = cfg.ShutdownTimeout.String()
		reconcileIntervalStr = cfg.ReconcileInterval.String()
		expiryHorizonStr     = cfg.ExpiryHorizon.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Minimum log level: debug, info, warn or error")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&tokenTTLStr, "token-ttl", tokenTTLStr, "Lifetime of issued auth tokens")
	fs.StringVar(&admins, "admins", admins, "Comma separated logins registered as administrators")
	fs.StringVar(&cfg.AdminSecret, "admin-secret", cfg.AdminSecret, "Bootstrap secret required to register an administrator login")
	fs.StringVar(&lockTimeoutStr, "lock-timeout", lockTimeoutStr, "Maximum wait for a credit account lock")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&reconcileIntervalStr, "reconcile-interval", reconcileIntervalStr, "Interval between reconcile passes")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconcile workers")
	fs.IntVar(&cfg.ReconcileBatch, "reconcile-batch", cfg.ReconcileBatch, "Accounts fetched per reconcile batch")
	fs.StringVar(&expiryHorizonStr, "expiry-horizon", expiryHorizonStr, "Window for reporting soon-to-expire credit")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.TokenTTL, err = time.ParseDuration(tokenTTLStr); err != nil {
		return nil, fmt.Errorf("invalid token ttl: %w", err)
	}

	if cfg.LockTimeout, err = time.ParseDuration(lockTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid lock timeout: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.ReconcileInterval, err = time.ParseDuration(reconcileIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid reconcile interval: %w", err)
	}

	if cfg.ExpiryHorizon, err = time.ParseDuration(expiryHorizonStr); err != nil {
		return nil, fmt.Errorf("invalid expiry horizon: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	cfg.AdminLogins = splitList(admins)

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = defaultLockTimeout
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = defaultReconcileInterval
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.ReconcileBatch <= 0 {
		cfg.ReconcileBatch = defaultReconcileBatch
	}

	if cfg.ExpiryHorizon <= 0 {
		cfg.ExpiryHorizon = defaultExpiryHorizon
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

// IsAdminLogin reports whether login is configured as administrator.
func (c *Config) IsAdminLogin(login string) bool {
	for _, l := range c.AdminLogins {
		if l == login {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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
