package main

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard/api"
)

const (
	defaultDatabasePath = "taskboard.db"
	defaultCacheTTL     = 5 * time.Minute
	defaultDeduperTTL   = 24 * time.Hour
	defaultPort         = "8080"
)

type config struct {
	DatabasePath string
	Redis        *redis.Options
	CacheTTL     time.Duration
	DeduperTTL   time.Duration

	AuthDomain   string
	AuthAudience string
	SharedSecret []byte
	JWKSCacheTTL time.Duration

	CORSOrigins []string
	ListenAddr  string
	LogLevel    log.Level
	LogJSON     bool
}

// loadConfig reads the gateway settings through getenv.
func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		DatabasePath: defaultDatabasePath,
		CacheTTL:     defaultCacheTTL,
		DeduperTTL:   defaultDeduperTTL,
		JWKSCacheTTL: api.DefaultJWKSCacheTTL,
		CORSOrigins:  []string{"*"},
		ListenAddr:   ":" + defaultPort,
		LogLevel:     log.InfoLevel,
	}

	if v := getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := getenv("REDIS_CONNECTION_STRING"); v != "" {
		cfg.Redis = parseRedisOptions(v)
	}

	var err error
	if cfg.CacheTTL, err = durationEnv(getenv, "PROJECT_CACHE_TTL", cfg.CacheTTL); err != nil {
		return config{}, err
	}
	if cfg.DeduperTTL, err = durationEnv(getenv, "DEDUPER_TTL", cfg.DeduperTTL); err != nil {
		return config{}, err
	}
	if cfg.JWKSCacheTTL, err = durationEnv(getenv, "JWKS_CACHE_TTL", cfg.JWKSCacheTTL); err != nil {
		return config{}, err
	}

	switch mode := strings.ToLower(getenv("LOCAL_AUTH_MODE")); mode {
	case "":
		cfg.AuthDomain = getenv("AUTH0_DOMAIN")
		cfg.AuthAudience = getenv("AUTH0_AUDIENCE")
		if cfg.AuthDomain == "" || cfg.AuthAudience == "" {
			return config{}, errors.New("missing Auth0 config")
		}
	case "hs256":
		secret := getenv("LOCAL_AUTH_SHARED_SECRET")
		if secret == "" {
			return config{}, errors.New("LOCAL_AUTH_SHARED_SECRET is required when LOCAL_AUTH_MODE=hs256")
		}
		cfg.SharedSecret = []byte(secret)
		cfg.AuthAudience = getenv("AUTH0_AUDIENCE")
	default:
		return config{}, fmt.Errorf("invalid LOCAL_AUTH_MODE %q", mode)
	}

	if v := getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	if v := getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return config{}, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.ListenAddr = ":" + v
	}

	if dbg, err := strconv.ParseBool(getenv("DEBUG")); err == nil && dbg {
		cfg.LogLevel = log.DebugLevel
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		lvl, err := log.ParseLevel(v)
		if err != nil {
			return config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}
	cfg.LogJSON = strings.EqualFold(getenv("LOG_FORMAT"), "json")
	return cfg, nil
}

func durationEnv(getenv func(string) string, name string, def time.Duration) (time.Duration, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", name)
	}
	return d, nil
}

// parseRedisOptions accepts a redis:// URL or the StackExchange style
// "host:port,password=...,ssl=True" form.
func parseRedisOptions(conn string) *redis.Options {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

func (c config) newLogger() *log.Logger {
	logger := log.New()
	logger.SetLevel(c.LogLevel)
	if c.LogJSON {
		logger.SetFormatter(&log.JSONFormatter{})
	}
	return logger
}
