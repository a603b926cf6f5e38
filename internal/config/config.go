package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=hotel_supply port=5432 sslmode=disable"

type Config struct {
	HTTPPort      string
	DBDriver      string // postgres, mysql, sqlite
	DatabaseDSN   string
	SlowQuery     time.Duration
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   string
	BalanceCache  bool
	CascadeAtomic bool // false: best-effort cascade writes with degraded results
}

func Load() *Config {
	cfg := FromEnv(os.Getenv)

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.DBDriver == "postgres" && cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN is the local default, set your own Postgres connection for production")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS is the local default")
	}
	if !cfg.CascadeAtomic {
		log.Println("[WARN] CASCADE_MODE=best_effort, bundle writes may partially cascade; run reconcile")
	}

	return cfg
}

// FromEnv builds the config from a lookup function, without validation.
func FromEnv(getenv func(string) string) *Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	driver := strings.ToLower(get("DB_DRIVER", "postgres"))
	dsn := defaultDSN
	if driver == "sqlite" {
		dsn = "hotel-supply.db"
	}

	slowMS, err := strconv.Atoi(get("DB_SLOW_QUERY_MS", "200"))
	if err != nil || slowMS <= 0 {
		slowMS = 200
	}

	ttlHours, err := strconv.Atoi(get("JWT_TTL_HOURS", "12"))
	if err != nil || ttlHours <= 0 {
		ttlHours = 12
	}

	return &Config{
		HTTPPort:      get("HTTP_PORT", "8080"),
		DBDriver:      driver,
		DatabaseDSN:   get("DATABASE_DSN", dsn),
		SlowQuery:     time.Duration(slowMS) * time.Millisecond,
		JWTSecret:     get("JWT_SECRET", ""),
		TokenTTL:      time.Duration(ttlHours) * time.Hour,
		CORSOrigins:   get("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		BalanceCache:  parseBool(get("BALANCE_CACHE", "true"), true),
		CascadeAtomic: get("CASCADE_MODE", "atomic") != "best_effort",
	}
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}
