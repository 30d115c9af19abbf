// Package config reads the process configuration from the environment
// (optionally seeded from a .env file) and builds the shared logger.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

type Config struct {
	DSN         string
	StoreDriver string
	HTTPAddr    string
	JWTSecret   string
	CORSOrigin  string
	LogLevel    string
	LogFormat   string
	// PublicRate is requests/second per client on the public forms.
	PublicRate  float64
	PublicBurst int
	Migrate     bool
}

// Defaults returns a Config with every optional value filled in.
func Defaults() Config {
	return Config{
		StoreDriver: DriverMySQL,
		HTTPAddr:    ":8080",
		CORSOrigin:  "http://localhost:5173",
		LogLevel:    "info",
		LogFormat:   "text",
		PublicRate:  2,
		PublicBurst: 5,
	}
}

// Load reads .env (if present) and then the environment. dotenv reports
// whether a .env file was found.
func Load() (cfg Config, dotenv bool, err error) {
	dotenv = godotenv.Load() == nil
	cfg, err = FromEnv()
	return cfg, dotenv, err
}

// FromEnv builds a Config from the current environment.
func FromEnv() (Config, error) {
	cfg := Defaults()

	cfg.DSN = os.Getenv("DB_DSN_PRIMARY")
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.StoreDriver = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		cfg.CORSOrigin = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := os.Getenv("PUBLIC_RATE_LIMIT"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			return cfg, fmt.Errorf("invalid PUBLIC_RATE_LIMIT %q", v)
		}
		cfg.PublicRate = r
	}
	if v := os.Getenv("PUBLIC_RATE_BURST"); v != "" {
		b, err := strconv.Atoi(v)
		if err != nil || b <= 0 {
			return cfg, fmt.Errorf("invalid PUBLIC_RATE_BURST %q", v)
		}
		cfg.PublicBurst = b
	}
	if v := os.Getenv("DB_MIGRATE"); v != "" {
		m, err := parseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid DB_MIGRATE %q: %w", v, err)
		}
		cfg.Migrate = m
	}

	return cfg, cfg.Validate()
}

// Validate fails fast on settings the server cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	switch c.StoreDriver {
	case DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

// NewLogger builds the process logger from c.
func NewLogger(c Config) *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// parseBool accepts "true", "1", "yes", "on" and their negatives.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value %q", value)
}
