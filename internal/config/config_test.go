package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DB_DSN_PRIMARY", "STORE_DRIVER", "HTTP_ADDR", "JWT_SECRET", "CORS_ORIGIN",
		"LOG_LEVEL", "LOG_FORMAT", "PUBLIC_RATE_LIMIT", "PUBLIC_RATE_BURST", "DB_MIGRATE",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, cfg.StoreDriver)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "http://localhost:5173", cfg.CORSOrigin)
	assert.Equal(t, 2.0, cfg.PublicRate)
	assert.Equal(t, 5, cfg.PublicBurst)
	assert.False(t, cfg.Migrate)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PUBLIC_RATE_LIMIT", "0.5")
	t.Setenv("DB_MIGRATE", "yes")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 0.5, cfg.PublicRate)
	assert.True(t, cfg.Migrate)

	log := NewLogger(cfg)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {},
		"bad driver":     {"JWT_SECRET": "x", "STORE_DRIVER": "postgres"},
		"bad rate":       {"JWT_SECRET": "x", "PUBLIC_RATE_LIMIT": "fast"},
		"bad migrate":    {"JWT_SECRET": "x", "DB_MIGRATE": "maybe"},
		"bad level":      {"JWT_SECRET": "x", "LOG_LEVEL": "loud"},
		"bad format":     {"JWT_SECRET": "x", "LOG_FORMAT": "xml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
