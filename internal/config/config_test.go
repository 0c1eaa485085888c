package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	for _, k := range []string{
		"DB_DRIVER", "MYSQL_DSN", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"NATS_URL", "HTTP_PORT", "JWT_TTL", "REDIS_DB",
	} {
		t.Setenv(k, "")
	}

	cfg := New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "root:root@tcp(localhost:3306)/match_log?parseTime=true&charset=utf8mb4&loc=UTC", cfg.DB.DSN)
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 14*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestNew_Postgres(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "league")

	cfg := New()

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "host=db")
	assert.Contains(t, cfg.DB.DSN, "dbname=league")
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/league.db")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_SOURCE", "yes")

	cfg := New()

	assert.Equal(t, "/tmp/league.db", cfg.DB.DSN)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.Log.Source)
}

func TestNew_BadTTLKeepsDefault(t *testing.T) {
	t.Setenv("JWT_TTL", "soon")
	assert.Equal(t, 14*24*time.Hour, New().Auth.TokenTTL)
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		assert.True(t, isTruthy(v), v)
	}
	for _, v := range []string{"", "0", "off", "nope"} {
		assert.False(t, isTruthy(v), v)
	}
}
