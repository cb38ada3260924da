package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "canteen", cfg.DBName)
	assert.Equal(t, 2, cfg.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.LockoutWindow)
	assert.Equal(t, 300*time.Second, cfg.CancelWindow)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "5")
	t.Setenv("LOCKOUT_WINDOW_MINUTES", "30")
	t.Setenv("CANCEL_WINDOW_SECONDS", "60")

	cfg := Load()

	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 30*time.Minute, cfg.LockoutWindow)
	assert.Equal(t, 60*time.Second, cfg.CancelWindow)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: "5433", DBUser: "u",
		DBPassword: "p", DBName: "canteen", DBSSLMode: "disable",
	}
	assert.Equal(t,
		"host=db user=u password=p dbname=canteen port=5433 sslmode=disable TimeZone=UTC",
		cfg.DSN())
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("MAX_LOGIN_ATTEMPTS", "two")
	cfg := Load()
	assert.Equal(t, 2, cfg.MaxLoginAttempts)
}
