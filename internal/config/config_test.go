package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmerrifield20/listingledger/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Log:    LogConfig{Level: "info"},
		Clock:  ClockConfig{Timezone: "UTC"},
		Server: ServerConfig{Port: 8080, MaxBodyBytes: 1 << 20, RateLimitRPS: 20, VerifyCacheMB: 1},
		Audit:  AuditConfig{Interval: 5 * time.Minute},
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listingledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestValidate_validConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_invalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Log.Level = "verbose"
	assert.Error(t, c.Validate())
}

func TestValidate_zeroPort(t *testing.T) {
	c := validConfig()
	c.Server.Port = 0
	assert.Error(t, c.Validate())
}

func TestValidate_unknownTimezone(t *testing.T) {
	c := validConfig()
	c.Clock.Timezone = "Mars/Olympus_Mons"
	assert.Error(t, c.Validate())
}

func TestValidate_badFixedDate(t *testing.T) {
	c := validConfig()
	c.Clock.FixedDate = "21/03/2025"
	assert.Error(t, c.Validate())
}

func TestValidate_negativeAuditInterval(t *testing.T) {
	c := validConfig()
	c.Audit.Interval = -time.Second
	assert.Error(t, c.Validate())
}

func TestLoad_file(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
clock:
  timezone: UTC
  fixed_date: "2025-03-22"
server:
  port: 9090
audit:
  interval: 30s
`)
	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", conf.Log.Level)
	assert.Equal(t, 9090, conf.Server.Port)
	assert.Equal(t, 30*time.Second, conf.Audit.Interval)
	assert.Equal(t, int64(1<<20), conf.Server.MaxBodyBytes)
	assert.True(t, conf.Metrics.Enabled)
	assert.Equal(t, path, conf.File)
	assert.Equal(t, chain.FixedClock("2025-03-22"), conf.NewClock())
}

func TestLoad_envOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("LISTINGLEDGER_SERVER_PORT", "7070")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, conf.Server.Port)
}

func TestLoad_missingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_invalidValues(t *testing.T) {
	path := writeConfig(t, "log:\n  level: loud\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_defaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", conf.Log.Level)
	assert.Equal(t, 8080, conf.Server.Port)
	assert.Equal(t, 5*time.Minute, conf.Audit.Interval)
	assert.Empty(t, conf.File)
	assert.IsType(t, chain.SystemClock{}, conf.NewClock())
}
