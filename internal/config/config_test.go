package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Equal(t, StoreSQLite, cfg.SessionStore)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"QUIZ_API_URL":       "https://quiz.example.com",
		"QUIZ_SESSION_STORE": "redis",
		"QUIZ_REDIS_DB":      "3",
		"QUIZ_HTTP_TIMEOUT":  "2s",
		"QUIZ_SEED":          "42",
		"QUIZ_SHARE_COMMAND": "wl-copy",
		"NO_COLOR":           "1",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://quiz.example.com", cfg.ServerURL)
	assert.Equal(t, StoreRedis, cfg.SessionStore)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "wl-copy", cfg.ShareCommand)
	assert.True(t, cfg.NoColor)
}

func TestFromEnvRejectsBadNumbers(t *testing.T) {
	for _, key := range []string{"QUIZ_REDIS_DB", "QUIZ_HTTP_TIMEOUT", "QUIZ_SEED"} {
		_, err := FromEnv(envMap(map[string]string{key: "nope"}))
		assert.ErrorContains(t, err, key)
	}
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("QUIZ_DOWNLOAD_DIR=/tmp/from-file\nQUIZ_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("QUIZ_LOG_LEVEL", "warn")
	// Registered with t.Setenv so the value written by Load is undone afterwards.
	t.Setenv("QUIZ_DOWNLOAD_DIR", "")
	require.NoError(t, os.Unsetenv("QUIZ_DOWNLOAD_DIR"))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-file", cfg.DownloadDir)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestBindFlagsOverrideEnv(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"QUIZ_API_URL": "http://env:8000"}))
	require.NoError(t, err)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--session-store=memory", "--timeout=3s"}))

	assert.Equal(t, "http://env:8000", cfg.ServerURL)
	assert.Equal(t, StoreMemory, cfg.SessionStore)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "relative url", mutate: func(c *Config) { c.ServerURL = "localhost:8000" }, want: "absolute http(s) URL"},
		{name: "unknown store", mutate: func(c *Config) { c.SessionStore = "etcd" }, want: `unknown session store "etcd"`},
		{name: "zero timeout", mutate: func(c *Config) { c.HTTPTimeout = 0 }, want: "timeout must be positive"},
		{name: "redis without addr", mutate: func(c *Config) { c.SessionStore = StoreRedis; c.RedisAddr = "" }, want: "redis address is required"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, want: `unknown log level "loud"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}
