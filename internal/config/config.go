// Package config resolves client settings from defaults, a .env file, the
// environment and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"quiz-client/internal/api"
	"quiz-client/internal/logging"
)

const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ServerURL     string
	DataPath      string
	SessionStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Profile       string
	DownloadDir   string
	HTTPTimeout   time.Duration
	LogLevel      string
	NoColor       bool
	// Seed drives shuffling in generated quizzes; 0 picks a time-based seed.
	Seed         int64
	ShareCommand string
}

func Default() Config {
	return Config{
		ServerURL:    api.DefaultBaseURL,
		DataPath:     "quiz-client.db",
		SessionStore: StoreSQLite,
		RedisAddr:    "127.0.0.1:6379",
		Profile:      "default",
		DownloadDir:  ".",
		HTTPTimeout:  10 * time.Second,
		LogLevel:     "info",
	}
}

// Load reads the given .env files (".env" when none are named) into the
// process environment without overriding variables that are already set, then
// applies the environment on top of the defaults. Missing files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv applies the QUIZ_* variables found through getenv to the defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	cfg.ServerURL = getEnv(getenv, "QUIZ_API_URL", cfg.ServerURL)
	cfg.DataPath = getEnv(getenv, "QUIZ_DATA_PATH", cfg.DataPath)
	cfg.SessionStore = getEnv(getenv, "QUIZ_SESSION_STORE", cfg.SessionStore)
	cfg.RedisAddr = getEnv(getenv, "QUIZ_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv(getenv, "QUIZ_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.Profile = getEnv(getenv, "QUIZ_PROFILE", cfg.Profile)
	cfg.DownloadDir = getEnv(getenv, "QUIZ_DOWNLOAD_DIR", cfg.DownloadDir)
	cfg.LogLevel = getEnv(getenv, "QUIZ_LOG_LEVEL", cfg.LogLevel)
	cfg.ShareCommand = getEnv(getenv, "QUIZ_SHARE_COMMAND", cfg.ShareCommand)
	cfg.NoColor = getenv("NO_COLOR") != ""

	var err error
	if value := getenv("QUIZ_REDIS_DB"); value != "" {
		if cfg.RedisDB, err = strconv.Atoi(value); err != nil {
			return Config{}, fmt.Errorf("QUIZ_REDIS_DB: %w", err)
		}
	}
	if value := getenv("QUIZ_HTTP_TIMEOUT"); value != "" {
		if cfg.HTTPTimeout, err = time.ParseDuration(value); err != nil {
			return Config{}, fmt.Errorf("QUIZ_HTTP_TIMEOUT: %w", err)
		}
	}
	if value := getenv("QUIZ_SEED"); value != "" {
		if cfg.Seed, err = strconv.ParseInt(value, 10, 64); err != nil {
			return Config{}, fmt.Errorf("QUIZ_SEED: %w", err)
		}
	}

	return cfg, nil
}

func getEnv(getenv func(string) string, key, fallback string) string {
	if value := strings.TrimSpace(getenv(key)); value != "" {
		return value
	}
	return fallback
}

// BindFlags registers one flag per field, defaulting to the current values so
// flags only override what the user passes explicitly.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ServerURL, "server", c.ServerURL, "quiz API base URL")
	fs.StringVar(&c.DataPath, "data", c.DataPath, "path of the local sqlite database")
	fs.StringVar(&c.SessionStore, "session-store", c.SessionStore, "where the login token is kept: sqlite, redis or memory")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "redis address for --session-store=redis")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "redis database number")
	fs.StringVar(&c.Profile, "profile", c.Profile, "session profile name for the redis store")
	fs.StringVar(&c.DownloadDir, "download-dir", c.DownloadDir, "directory for exports and certificates")
	fs.DurationVar(&c.HTTPTimeout, "timeout", c.HTTPTimeout, "HTTP timeout")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
	fs.BoolVar(&c.NoColor, "no-color", c.NoColor, "disable colored output")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed for generated quizzes (0 = time based)")
	fs.StringVar(&c.ShareCommand, "share-command", c.ShareCommand, "command that receives certificate share text on stdin")
}

func (c Config) Validate() error {
	var errs []error

	parsed, err := url.Parse(c.ServerURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("server URL %q must be an absolute http(s) URL", c.ServerURL))
	}

	switch c.SessionStore {
	case StoreSQLite:
		if strings.TrimSpace(c.DataPath) == "" {
			errs = append(errs, errors.New("data path is required for the sqlite session store"))
		}
	case StoreRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			errs = append(errs, errors.New("redis address is required for the redis session store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown session store %q", c.SessionStore))
	}

	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.HTTPTimeout))
	}
	if c.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("redis db must not be negative, got %d", c.RedisDB))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
