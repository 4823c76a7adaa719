package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"quiz-client/internal/api"
	"quiz-client/internal/app"
	"quiz-client/internal/certificate"
	"quiz-client/internal/cli"
	"quiz-client/internal/config"
	"quiz-client/internal/logging"
	"quiz-client/internal/mock"
	"quiz-client/internal/session"
	"quiz-client/internal/storage/redis"
	"quiz-client/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := pflag.NewFlagSet("quiz-client", pflag.ContinueOnError)
	cfg.BindFlags(flags)
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	color.NoColor = color.NoColor || cfg.NoColor
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, level, !color.NoColor)))

	ctx := context.Background()

	store, err := sqlite.Open(ctx, cfg.DataPath)
	if err != nil {
		return fmt.Errorf("open local data: %w", err)
	}
	defer store.Close()

	tokens, closeTokens, err := openTokenStore(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer closeTokens()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var native certificate.Sharer
	if cfg.ShareCommand != "" {
		native = certificate.CommandSharer{Command: cfg.ShareCommand}
	}

	client := api.NewClient(cfg.ServerURL, &http.Client{Timeout: cfg.HTTPTimeout})
	terminal := cli.NewTerminal(os.Stdin, os.Stdout, cfg.ServerURL)
	controller := app.New(client,
		app.WithTokenStore(tokens),
		app.WithFeatures(mock.NewLocalService(
			mock.WithRand(rand.New(rand.NewSource(seed))),
			mock.WithStore(store),
		)),
		app.WithCertificates(certificate.NewRegistry(certificate.WithStore(store))),
		app.WithSharer(certificate.NewShareChain(native, os.Stdout)),
		app.WithDownloader(app.DirDownloader{Dir: cfg.DownloadDir}),
		app.WithDialog(terminal),
	)

	slog.Debug("quiz client starting",
		"server", cfg.ServerURL,
		"session_store", cfg.SessionStore,
		"profile", cfg.Profile,
		"data", cfg.DataPath,
	)
	return terminal.Run(ctx, controller)
}

// openTokenStore picks where the access token lives between runs. The
// returned close func is always safe to call.
func openTokenStore(ctx context.Context, cfg config.Config, local *sqlite.SQLiteStore) (session.TokenStore, func(), error) {
	noop := func() {}

	switch cfg.SessionStore {
	case config.StoreRedis:
		store, err := redis.NewTokenStore(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Profile:  cfg.Profile,
		})
		if err != nil {
			return nil, noop, err
		}
		return store, closeQuietly(store), nil
	case config.StoreMemory:
		return session.NewMemoryStore(), noop, nil
	default:
		return local, noop, nil
	}
}

func closeQuietly(closer io.Closer) func() {
	return func() {
		if err := closer.Close(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}
