package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"quiz-client/internal/apitest"
	"quiz-client/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	defaultAddr := os.Getenv("ADDR")
	if defaultAddr == "" {
		defaultAddr = ":8000"
	}

	addr := pflag.String("addr", defaultAddr, "HTTP listen address")
	secret := pflag.String("secret", os.Getenv("QUIZ_STUB_SECRET"), "HS256 signing secret")
	tokenTTL := pflag.Duration("token-ttl", 30*time.Minute, "lifetime of issued access tokens")
	logLevel := pflag.String("log-level", "info", "debug, info, warn or error")
	pflag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		slog.Error("invalid log level", "error", err)
		os.Exit(1)
	}
	logger := slog.New(logging.NewHandler(os.Stderr, level, !color.NoColor))
	slog.SetDefault(logger)

	opts := []apitest.Option{apitest.WithTokenTTL(*tokenTTL)}
	if *secret != "" {
		opts = append(opts, apitest.WithSecret(*secret))
	}
	stub := apitest.New(opts...)

	server := &http.Server{
		Addr:              *addr,
		Handler:           apitest.LogRequests(stub.Handler(), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("quiz stub server listening",
		"addr", *addr,
		"admin", apitest.AdminEmail,
		"user", apitest.UserEmail,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
