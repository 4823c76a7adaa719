package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"quiz-client/internal/config"
	"quiz-client/internal/session"
	"quiz-client/internal/storage/sqlite"
)

func TestOpenTokenStoreReportsRedisFailureOnce(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	cfg := config.Default()
	cfg.SessionStore = config.StoreRedis
	cfg.RedisAddr = addr

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, closeTokens, err := openTokenStore(ctx, cfg, nil)
	closeTokens()
	if err == nil {
		t.Fatalf("expected an error for an unreachable redis")
	}
	if got := strings.Count(err.Error(), "connect to redis at"); got != 1 {
		t.Fatalf("error mentions the address %d times: %v", got, err)
	}
}

func TestOpenTokenStorePicksConfiguredStore(t *testing.T) {
	ctx := context.Background()
	local, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "client.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer local.Close()

	cfg := config.Default()
	store, closeTokens, err := openTokenStore(ctx, cfg, local)
	if err != nil {
		t.Fatalf("openTokenStore(sqlite) failed: %v", err)
	}
	closeTokens()
	if store != session.TokenStore(local) {
		t.Fatalf("expected the sqlite store by default")
	}

	cfg.SessionStore = config.StoreMemory
	store, closeTokens, err = openTokenStore(ctx, cfg, local)
	if err != nil {
		t.Fatalf("openTokenStore(memory) failed: %v", err)
	}
	closeTokens()
	if _, ok := store.(*session.MemoryStore); !ok {
		t.Fatalf("store = %T, want *session.MemoryStore", store)
	}

	server := miniredis.RunT(t)
	cfg.SessionStore = config.StoreRedis
	cfg.RedisAddr = server.Addr()
	store, closeTokens, err = openTokenStore(ctx, cfg, local)
	if err != nil {
		t.Fatalf("openTokenStore(redis) failed: %v", err)
	}
	defer closeTokens()
	if err := store.SaveToken(ctx, "opaque"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if !server.Exists("quiz-client:default:token") {
		t.Fatalf("expected the token under the default profile key")
	}
}
