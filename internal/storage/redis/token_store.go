// Package redis keeps the session token in Redis so several client
// processes on one machine can share a login.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"quiz-client/internal/session"
)

const keyPrefix = "quiz-client"

type TokenStore struct {
	client *goredis.Client
	key    string
	now    func() time.Time
}

type Config struct {
	Addr     string
	Password string
	DB       int
	// Profile separates logins that share one Redis database.
	Profile string
}

// NewTokenStore connects and pings Redis before returning.
func NewTokenStore(ctx context.Context, cfg Config) (*TokenStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewTokenStoreWithClient(client, cfg.Profile), nil
}

func NewTokenStoreWithClient(client *goredis.Client, profile string) *TokenStore {
	return &TokenStore{
		client: client,
		key:    tokenKey(profile),
		now:    time.Now,
	}
}

func tokenKey(profile string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = "default"
	}
	return keyPrefix + ":" + profile + ":" + session.TokenKey
}

func (s *TokenStore) Close() error {
	return s.client.Close()
}

func (s *TokenStore) LoadToken(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// SaveToken lets Redis expire the key together with the token. Tokens that
// are already expired are refused.
func (s *TokenStore) SaveToken(ctx context.Context, token string) error {
	ttl, err := tokenTTL(token, s.now())
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := s.client.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *TokenStore) ClearToken(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// tokenTTL is 0 (keep forever) for tokens without a readable expiry.
func tokenTTL(token string, now time.Time) (time.Duration, error) {
	claims, err := session.Inspect(token)
	if err != nil {
		return 0, nil
	}
	if claims.Expired(now) {
		return 0, session.ErrExpiredToken
	}
	return claims.TTL(now), nil
}
