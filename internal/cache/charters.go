package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"muster/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	LeagueChartersKeyPrefix = "league:%d:charters"
	CharterTypesKey         = "charter_types"
)

const (
	LeagueChartersTTL = 5 * time.Minute
	CharterTypesTTL   = 10 * time.Minute
)

// LeagueChartersKey holds the cached charter list of a league.
func LeagueChartersKey(leagueID uint) string {
	return fmt.Sprintf(LeagueChartersKeyPrefix, leagueID)
}

// Remember returns the cached value under key, or computes it with fn and
// caches the result for ttl. Without Redis, or when Redis fails, fn is called
// directly.
func Remember[T any](ctx context.Context, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if client == nil {
		return fn()
	}

	raw, err := client.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		middleware.Logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		middleware.Logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	value, err := fn()
	if err != nil {
		return value, err
	}

	if encoded, jsonErr := json.Marshal(value); jsonErr == nil {
		if setErr := client.Set(ctx, key, encoded, ttl).Err(); setErr != nil {
			middleware.Logger.WarnContext(ctx, "cache write failed", "key", key, "error", setErr)
		}
	}
	return value, nil
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateLeague(ctx context.Context, leagueID uint) {
	Invalidate(ctx, LeagueChartersKey(leagueID))
}

func InvalidateCharterTypes(ctx context.Context) {
	Invalidate(ctx, CharterTypesKey)
}
