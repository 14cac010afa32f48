package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestRemember_CachesValue(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"Travel Team", "B Team"}, nil
	}

	got, err := Remember(ctx, CharterTypesKey, time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"Travel Team", "B Team"}, got)

	got, err = Remember(ctx, CharterTypesKey, time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"Travel Team", "B Team"}, got)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(CharterTypesKey))

	mr.FastForward(2 * time.Minute)
	_, err = Remember(ctx, CharterTypesKey, time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRemember_ErrorsAreNotCached(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	_, err := Remember(ctx, LeagueChartersKey(1), time.Minute, func() (int, error) {
		return 0, errors.New("db down")
	})
	require.Error(t, err)
	assert.False(t, mr.Exists(LeagueChartersKey(1)))
}

func TestRemember_WithoutRedis(t *testing.T) {
	SetClient(nil)

	calls := 0
	for i := 0; i < 2; i++ {
		v, err := Remember(context.Background(), "k", time.Minute, func() (int, error) {
			calls++
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	}
	assert.Equal(t, 2, calls)

	InvalidateLeague(context.Background(), 1)
}

func TestInvalidateLeague(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(LeagueChartersKey(3), "[]"))
	require.NoError(t, mr.Set(LeagueChartersKey(4), "[]"))

	InvalidateLeague(ctx, 3)
	assert.False(t, mr.Exists(LeagueChartersKey(3)))
	assert.True(t, mr.Exists(LeagueChartersKey(4)))
	assert.Equal(t, "league:3:charters", LeagueChartersKey(3))
}

func TestInitRedis_Unreachable(t *testing.T) {
	t.Cleanup(func() { SetClient(nil) })

	InitRedis("redis://127.0.0.1:1/0")
	assert.Nil(t, GetClient())

	InitRedis("::not a url::")
	assert.Nil(t, GetClient())

	mr := miniredis.RunT(t)
	InitRedis(mr.Addr())
	assert.NotNil(t, GetClient())
}
