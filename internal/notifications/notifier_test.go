package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotifier_NilRedis(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, Event{Type: EventCharterApproved}))
	assert.NoError(t, n.PublishCharters(context.Background(), Event{Type: EventCharterApproved}))
	assert.NoError(t, n.StartSubscriber(context.Background(), func(string, string) {}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestNotifier_PublishAndSubscribe(t *testing.T) {
	n := NewNotifier(newRedis(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type received struct{ channel, payload string }
	messages := make(chan received, 4)
	require.NoError(t, n.StartSubscriber(ctx, func(channel, payload string) {
		messages <- received{channel, payload}
	}))

	event := Event{Type: EventCharterApproved, League: "rose-city", Charter: "spring-ab12", CharterName: "Spring"}
	require.NoError(t, n.PublishUser(context.Background(), 7, event))
	require.NoError(t, n.PublishCharters(context.Background(), event))

	got := map[string]Event{}
	for len(got) < 2 {
		select {
		case msg := <-messages:
			var decoded Event
			require.NoError(t, json.Unmarshal([]byte(msg.payload), &decoded))
			got[msg.channel] = decoded
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, received %d messages", len(got))
		}
	}

	assert.Equal(t, "spring-ab12", got["notifications:user:7"].Charter)
	assert.Equal(t, EventCharterApproved, got[ChartersChannel].Type)
}

func TestNotifier_SubscriberRecoversFromPanic(t *testing.T) {
	n := NewNotifier(newRedis(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 2)
	require.NoError(t, n.StartSubscriber(ctx, func(string, string) {
		calls <- struct{}{}
		panic("boom")
	}))

	for i := 0; i < 2; i++ {
		require.NoError(t, n.PublishCharters(context.Background(), Event{Type: EventCharterRejected}))
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber stopped after a panicking handler")
		}
	}
}
