package feed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRedisPublishesAndStoresLatest(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r, err := NewRedis(ctx, "redis://"+srv.Addr()+"/0", "lineclash", 8, zaptest.NewLogger(t))
	require.NoError(t, err)

	subscriber := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer subscriber.Close()
	sub := subscriber.Subscribe(ctx, r.Channel("m1"))
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	r.Publish("m1", map[string]int{"round": 1})
	r.Publish("m1", map[string]int{"round": 2})
	require.NoError(t, r.Close())

	first, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "lineclash:m1:updates", first.Channel)
	assert.JSONEq(t, `{"round":1}`, first.Payload)

	second, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"round":2}`, second.Payload)

	latest, err := srv.Get("lineclash:m1:latest")
	require.NoError(t, err)
	assert.JSONEq(t, `{"round":2}`, latest)
	assert.False(t, srv.Exists("lineclash:m2:latest"))
}

func TestRedisSkipsUnencodableSnapshot(t *testing.T) {
	srv := miniredis.RunT(t)
	r := newRedis(redis.NewClient(&redis.Options{Addr: srv.Addr()}), "lineclash", 4, zaptest.NewLogger(t))

	r.Publish("m1", make(chan int))
	r.Publish("m1", "ok")
	require.NoError(t, r.Close())

	latest, err := srv.Get("lineclash:m1:latest")
	require.NoError(t, err)
	assert.Equal(t, `"ok"`, latest)
}
