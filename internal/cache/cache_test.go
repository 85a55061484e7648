package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Cache{R: client}, mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSetGetRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", payload{Name: "tents", Count: 3}, time.Minute))

	var got payload
	hit, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, payload{Name: "tents", Count: 3}, got)

	mr.FastForward(2 * time.Minute)
	hit, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestMissOnAbsentKey(t *testing.T) {
	c, _ := newTestCache(t)

	var got payload
	hit, err := c.GetJSON(context.Background(), "nope", &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("k", "{broken"))

	var got payload
	hit, err := c.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "a", payload{Name: "a"}, time.Minute))
	require.NoError(t, c.SetJSON(ctx, "b", payload{Name: "b"}, time.Minute))
	require.NoError(t, c.Invalidate(ctx, "a", "missing"))

	var got payload
	hit, err := c.GetJSON(ctx, "a", &got)
	require.NoError(t, err)
	require.False(t, hit)

	hit, err = c.GetJSON(ctx, "b", &got)
	require.NoError(t, err)
	require.True(t, hit)
}
