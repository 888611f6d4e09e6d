package cache

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type post struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

func TestRedisCache(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	c := NewRedisCache(client, "content:", time.Minute)
	ctx := context.Background()

	var got post
	hit, err := c.Get(ctx, "slug:a", &got)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, c.Set(ctx, "slug:a", post{Slug: "a", Title: "A"}))
	require.True(t, m.Exists("content:slug:a"))
	require.Equal(t, time.Minute, m.TTL("content:slug:a"))

	hit, err = c.Get(ctx, "slug:a", &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "A", got.Title)

	require.NoError(t, c.Delete(ctx, "slug:a"))
	hit, err = c.Get(ctx, "slug:a", &got)
	require.NoError(t, err)
	require.False(t, hit)

	// corrupt values are evicted and reported as a miss
	require.NoError(t, m.Set("content:slug:bad", "{not json"))
	hit, err = c.Get(ctx, "slug:bad", &got)
	require.NoError(t, err)
	require.False(t, hit)
	require.False(t, m.Exists("content:slug:bad"))

	m.FastForward(2 * time.Minute)
	require.NoError(t, c.Set(ctx, "slug:b", post{Slug: "b"}))
	m.FastForward(2 * time.Minute)
	hit, err = c.Get(ctx, "slug:b", &got)
	require.NoError(t, err)
	require.False(t, hit)
}
