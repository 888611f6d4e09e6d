package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/trackadmission/go-services/pkg/middleware"
)

func TestRedisStoreRevokeExpires(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	ctx := context.Background()
	require.NoError(t, s.Revoke(ctx, "access-token-1", 2*time.Second))

	ok, err := s.IsRevoked(ctx, "access-token-1")
	require.NoError(t, err)
	require.True(t, ok)
	// only the digest is stored
	require.False(t, m.Exists("blacklist:access:access-token-1"))

	m.FastForward(3 * time.Second)
	ok, err = s.IsRevoked(ctx, "access-token-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "t1", time.Minute))
	require.NoError(t, s.Revoke(ctx, "expired", -time.Second))

	ok, _ := s.IsRevoked(ctx, "t1")
	require.True(t, ok)
	ok, _ = s.IsRevoked(ctx, "expired")
	require.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = s.IsRevoked(ctx, "t1")
	require.False(t, ok)
}

type okVerifier struct{ calls int }

func (v *okVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	v.calls++
	return nil, nil
}

type brokenStore struct{}

func (brokenStore) Revoke(ctx context.Context, token string, ttl time.Duration) error { return nil }
func (brokenStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	return false, errors.New("redis down")
}

func TestVerifierRejectsRevoked(t *testing.T) {
	ctx := context.Background()
	next := &okVerifier{}
	store := NewMemoryStore()
	v := NewVerifier(next, store)

	_, err := v.Verify(ctx, "tok")
	require.NoError(t, err)

	exp := float64(time.Now().Add(time.Hour).Unix())
	require.NoError(t, Logout(ctx, store, "tok", map[string]interface{}{"exp": exp}, time.Minute))
	_, err = v.Verify(ctx, "tok")
	require.ErrorIs(t, err, ErrRevoked)
	require.Equal(t, 1, next.calls)

	_, err = NewVerifier(next, brokenStore{}).Verify(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

func TestLogoutWithoutExpUsesFallback(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, Logout(context.Background(), store, "tok", map[string]interface{}{}, time.Minute))
	ok, _ := store.IsRevoked(context.Background(), "tok")
	require.True(t, ok)
}
