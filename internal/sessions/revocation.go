// Package sessions ends dashboard sessions before their tokens expire by
// keeping a revocation list that every verification consults.
package sessions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trackadmission/go-services/pkg/logger"
	"github.com/trackadmission/go-services/pkg/middleware"
)

var ErrRevoked = errors.New("token has been revoked")

// Store remembers revoked tokens until ttl passes.
type Store interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// tokens are keyed by digest so the list never holds usable credentials
func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "blacklist:access:"}
}

func (s *RedisStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.prefix+digest(token), "1", ttl).Err()
}

func (s *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+digest(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryStore is a single-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{expires: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, k)
		}
	}
	s.expires[digest(token)] = now.Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expires[digest(token)]
	return ok && s.now().Before(exp), nil
}

// Verifier rejects revoked tokens before delegating to next.
type Verifier struct {
	next  middleware.Verifier
	store Store
}

func NewVerifier(next middleware.Verifier, store Store) *Verifier {
	return &Verifier{next: next, store: store}
}

// Verify fails open when the store is unreachable; the token is still
// checked by next.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	revoked, err := v.store.IsRevoked(ctx, raw)
	if err != nil {
		logger.Warnf("revocation lookup failed: %v", err)
	} else if revoked {
		return nil, ErrRevoked
	}
	return v.next.Verify(ctx, raw)
}

// Logout revokes raw for the rest of its lifetime, read from the exp claim.
// Tokens without exp are revoked for fallback.
func Logout(ctx context.Context, store Store, raw string, claims map[string]interface{}, fallback time.Duration) error {
	ttl := fallback
	if exp, ok := claims["exp"].(float64); ok {
		ttl = time.Until(time.Unix(int64(exp), 0))
	}
	return store.Revoke(ctx, raw, ttl)
}
