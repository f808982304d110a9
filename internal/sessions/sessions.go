// Package sessions holds the currently valid admin tokens behind an
// explicit store so the token lifetime policy and backing storage are
// swappable.
package sessions

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Store interface {
	// Issue mints a new token and records its issuance time.
	Issue(ctx context.Context) (string, error)
	// Validate reports whether the token is currently valid.
	Validate(ctx context.Context, token string) (bool, error)
	// Revoke invalidates a single token.
	Revoke(ctx context.Context, token string) error
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// MemoryStore keeps tokens in process memory. Tokens survive for ttl
// from issuance; ttl 0 means they live as long as the process.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(ttl time.Duration, ops ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, op := range ops {
		op(s)
	}
	return s
}

func (s *MemoryStore) Issue(_ context.Context) (string, error) {
	token := newToken()
	s.mu.Lock()
	s.tokens[token] = s.now()
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryStore) Validate(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issuedAt, ok := s.tokens[token]
	if !ok {
		return false, nil
	}
	if s.ttl > 0 && s.now().After(issuedAt.Add(s.ttl)) {
		delete(s.tokens, token)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	return nil
}

// RedisStore keeps tokens in redis so sessions survive restarts and
// are shared between replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

const redisKeyPrefix = "navlight:admin:token:"

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisStore) Issue(ctx context.Context) (string, error) {
	token := newToken()
	if err := s.client.Set(ctx, redisKeyPrefix+token, s.now().Format(time.RFC3339), s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisStore) Validate(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, redisKeyPrefix+token).Err()
}
