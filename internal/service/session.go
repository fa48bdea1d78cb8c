package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionTTL is how long a login lives without re-authentication.
const SessionTTL = 30 * 24 * time.Hour

// SessionStore maps opaque session ids to user ids. Sessions are issued
// on login, destroyed on logout, and expire after SessionTTL.
type SessionStore interface {
	Put(ctx context.Context, sid string, userID int, ttl time.Duration) error
	Get(ctx context.Context, sid string) (int, bool, error)
	Delete(ctx context.Context, sid string) error
}

// RedisSessionStore keeps sessions in Redis so they survive restarts and
// are shared across instances.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) key(sid string) string { return "session:" + sid }

func (s *RedisSessionStore) Put(ctx context.Context, sid string, userID int, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(sid), strconv.Itoa(userID), ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, sid string) (int, bool, error) {
	val, err := s.client.Get(ctx, s.key(sid)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	userID, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt session value: %w", err)
	}
	return userID, true, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sid string) error {
	return s.client.Del(ctx, s.key(sid)).Err()
}

// MemorySessionStore is the fallback when Redis is not configured.
// Process-local; sessions are lost on restart, which is acceptable for
// single-instance deployments.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
}

type memorySession struct {
	userID    int
	expiresAt time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memorySession)}
}

func (s *MemorySessionStore) Put(_ context.Context, sid string, userID int, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sid] = memorySession{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, sid string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sid]
	if !ok {
		return 0, false, nil
	}
	if time.Now().After(sess.expiresAt) {
		delete(s.sessions, sid)
		return 0, false, nil
	}
	return sess.userID, true, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}
