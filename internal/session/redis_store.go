package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "intake:session:"

// RedisStore keeps sessions in Redis so they survive process restarts.
// Per-sender mutual exclusion is enforced with in-process key locks, which
// assumes a single API instance in front of the store.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRedisStore wraps a Redis client. ttl of zero means sessions never
// expire, matching the in-memory store's retention behavior.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		locks:  make(map[string]*sync.Mutex),
	}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) lock(senderID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[senderID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[senderID] = l
	}
	return l
}

func redisKey(senderID string) string {
	return redisKeyPrefix + senderID
}

// Update loads the sender's session, runs fn, and writes the result back.
func (s *RedisStore) Update(ctx context.Context, senderID string, fn func(*Session) error) error {
	l := s.lock(senderID)
	l.Lock()
	defer l.Unlock()

	sess, _, err := s.load(ctx, senderID)
	if err != nil {
		return err
	}

	fnErr := fn(&sess)

	data, err := json.Marshal(&sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(senderID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return fnErr
}

// Peek returns a copy of the sender's session, if one exists.
func (s *RedisStore) Peek(ctx context.Context, senderID string) (Session, bool) {
	sess, found, err := s.load(ctx, senderID)
	if err != nil || !found {
		return Session{}, false
	}
	return sess, true
}

func (s *RedisStore) load(ctx context.Context, senderID string) (Session, bool, error) {
	data, err := s.client.Get(ctx, redisKey(senderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("session: redis get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, false, fmt.Errorf("session: unmarshal: %w", err)
	}
	return sess, true, nil
}
