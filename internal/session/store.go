package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/dubmyyt/internal/domain"
)

// Store maps a browser session id to the cached auth session.
type Store interface {
	Get(ctx context.Context, id string) (*types.Session, error)
	Put(ctx context.Context, sess *types.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	sess    types.Session
	expires time.Time
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]memoryEntry), now: time.Now}
}

func (m *memoryStore) Get(_ context.Context, id string) (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, id)
		return nil, nil
	}
	s := e.sess
	return &s, nil
}

func (m *memoryStore) Put(_ context.Context, sess *types.Session, ttl time.Duration) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("session id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{sess: *sess}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.data[sess.ID] = e
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type redisStore struct {
	rdb    goredis.UniversalClient
	prefix string
}

func NewRedisStore(rdb goredis.UniversalClient) Store {
	return &redisStore{rdb: rdb, prefix: "dubmyyt:session:"}
}

func (r *redisStore) Get(ctx context.Context, id string) (*types.Session, error) {
	raw, err := r.rdb.Get(ctx, r.prefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	var s types.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return &s, nil
}

func (r *redisStore) Put(ctx context.Context, sess *types.Session, ttl time.Duration) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("session id required")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.prefix+sess.ID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, r.prefix+id).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}
