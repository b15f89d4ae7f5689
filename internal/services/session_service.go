package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"

	"github.com/foxcode/shorter/internal/models"
)

// SessionStore keeps per-identity front-end state for a bounded time.
type SessionStore interface {
	Get(ctx context.Context, identity string) (*models.Session, error)
	Put(ctx context.Context, session *models.Session) error
}

// RedisSessionStore stores sessions as JSON with a TTL refreshed on write.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(identity string) string {
	return fmt.Sprintf("session:%s", identity)
}

func (s *RedisSessionStore) Get(ctx context.Context, identity string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(identity)).Bytes()
	if err == redis.Nil {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", identity, err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(session.Identity), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return nil
}

// CacheSessionStore is the in-process fallback used when Redis is absent.
type CacheSessionStore struct {
	cache *cache.Cache
}

func NewCacheSessionStore(ttl time.Duration) *CacheSessionStore {
	return &CacheSessionStore{cache: cache.New(ttl, 2*ttl)}
}

func (s *CacheSessionStore) Get(_ context.Context, identity string) (*models.Session, error) {
	v, ok := s.cache.Get(sessionKey(identity))
	if !ok {
		return nil, models.ErrNotFound
	}
	session := v.(models.Session)
	return &session, nil
}

func (s *CacheSessionStore) Put(_ context.Context, session *models.Session) error {
	s.cache.SetDefault(sessionKey(session.Identity), *session)
	return nil
}

// SessionService replaces process-global conversation flags with explicit,
// expiring per-identity records.
type SessionService struct {
	store   SessionStore
	nowFunc func() time.Time
}

// NewSessionService uses Redis when rdb is non-nil and an in-process cache
// otherwise.
func NewSessionService(rdb *redis.Client, ttl time.Duration) *SessionService {
	if rdb == nil {
		log.Printf("[SESSION] Redis unavailable, sessions kept in process memory")
		return NewSessionServiceWithStore(NewCacheSessionStore(ttl))
	}
	return NewSessionServiceWithStore(NewRedisSessionStore(rdb, ttl))
}

func NewSessionServiceWithStore(store SessionStore) *SessionService {
	return &SessionService{store: store, nowFunc: time.Now}
}

// GetSession returns the identity's session, starting a fresh one on first
// interaction.
func (s *SessionService) GetSession(ctx context.Context, identity string) (*models.Session, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, fmt.Errorf("%w: identity is required", models.ErrInvalidInput)
	}

	session, err := s.store.Get(ctx, identity)
	if err == nil {
		return session, nil
	}
	if !models.IsNotFound(err) {
		return nil, err
	}

	session = &models.Session{Identity: identity, UpdatedAt: s.nowFunc()}
	if err := s.store.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// AcceptTerms records that the identity accepted the terms of service.
// Accepting again keeps the original acceptance time.
func (s *SessionService) AcceptTerms(ctx context.Context, identity string) (*models.Session, error) {
	session, err := s.GetSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc()
	if !session.TermsAccepted {
		session.TermsAccepted = true
		session.TermsAcceptedAt = &now
	}
	session.UpdatedAt = now

	if err := s.store.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
