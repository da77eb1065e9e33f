package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AuthorizationRequest correlates a provider redirect with the callback that
// follows it.
type AuthorizationRequest struct {
	State       string    `json:"state"`
	Provider    string    `json:"provider"`
	RedirectURI string    `json:"redirect_uri"`
	Session     string    `json:"session"`
	CreatedAt   time.Time `json:"created_at"`
}

// RequestStore keeps authorization requests until their callback arrives.
// Take removes the request, so each state can be completed once.
type RequestStore interface {
	Save(ctx context.Context, req *AuthorizationRequest) error
	Take(ctx context.Context, state string) (*AuthorizationRequest, error)
}

type MemoryRequestStore struct {
	mu       sync.Mutex
	requests map[string]*AuthorizationRequest
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryRequestStore starts a store whose expired entries are purged every
// interval until ctx is cancelled or Close is called.
func NewMemoryRequestStore(ctx context.Context, ttl, interval time.Duration, logger *zap.Logger) *MemoryRequestStore {
	s := &MemoryRequestStore{
		requests: make(map[string]*AuthorizationRequest),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go s.cleanupLoop(ctx, interval)

	return s
}

func (s *MemoryRequestStore) cleanupLoop(ctx context.Context, interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.purge(); n > 0 {
				s.logger.Debug("purged expired authorization requests", zap.Int("count", n))
			}
		}
	}
}

func (s *MemoryRequestStore) purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for state, req := range s.requests {
		if s.expired(req, now) {
			delete(s.requests, state)
			n++
		}
	}
	return n
}

func (s *MemoryRequestStore) expired(req *AuthorizationRequest, now time.Time) bool {
	return !now.Before(req.CreatedAt.Add(s.ttl))
}

func (s *MemoryRequestStore) Save(_ context.Context, req *AuthorizationRequest) error {
	if req.State == "" {
		return errors.New("authorization request without state")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *req
	s.requests[req.State] = &cp
	return nil
}

func (s *MemoryRequestStore) Take(_ context.Context, state string) (*AuthorizationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[state]
	if !ok {
		return nil, nil
	}
	delete(s.requests, state)

	if s.expired(req, s.now()) {
		return nil, nil
	}
	return req, nil
}

func (s *MemoryRequestStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Close stops the cleanup goroutine and waits for it to exit.
func (s *MemoryRequestStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

const redisKeyPrefix = "quizhub:oauth2:"

type RedisRequestStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisRequestStore(client redis.UniversalClient, ttl time.Duration) *RedisRequestStore {
	return &RedisRequestStore{client: client, ttl: ttl}
}

func requestKey(state string) string {
	return redisKeyPrefix + state
}

func (s *RedisRequestStore) Save(ctx context.Context, req *AuthorizationRequest) error {
	if req.State == "" {
		return errors.New("authorization request without state")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding authorization request: %w", err)
	}

	if err := s.client.Set(ctx, requestKey(req.State), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving authorization request: %w", err)
	}
	return nil
}

func (s *RedisRequestStore) Take(ctx context.Context, state string) (*AuthorizationRequest, error) {
	data, err := s.client.GetDel(ctx, requestKey(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading authorization request: %w", err)
	}

	req := &AuthorizationRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("decoding authorization request: %w", err)
	}
	return req, nil
}

func (s *RedisRequestStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
