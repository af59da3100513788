// Package cache provides Redis-based caching for the hot enforcement reads
// with graceful degradation: when Redis is unavailable, callers fall back to
// the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Config holds Redis configuration
type Config struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// Cache keys and TTLs. Enforcement runs on every protected request, so the
// seat count and status report get short TTLs rather than invalidation
// plumbing.
const (
	KeyActiveStaffCount = "license:active_staff_count"
	KeyLicenseStatus    = "license:status"

	ActiveStaffTTL   = 30 * time.Second
	LicenseStatusTTL = 30 * time.Second
)

// Service provides Redis caching with a small failure circuit breaker.
type Service struct {
	client       *redis.Client
	log          zerolog.Logger
	mu           sync.RWMutex
	healthy      bool
	failureCount int
	lastCheck    time.Time

	maxFailures   int
	checkInterval time.Duration
}

// ErrMiss is returned when a key is absent or the cache is degraded.
var ErrMiss = fmt.Errorf("cache miss")

// NewService creates a cache service and verifies connectivity.
func NewService(cfg Config, log zerolog.Logger) (*Service, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled in configuration")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	s := &Service{
		client:        client,
		log:           log.With().Str("component", "cache").Logger(),
		healthy:       true,
		maxFailures:   3,
		checkInterval: 30 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	s.log.Info().Str("address", cfg.Address).Msg("connected to redis")
	return s, nil
}

// Healthy reports whether the cache should be consulted at all.
func (s *Service) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.healthy {
		return true
	}
	// Periodically let one request through so the circuit can close again.
	return time.Since(s.lastCheck) > s.checkInterval
}

func (s *Service) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failureCount++
	s.lastCheck = time.Now()
	if s.failureCount >= s.maxFailures && s.healthy {
		s.healthy = false
		s.log.Warn().Err(err).Int("failures", s.failureCount).Msg("redis degraded, falling back to database")
	}
}

func (s *Service) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.healthy {
		s.log.Info().Msg("redis recovered")
	}
	s.healthy = true
	s.failureCount = 0
}

// GetInt reads an integer value.
func (s *Service) GetInt(ctx context.Context, key string) (int, error) {
	if !s.Healthy() {
		return 0, ErrMiss
	}
	val, err := s.client.Get(ctx, key).Int()
	if err == redis.Nil {
		s.recordSuccess()
		return 0, ErrMiss
	}
	if err != nil {
		s.recordFailure(err)
		return 0, ErrMiss
	}
	s.recordSuccess()
	return val, nil
}

// SetInt writes an integer value with a TTL. Failures are absorbed; the
// cache is advisory.
func (s *Service) SetInt(ctx context.Context, key string, val int, ttl time.Duration) {
	if !s.Healthy() {
		return
	}
	if err := s.client.Set(ctx, key, val, ttl).Err(); err != nil {
		s.recordFailure(err)
		return
	}
	s.recordSuccess()
}

// GetJSON reads a JSON-encoded value into dest.
func (s *Service) GetJSON(ctx context.Context, key string, dest interface{}) error {
	if !s.Healthy() {
		return ErrMiss
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		s.recordSuccess()
		return ErrMiss
	}
	if err != nil {
		s.recordFailure(err)
		return ErrMiss
	}
	s.recordSuccess()
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode cached value: %w", err)
	}
	return nil
}

// SetJSON writes a JSON-encoded value with a TTL.
func (s *Service) SetJSON(ctx context.Context, key string, val interface{}, ttl time.Duration) {
	if !s.Healthy() {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.recordFailure(err)
		return
	}
	s.recordSuccess()
}

// Invalidate removes keys, e.g. after staff or license mutations.
func (s *Service) Invalidate(ctx context.Context, keys ...string) {
	if !s.Healthy() {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.recordFailure(err)
		return
	}
	s.recordSuccess()
}

// Close releases the Redis connection.
func (s *Service) Close() error {
	return s.client.Close()
}
