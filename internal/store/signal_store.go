// Package store provides Redis-backed sharing of recently emitted signals
// across engine instances, with graceful degradation when Redis is
// unavailable.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"smc-signal-engine/internal/gates"
)

// Config holds Redis connection settings
type Config struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	TTLHours int    `json:"ttl_hours"`
}

// DefaultConfig returns the default store configuration
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Address:  "localhost:6379",
		TTLHours: 24,
	}
}

// SignalStore keeps recent signals in Redis so cooldown checks survive
// restarts and apply across instances. When Redis is unreachable the store
// degrades: reads return nothing and writes are dropped, and the engine
// falls back to its in-process ring buffer.
type SignalStore struct {
	client  *redis.Client
	ttl     time.Duration
	logger  zerolog.Logger
	mu      sync.RWMutex
	healthy bool
}

// NewSignalStore connects to Redis and verifies connectivity
func NewSignalStore(cfg Config, logger zerolog.Logger) (*SignalStore, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis signal store is not enabled")
	}
	if cfg.TTLHours <= 0 {
		cfg.TTLHours = DefaultConfig().TTLHours
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	s := &SignalStore{
		client:  client,
		ttl:     time.Duration(cfg.TTLHours) * time.Hour,
		logger:  logger,
		healthy: true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		s.setHealthy(false)
		logger.Warn().Err(err).Msg("redis unreachable, signal store degraded")
	}

	return s, nil
}

func signalKey(symbol string) string {
	return fmt.Sprintf("signals:recent:%s", symbol)
}

// Remember stores an emitted signal under its symbol with the configured TTL
func (s *SignalStore) Remember(ctx context.Context, rec gates.RecentSignal) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, signalKey(rec.Symbol), data)
	pipe.LTrim(ctx, signalKey(rec.Symbol), 0, 49)
	pipe.Expire(ctx, signalKey(rec.Symbol), s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		s.setHealthy(false)
		s.logger.Warn().Err(err).Str("symbol", rec.Symbol).Msg("failed to store recent signal")
		return
	}
	s.setHealthy(true)
}

// RecentFor returns the stored recent signals for a symbol. On any Redis
// failure it returns nil: absence of shared history is survivable, a
// blocked evaluation is not.
func (s *SignalStore) RecentFor(ctx context.Context, symbol string) []gates.RecentSignal {
	items, err := s.client.LRange(ctx, signalKey(symbol), 0, -1).Result()
	if err != nil {
		if err != redis.Nil {
			s.setHealthy(false)
		}
		return nil
	}
	s.setHealthy(true)

	out := make([]gates.RecentSignal, 0, len(items))
	for _, item := range items {
		var rec gates.RecentSignal
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// IsHealthy reports whether the last Redis operation succeeded
func (s *SignalStore) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy
}

// Close releases the underlying client
func (s *SignalStore) Close() error {
	return s.client.Close()
}

func (s *SignalStore) setHealthy(v bool) {
	s.mu.Lock()
	s.healthy = v
	s.mu.Unlock()
}
