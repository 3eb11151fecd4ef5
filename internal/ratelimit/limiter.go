package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/logger"
)

// Config holds the per-key rate limit settings
type Config struct {
	// RequestsPerSecond is the sustained rate allowed per key. Zero or less disables limiting.
	RequestsPerSecond float64
	// Burst is the number of requests a key may make at once
	Burst int
	// IdleTTL is how long an unused key keeps its limiter
	IdleTTL time.Duration
}

// Limiter throttles requests per key
//
//go:generate mockgen -source=limiter.go -destination=../mocks/ratelimit.go -package=mocks -mock_names=Limiter=MockRateLimiter
type Limiter interface {
	// Allow reports whether a request for key may proceed now, consuming a token if so
	Allow(key string) bool
}

// keyLimiter holds the token bucket of a single key
type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiter struct {
	config    Config
	clock     adapter.Clock
	mu        sync.Mutex
	keys      map[string]*keyLimiter
	lastSweep time.Time
}

// NewLimiter creates a per-key limiter
func NewLimiter(cfg Config, clock adapter.Clock) Limiter {
	if cfg.RequestsPerSecond <= 0 {
		logger.Info("Rate limiting disabled")
		return unlimited{}
	}

	if cfg.Burst <= 0 {
		cfg.Burst = max(int(cfg.RequestsPerSecond), 1)
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}

	logger.Info("Rate limiter initialized",
		zap.Float64("requests_per_second", cfg.RequestsPerSecond),
		zap.Int("burst", cfg.Burst),
		zap.Duration("idle_ttl", cfg.IdleTTL),
	)

	return &limiter{
		config:    cfg,
		clock:     clock,
		keys:      make(map[string]*keyLimiter),
		lastSweep: clock.Now(),
	}
}

func (l *limiter) Allow(key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	kl, ok := l.keys[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.Burst)}
		l.keys[key] = kl
	}
	kl.lastSeen = now

	allowed := kl.limiter.AllowN(now, 1)
	if !allowed {
		logger.Debug("Rate limit exceeded", zap.String("key", key))
	}
	return allowed
}

// sweep drops limiters idle for longer than the TTL, at most once per TTL
func (l *limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.config.IdleTTL {
		return
	}
	for key, kl := range l.keys {
		if now.Sub(kl.lastSeen) >= l.config.IdleTTL {
			delete(l.keys, key)
		}
	}
	l.lastSweep = now
}

type unlimited struct{}

func (unlimited) Allow(string) bool { return true }
