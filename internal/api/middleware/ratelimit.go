package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/dvloznov/barik-insights/internal/metrics"
)

const (
	limiterIdleTTL  = 10 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// rateLimitClient tracks the limiter and its last usage time.
type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // Unix nanoseconds
}

// RateLimiter applies a token bucket per client address.
type RateLimiter struct {
	limiters  map[string]*rateLimitClient
	mu        sync.RWMutex
	rateLimit rate.Limit
	burstSize int
	metrics   *metrics.Metrics
	now       func() time.Time

	cleanupTick *time.Ticker
	stopChan    chan struct{}
	stopOnce    sync.Once
}

// NewRateLimiter allows perSecond requests per client with the given burst.
// A non-positive perSecond disables limiting. m may be nil.
func NewRateLimiter(perSecond float64, burst int, m *metrics.Metrics) *RateLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}

	rl := &RateLimiter{
		limiters:    make(map[string]*rateLimitClient),
		rateLimit:   limit,
		burstSize:   burst,
		metrics:     m,
		now:         time.Now,
		cleanupTick: time.NewTicker(cleanupInterval),
		stopChan:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Handler returns the HTTP middleware.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.rateLimit == rate.Inf {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.getLimiter(clientKey(r)).Allow() {
			if rl.metrics != nil {
				rl.metrics.RateLimited.Inc()
			}
			retryAfter := int(math.Ceil(1 / float64(rl.rateLimit)))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burstSize))
			w.Header().Set("X-RateLimit-Remaining", "0")
			WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getLimiter gets or creates the limiter for key and refreshes its last use.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	now := rl.now().UnixNano()

	rl.mu.RLock()
	if client, exists := rl.limiters[key]; exists {
		client.lastSeen.Store(now)
		rl.mu.RUnlock()
		return client.limiter
	}
	rl.mu.RUnlock()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if client, exists := rl.limiters[key]; exists {
		client.lastSeen.Store(now)
		return client.limiter
	}

	client := &rateLimitClient{limiter: rate.NewLimiter(rl.rateLimit, rl.burstSize)}
	client.lastSeen.Store(now)
	rl.limiters[key] = client
	return client.limiter
}

// cleanupOnce evicts limiters idle for longer than limiterIdleTTL.
func (rl *RateLimiter) cleanupOnce() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, client := range rl.limiters {
		if now.Sub(time.Unix(0, client.lastSeen.Load())) > limiterIdleTTL {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.cleanupOnce()
		case <-rl.stopChan:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call multiple times.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
		rl.cleanupTick.Stop()
	})
}

// clientKey identifies the caller by the host part of its remote address.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
