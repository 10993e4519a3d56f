package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/longkidkoolstar/jsonviewer/internal/utils"
)

// RateLimitConfig bounds how often one client may make the server call the
// remote endpoint (fetch, refresh, update, load). It maps onto
// JSV_RATE_LIMIT_BURST and JSV_RATE_LIMIT_PER_MIN.
type RateLimitConfig struct {
	Burst      int                        // calls allowed back to back
	PerMinute  int                        // steady refill rate
	MaxClients int                        // idle clients are evicted past this; 0 means unbounded
	IdleTTL    time.Duration              // defaults to 15m
	TrustProxy bool                       // resolve the client IP from proxy headers
	Key        func(*http.Request) string // client identity, defaults to the client IP
	Now        func() time.Time           // defaults to time.Now
}

type clientBudget struct {
	tokens   float64
	refilled time.Time
	seen     time.Time
}

// budgets holds one token bucket per client behind a single mutex; every
// request does a few float operations under it.
type budgets struct {
	cfg    RateLimitConfig
	perSec float64

	mu        sync.Mutex
	clients   map[string]*clientBudget
	lastSweep time.Time
}

func newBudgets(cfg RateLimitConfig) *budgets {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.PerMinute < 1 {
		cfg.PerMinute = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Key == nil {
		trust := cfg.TrustProxy
		cfg.Key = func(r *http.Request) string { return utils.ClientIP(r, trust) }
	}
	return &budgets{
		cfg:       cfg,
		perSec:    float64(cfg.PerMinute) / 60,
		clients:   make(map[string]*clientBudget),
		lastSweep: cfg.Now(),
	}
}

// spend takes one token from client. When none is left it reports how many
// whole seconds until the next one.
func (b *budgets) spend(client string, now time.Time) (ok bool, remaining, retryAfter int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) >= time.Minute ||
		(b.cfg.MaxClients > 0 && len(b.clients) >= b.cfg.MaxClients) {
		b.evictIdle(now)
	}

	capacity := float64(b.cfg.Burst)
	c := b.clients[client]
	if c == nil {
		c = &clientBudget{tokens: capacity, refilled: now}
		b.clients[client] = c
	}
	c.seen = now

	if elapsed := now.Sub(c.refilled).Seconds(); elapsed > 0 {
		c.tokens = math.Min(capacity, c.tokens+elapsed*b.perSec)
		c.refilled = now
	}

	if c.tokens < 1 {
		wait := (1 - c.tokens) * 60 / float64(b.cfg.PerMinute)
		return false, 0, max(1, int(math.Ceil(wait)))
	}
	c.tokens--
	return true, int(c.tokens), 0
}

func (b *budgets) evictIdle(now time.Time) {
	for key, c := range b.clients {
		if now.Sub(c.seen) > b.cfg.IdleTTL {
			delete(b.clients, key)
		}
	}
	b.lastSweep = now
}

// RateLimit rejects clients that exhausted their budget with 429 and a
// Retry-After header; next is not called for them.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	b := newBudgets(cfg)
	limit := strconv.Itoa(b.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, retry := b.spend(b.cfg.Key(r), b.cfg.Now())

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				reject(w, http.StatusTooManyRequests, "rate_limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
