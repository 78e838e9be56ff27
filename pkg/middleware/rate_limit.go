package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"limito/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
)

// BucketStore counts requests per key inside a fixed window. The window
// resets wholesale: the first increment after the window elapses starts a
// fresh bucket at count 1.
type BucketStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Stop()
}

type memoryBucket struct {
	count       int64
	windowStart time.Time
	window      time.Duration
}

// MemoryBucketStore keeps buckets in local process memory. This is a
// best-effort throttle, not a security boundary: each process instance
// counts independently.
type MemoryBucketStore struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
	stopCh  chan struct{}
}

func NewMemoryBucketStore() *MemoryBucketStore {
	s := &MemoryBucketStore{
		buckets: make(map[string]*memoryBucket),
		stopCh:  make(chan struct{}),
	}

	go s.cleanup()

	return s
}

func (s *MemoryBucketStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.buckets[key]
	if !exists || now.Sub(b.windowStart) >= window {
		s.buckets[key] = &memoryBucket{count: 1, windowStart: now, window: window}
		return 1, nil
	}

	b.count++
	return b.count, nil
}

func (s *MemoryBucketStore) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, b := range s.buckets {
				if time.Since(b.windowStart) >= b.window {
					delete(s.buckets, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryBucketStore) Stop() {
	close(s.stopCh)
}

// RedisBucketStore promotes the buckets to a shared counter so limits hold
// exactly across process instances. INCR plus a TTL set on the first hit of
// the window gives the same fixed-window semantics as the memory store.
type RedisBucketStore struct {
	client *redis.Client
}

func NewRedisBucketStore(client *redis.Client) *RedisBucketStore {
	return &RedisBucketStore{client: client}
}

func (s *RedisBucketStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, "ratelimit:"+key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, "ratelimit:"+key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (s *RedisBucketStore) Stop() {}

// RateLimiter gates the endpoints that touch the reservation ledger.
type RateLimiter struct {
	store BucketStore
	log   *logger.Logger
}

func NewRateLimiter(store BucketStore, log *logger.Logger) *RateLimiter {
	return &RateLimiter{store: store, log: log}
}

// Check counts this call against the key's window and reports whether it
// fits the budget, plus how much budget remains. A failing bucket store
// fails open: a broken throttle must not take write traffic down with it.
func (rl *RateLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (bool, int) {
	count, err := rl.store.Incr(ctx, key, window)
	if err != nil {
		rl.log.Warn("Rate-limit store unavailable, allowing request", "key", key, "error", err)
		return true, 0
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(limit), remaining
}

func (rl *RateLimiter) Stop() {
	rl.store.Stop()
}

// LimitRoute wraps a single route with its own (limit, window) budget.
// Shoppers are anonymous, so the bucket key is the client IP scoped by the
// route name.
func LimitRoute(rl *RateLimiter, name string, limit int, window time.Duration) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			key := name + ":" + ClientIP(r)

			allowed, remaining := rl.Check(r.Context(), key, limit, window)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				rejectRateLimited(w, rl.log, r, key)
				return
			}

			next(w, r, ps)
		}
	}
}

func rejectRateLimited(w http.ResponseWriter, log *logger.Logger, r *http.Request, key string) {
	requestID := ""
	if rid := r.Context().Value(RequestIDKey); rid != nil {
		if id, ok := rid.(string); ok {
			requestID = id
		}
	}

	log.Warn("Rate limit exceeded",
		"request_id", requestID,
		"key", key,
		"path", r.URL.Path,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"success":false,"error":"Rate limit exceeded"}`))
}

// ClientIP returns the first X-Forwarded-For hop when present, falling back
// to the connection's remote address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
