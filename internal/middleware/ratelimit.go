package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Veysel440/ipgate/internal/gate"
)

type Limiter struct {
	r   rate.Limit
	b   int
	m   sync.Map // key -> *entry
	ttl time.Duration
}

func NewLimiter(r rate.Limit, burst int, ttl time.Duration) *Limiter {
	return &Limiter{r: r, b: burst, ttl: ttl}
}

type entry struct {
	mu  sync.Mutex
	lim *rate.Limiter
	ts  time.Time
}

func (l *Limiter) get(k string) *rate.Limiter {
	now := time.Now()
	v, _ := l.m.LoadOrStore(k, &entry{lim: rate.NewLimiter(l.r, l.b), ts: now})
	e := v.(*entry)
	e.mu.Lock()
	e.ts = now
	e.mu.Unlock()
	return e.lim
}

// Cleanup forgets keys idle for longer than the ttl.
func (l *Limiter) Cleanup() {
	cut := time.Now().Add(-l.ttl)
	l.m.Range(func(key, value any) bool {
		e := value.(*entry)
		e.mu.Lock()
		stale := e.ts.Before(cut)
		e.mu.Unlock()
		if stale {
			l.m.Delete(key)
		}
		return true
	})
}

// Middleware limits per client address, resolved the same way the gate does.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := gate.Resolve(r, true).String()
		if !l.get(key).Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
