package server

import (
	"sync"
	"time"
)

// Fixed-window rate limit: per caller, at most rateLimit requests per
// rateWindow, 429 until the window rolls over. Windows reset lazily on the
// next request after expiry.
const (
	rateLimit  = 10
	rateWindow = time.Minute
)

type callerWindow struct {
	count   int
	resetAt time.Time
}

// Limiter is the process-wide rate-limit ledger. Entries are created lazily
// per caller and live for the process lifetime — accepted for the
// low-cardinality loopback traffic this server sees.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*callerWindow
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewLimiter returns a limiter with the standard limit and window.
func NewLimiter() *Limiter {
	return &Limiter{
		entries: make(map[string]*callerWindow),
		limit:   rateLimit,
		window:  rateWindow,
		now:     time.Now,
	}
}

// Allow records a request from caller and reports whether it is within the
// limit. Check and increment are one step under the lock, so concurrent
// requests cannot race past the ceiling.
func (l *Limiter) Allow(caller string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[caller]
	if !ok || now.After(w.resetAt) {
		l.entries[caller] = &callerWindow{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}
