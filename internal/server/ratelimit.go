package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// submitLimiter applies a global and a per-client token bucket to run
// submissions, so one operator cannot saturate the worker pool.
type submitLimiter struct {
	global *rate.Limiter
	perIP  map[string]*clientLimiter
	mu     sync.Mutex

	rps   rate.Limit
	burst int
}

func newSubmitLimiter(rps float64, burst int) *submitLimiter {
	return &submitLimiter{
		global: rate.NewLimiter(rate.Limit(rps), burst),
		perIP:  make(map[string]*clientLimiter),
		rps:    rate.Limit(rps),
		burst:  burst,
	}
}

func (l *submitLimiter) Middleware(obs *Observability, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			obs.MarkRateLimited(r.Context())
			writeError(w, http.StatusTooManyRequests, "run submission rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *submitLimiter) allow(ip string) bool {
	if !l.global.Allow() {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.perIP[ip]
	if !ok {
		item = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst), lastSeen: time.Now()}
		l.perIP[ip] = item
	}

	item.lastSeen = time.Now()
	if len(l.perIP) > 10_000 {
		l.cleanupLocked(time.Now().Add(-10 * time.Minute))
	}

	return item.limiter.Allow()
}

func (l *submitLimiter) cleanupLocked(threshold time.Time) {
	for ip, entry := range l.perIP {
		if entry.lastSeen.Before(threshold) {
			delete(l.perIP, ip)
		}
	}
}

func clientIP(r *http.Request) string {
	if forwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwardedFor != "" {
		parts := strings.Split(forwardedFor, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
