package notionpub

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter rate-limits login attempts per IP address with a token
// bucket per client.
type LoginLimiter struct {
	mu      sync.Mutex
	clients map[string]*loginClient
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

type loginClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows max attempts per window for each IP. Buckets of
// clients idle for longer than window are dropped lazily.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	if max < 1 {
		max = 1
	}
	return &LoginLimiter{
		clients: make(map[string]*loginClient),
		limit:   rate.Every(window / time.Duration(max)),
		burst:   max,
		idle:    window,
		now:     time.Now,
	}
}

// Allow reports whether ip may attempt a login now and consumes one
// attempt if so.
func (l *LoginLimiter) Allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	c, ok := l.clients[ip]
	if !ok {
		c = &loginClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Reset forgets ip, typically after a successful login.
func (l *LoginLimiter) Reset(ip string) {
	l.mu.Lock()
	delete(l.clients, ip)
	l.mu.Unlock()
}

func (l *LoginLimiter) sweep(now time.Time) {
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idle {
			delete(l.clients, ip)
		}
	}
}
