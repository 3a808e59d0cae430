package translate

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const limiterClients = 4096

// Limiter throttles callers individually, keyed by client address. The least
// recently seen clients are forgotten once the table is full.
type Limiter struct {
	mu      sync.Mutex
	every   rate.Limit
	burst   int
	clients *lru.Cache[string, *rate.Limiter]
}

// NewLimiter allows perMinute calls per client with a burst of the same size.
func NewLimiter(perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	clients, _ := lru.New[string, *rate.Limiter](limiterClients)
	return &Limiter{
		every:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		clients: clients,
	}
}

// Allow reports whether client may make a call now.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	lim, ok := l.clients.Get(client)
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.clients.Add(client, lim)
	}
	l.mu.Unlock()
	return lim.Allow()
}
