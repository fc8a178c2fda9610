// Package ratelimit provides per-client request rate limiting for the HTTP surface.
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long a client's limiter is kept after its last request.
const idleTTL = time.Hour

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// client is one token bucket and when it was last used.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages rate limiting for multiple clients, one token bucket per client and endpoint.
type Limiter struct {
	config   *Config
	mu       sync.Mutex
	clients  map[string]*client
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    600,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
			EndpointConfigs: DefaultEndpointConfigs(),
		}
	}

	l := &Limiter{
		config:  config,
		clients: make(map[string]*client),
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanup(config.CleanupInterval)
	}
	return l
}

// Allow checks if a request from the given client is allowed for the specified endpoint
// and consumes a token if so.
func (l *Limiter) Allow(clientID string, path string, method string) Info {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return Info{Allowed: false}
	}

	endpoint := l.match(path, method)
	if endpoint.Limit <= 0 {
		return Info{Allowed: true}
	}

	now := l.now()
	lim := l.limiterFor(clientID+" "+endpoint.Method+" "+endpoint.Path, endpoint, now)

	info := Info{Limit: endpoint.Limit}
	if lim.AllowN(now, 1) {
		info.Allowed = true
		info.Remaining = max(int(lim.TokensAt(now)), 0)
		return info
	}

	missing := 1 - lim.TokensAt(now)
	info.RetryAfter = time.Duration(missing / float64(lim.Limit()) * float64(time.Second))
	return info
}

// match returns the endpoint configuration for a request: an exact path match first,
// then the longest prefix ending in "/", then the default.
func (l *Limiter) match(path, method string) EndpointConfig {
	var best *EndpointConfig
	for i := range l.config.EndpointConfigs {
		c := &l.config.EndpointConfigs[i]
		if c.Method != method {
			continue
		}
		if c.Path == path {
			return *c
		}
		if strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			if best == nil || len(c.Path) > len(best.Path) {
				best = c
			}
		}
	}
	if best != nil {
		return *best
	}
	return EndpointConfig{
		Path:   "*",
		Method: "*",
		Limit:  l.config.DefaultLimit,
		Window: l.config.DefaultWindow,
	}
}

func (l *Limiter) limiterFor(key string, endpoint EndpointConfig, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		window := endpoint.Window
		if window <= 0 {
			window = time.Minute
		}
		burst := endpoint.Burst
		if burst <= 0 {
			burst = endpoint.Limit
		}
		c = &client{limiter: rate.NewLimiter(rate.Limit(float64(endpoint.Limit)/window.Seconds()), burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

// cleanup periodically evicts idle clients until Stop is called.
func (l *Limiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) evictIdle() {
	cutoff := l.now().Add(-idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// Stop stops the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
