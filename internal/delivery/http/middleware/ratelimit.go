package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	h "eventplanner/internal/delivery/http/helpers"

	"golang.org/x/time/rate"
)

// LimiterConfig sets the token bucket used per key.
type LimiterConfig struct {
	RPS     float64       // steady refill rate
	Burst   int           // bucket size
	IdleTTL time.Duration // buckets unused this long are dropped
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one in-memory token bucket per key.
type RateLimiter struct {
	conf    LimiterConfig
	mu      sync.Mutex
	buckets map[string]*keyLimiter
	now     func() time.Time
}

// NewRateLimiter builds a limiter. Call Run to evict idle buckets.
func NewRateLimiter(conf LimiterConfig) *RateLimiter {
	if conf.Burst < 1 {
		conf.Burst = 1
	}
	return &RateLimiter{
		conf:    conf,
		buckets: make(map[string]*keyLimiter),
		now:     time.Now,
	}
}

// Run evicts idle buckets until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	interval := rl.conf.IdleTTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.conf.IdleTTL {
			delete(rl.buckets, k)
		}
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rate.Limit(rl.conf.RPS), rl.conf.Burst)
	rl.buckets[key] = &keyLimiter{limiter: lim, lastSeen: now}
	return lim
}

// KeySelector picks the bucket a request draws from.
type KeySelector func(r *http.Request) string

// ProxyTrust resolves the client address of a request. X-Forwarded-For is only read
// when the direct peer is one of the configured proxies. A nil ProxyTrust trusts nobody.
type ProxyTrust struct {
	prefixes []netip.Prefix
}

// NewProxyTrust parses proxies given as single addresses or CIDR ranges.
func NewProxyTrust(proxies []string) (*ProxyTrust, error) {
	p := &ProxyTrust{}
	for _, raw := range proxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			p.prefixes = append(p.prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		p.prefixes = append(p.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return p, nil
}

func (p *ProxyTrust) trusted(addr netip.Addr) bool {
	if p == nil || !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the peer address, or, behind a trusted proxy, the nearest
// X-Forwarded-For hop that is not itself a trusted proxy.
func (p *ProxyTrust) ClientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	peerAddr, err := netip.ParseAddr(peer)
	if err != nil || !p.trusted(peerAddr) {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		addr, err := netip.ParseAddr(hop)
		if err != nil {
			// A trusted proxy never writes a malformed hop.
			return peer
		}
		if !p.trusted(addr) {
			return addr.Unmap().String()
		}
	}
	return peer
}

// UserOrIP keys authenticated requests by user ID and anonymous ones by client IP.
func (p *ProxyTrust) UserOrIP(r *http.Request) string {
	if id, ok := UserIDFromContext(r.Context()); ok {
		return "user:" + id
	}
	return "ip:" + p.ClientIP(r)
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// Limit rejects requests with 429 once the key's bucket is empty.
func (rl *RateLimiter) Limit(selectKey KeySelector) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rl.limiterFor(selectKey(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				h.WriteJSONError(w, http.StatusTooManyRequests, h.ErrCodeTooManyRequests, "too many requests, try again later")
				return
			}
			next(w, r)
		}
	}
}
