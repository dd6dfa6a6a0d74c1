package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an address keeps its limiter without requests.
const limiterIdleTTL = 10 * time.Minute

// IPRateLimiter stores a rate limiter per client address. Limiters for idle
// addresses expire so the table does not grow without bound.
type IPRateLimiter struct {
	ips *cache.Cache
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: cache.New(limiterIdleTTL, 2*limiterIdleTTL),
		r:   r,
		b:   b,
	}
}

// GetLimiter returns the rate limiter for an address, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if l, found := i.ips.Get(ip); found {
		i.ips.SetDefault(ip, l)
		return l.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(i.r, i.b)
	i.ips.SetDefault(ip, limiter)
	return limiter
}

// Len returns the number of tracked addresses.
func (i *IPRateLimiter) Len() int {
	return i.ips.ItemCount()
}

// RateLimiter is a middleware for IP-based rate limiting. When header is set
// (e.g. X-Forwarded-For behind a proxy) its value identifies the client.
func RateLimiter(r rate.Limit, b int, header string) gin.HandlerFunc {
	limiter := NewIPRateLimiter(r, b)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if header != "" {
			if v := c.GetHeader(header); v != "" {
				ip = v
			}
		}
		if !limiter.GetLimiter(ip).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
