package middleware

import (
	"net/http"
	"sync"
	"time"

	"go-idcard/internal/shared/apperror"
	"go-idcard/internal/shared/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type IPRateLimiter struct {
	ips map[string]*limiterEntry
	mu  sync.Mutex
	r   rate.Limit // requests per second
	b   int        // burst
	now func() time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*limiterEntry),
		r:   r,
		b:   b,
		now: time.Now,
	}
}

// GetLimiter returns the limiter for key and evicts limiters idle longer
// than limiterIdleTTL.
func (i *IPRateLimiter) GetLimiter(key string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	for k, e := range i.ips {
		if k != key && now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(i.ips, k)
		}
	}

	e, exists := i.ips[key]
	if !exists {
		e = &limiterEntry{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

func RateLimitByIP(r rate.Limit, b int) gin.HandlerFunc {
	return rateLimitWith(NewIPRateLimiter(r, b))
}

func rateLimitWith(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			response.Abort(c, http.StatusTooManyRequests, apperror.CodeTooManyRequests, "Too many requests from this IP")
			return
		}
		c.Next()
	}
}
