package crawler

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Ametist3d/jobhunter/internal/config"
)

// DomainLimiter enforces politeness per host: a fixed delay between
// consecutive requests plus an optional token bucket.
type DomainLimiter struct {
	delay       time.Duration
	rateLimit   config.RateLimitConfig
	mu          sync.Mutex
	lastRequest map[string]time.Time
	limiters    map[string]*rate.Limiter
}

// NewDomainLimiter builds a limiter with the given inter-request delay.
func NewDomainLimiter(delay time.Duration, rl config.RateLimitConfig) *DomainLimiter {
	return &DomainLimiter{
		delay:       delay,
		rateLimit:   rl,
		lastRequest: make(map[string]time.Time),
		limiters:    make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the host may be contacted again. It returns early with
// the context error on cancellation.
func (l *DomainLimiter) Wait(ctx context.Context, host string) error {
	host = strings.ToLower(host)

	l.mu.Lock()
	last, seen := l.lastRequest[host]
	l.lastRequest[host] = time.Now()
	limiter := l.limiterFor(host)
	l.mu.Unlock()

	if seen && l.delay > 0 {
		wait := l.delay - time.Since(last)
		if wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (l *DomainLimiter) limiterFor(host string) *rate.Limiter {
	if !l.rateLimit.Enabled() {
		return nil
	}
	if lim, ok := l.limiters[host]; ok {
		return lim
	}
	window := l.rateLimit.Window.Duration
	lim := rate.NewLimiter(rate.Limit(float64(l.rateLimit.Requests)/window.Seconds()), l.rateLimit.Requests)
	l.limiters[host] = lim
	return lim
}
