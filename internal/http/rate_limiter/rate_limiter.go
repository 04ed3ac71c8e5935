package rate_limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*clientLimiter)
	mu       sync.Mutex

	limit rate.Limit = 5
	burst            = 10
)

// Configure sets the per-client rate for limiters created from now on.
func Configure(rps float64, b int) {
	mu.Lock()
	defer mu.Unlock()

	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if b > 0 {
		burst = b
	}
}

func GetVisitor(ip string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	v, exists := visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(limit, burst)
		visitors[ip] = &clientLimiter{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// StartVisitorCleanupLoop forgets clients idle for more than five minutes until ctx is done.
func StartVisitorCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mu.Lock()
			for ip, v := range visitors {
				if time.Since(v.lastSeen) > 5*time.Minute {
					delete(visitors, ip)
				}
			}
			mu.Unlock()
		}
	}
}

func CleanupAllVisitors() {
	mu.Lock()
	defer mu.Unlock()

	visitors = make(map[string]*clientLimiter)
}
