package resync

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle bounds resync load to at most one run per interval per wallet set
type Throttle struct {
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewThrottle creates a throttle allowing one event per interval per key
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// WalletSetKey produces a stable key for a set of wallet IDs regardless of
// their order in the event
func WalletSetKey(walletIDs []string) string {
	ids := make([]string, len(walletIDs))
	copy(ids, walletIDs)
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// Allow reports whether a resync for the key may run now. The first call for
// a key always passes; subsequent calls pass once per interval.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	limiter, ok := t.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(t.interval), 1)
		t.limiters[key] = limiter
	}
	t.mu.Unlock()

	return limiter.Allow()
}
