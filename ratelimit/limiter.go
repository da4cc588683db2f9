package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Unbounded is the reported limit for skip-tier endpoints and for a
// disabled limiter.
const Unbounded = -1

// Tier classifies an endpoint's rate-limit treatment.
type Tier int

const (
	TierDefault Tier = iota
	TierStrict
	TierSkip
)

// Config is the limiter's typed configuration.
type Config struct {
	Enabled         bool
	Max             int
	WindowSeconds   int
	Message         string
	StrictEndpoints []string
	SkipEndpoints   []string
}

func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Max:           100,
		WindowSeconds: 60,
		Message:       "too many requests",
	}
}

// Result is the outcome of a single Check call.
type Result struct {
	Allowed   bool
	Limit     int
	Current   int
	Remaining int
	// ResetIn is the number of seconds until the current window elapses.
	ResetIn int
}

type entry struct {
	count       int
	windowStart time.Time
}

// Limiter is a fixed-window request counter keyed by (client IP,
// normalized endpoint path). All bookkeeping is process-local.
type Limiter struct {
	cfg    Config
	window time.Duration
	strict map[string]struct{}
	skip   map[string]struct{}

	mu      sync.Mutex
	entries map[string]*entry

	// now is swapped in tests to drive window transitions.
	now func() time.Time
}

func New(cfg Config) *Limiter {
	l := &Limiter{
		cfg:     cfg,
		window:  time.Duration(cfg.WindowSeconds) * time.Second,
		strict:  make(map[string]struct{}, len(cfg.StrictEndpoints)),
		skip:    make(map[string]struct{}, len(cfg.SkipEndpoints)),
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, p := range cfg.StrictEndpoints {
		l.strict[normalizePath(p)] = struct{}{}
	}
	for _, p := range cfg.SkipEndpoints {
		l.skip[normalizePath(p)] = struct{}{}
	}
	return l
}

func (l *Limiter) Enabled() bool {
	return l.cfg.Enabled
}

func (l *Limiter) Message() string {
	return l.cfg.Message
}

// normalizePath strips the query string so /profile?x=1 and /profile?y=2
// share one counter.
func normalizePath(path string) string {
	if i := strings.Index(path, "?"); i >= 0 {
		return path[:i]
	}
	return path
}

// TierFor returns the configured tier for an endpoint path. Configured
// endpoints match exactly or as a path suffix, so "/sign-in/email" covers
// any base path it is mounted under.
func (l *Limiter) TierFor(path string) Tier {
	p := normalizePath(path)
	if _, ok := l.skip[p]; ok {
		return TierSkip
	}
	if _, ok := l.strict[p]; ok {
		return TierStrict
	}
	for s := range l.skip {
		if strings.HasSuffix(p, s) {
			return TierSkip
		}
	}
	for s := range l.strict {
		if strings.HasSuffix(p, s) {
			return TierStrict
		}
	}
	return TierDefault
}

func (l *Limiter) effectiveLimit(tier Tier) int {
	if tier == TierStrict {
		return (l.cfg.Max + 1) / 2 // ceil(max/2)
	}
	return l.cfg.Max
}

// Check records one request for (ip, path) and reports whether it is
// allowed. The reset-or-increment sequence is atomic per key.
func (l *Limiter) Check(ip, path string) Result {
	if !l.cfg.Enabled {
		return Result{Allowed: true, Limit: Unbounded, Remaining: Unbounded}
	}
	tier := l.TierFor(path)
	if tier == TierSkip {
		return Result{Allowed: true, Limit: Unbounded, Remaining: Unbounded}
	}

	limit := l.effectiveLimit(tier)
	key := ip + "|" + normalizePath(path)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) >= l.window {
		e = &entry{count: 1, windowStart: now}
		l.entries[key] = e
	} else {
		e.count++
	}

	remaining := limit - e.count
	if remaining < 0 {
		remaining = 0
	}
	resetIn := int((l.window - now.Sub(e.windowStart)).Seconds())

	return Result{
		Allowed:   e.count <= limit,
		Limit:     limit,
		Current:   e.count,
		Remaining: remaining,
		ResetIn:   resetIn,
	}
}

// Reset clears every entry for the given IP across all endpoints.
func (l *Limiter) Reset(ip string) {
	prefix := ip + "|"
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.entries {
		if strings.HasPrefix(key, prefix) {
			delete(l.entries, key)
		}
	}
}

// Clear empties the whole table.
func (l *Limiter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*entry)
}

// Sweep evicts entries whose window has long elapsed. Correctness does not
// depend on it: an evicted entry is recreated with a fresh window on the
// next Check, which the window-elapsed branch would have done anyway.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, e := range l.entries {
		if now.Sub(e.windowStart) >= 2*l.window {
			delete(l.entries, key)
		}
	}
}

// StartSweep runs Sweep on a ticker until ctx is cancelled.
func (l *Limiter) StartSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}
