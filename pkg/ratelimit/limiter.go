package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request
	Wait()
	// Reset resets the rate limiter state
	Reset()
}

// TokenBucket implements a token bucket rate limiter.
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter.
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow checks if a request can proceed.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available.
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill > 0 {
			time.Sleep(timeUntilRefill)
		} else {
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// Reset resets the token bucket to full capacity.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// Pacer imposes a randomized delay between consecutive requests to one
// source. The image hosts tolerate slow, human-ish request cadence; bursts
// get accounts flagged.
type Pacer struct {
	minDelay time.Duration
	maxDelay time.Duration
	last     time.Time
	mu       sync.Mutex
	sleep    func(time.Duration)
}

// NewPacer creates a pacer that keeps a randomized gap in [minDelay,
// maxDelay] between calls to Pace.
func NewPacer(minDelay, maxDelay time.Duration) *Pacer {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Pacer{
		minDelay: minDelay,
		maxDelay: maxDelay,
		sleep:    time.Sleep,
	}
}

// Pace blocks until the randomized inter-request gap has elapsed since the
// previous call, then records the new request time.
func (p *Pacer) Pace() {
	p.mu.Lock()
	gap := p.minDelay
	if spread := p.maxDelay - p.minDelay; spread > 0 {
		gap += time.Duration(rand.Int63n(int64(spread)))
	}
	wait := gap - time.Since(p.last)
	p.mu.Unlock()

	if wait > 0 {
		p.sleep(wait)
	}

	p.mu.Lock()
	p.last = time.Now()
	p.mu.Unlock()
}
