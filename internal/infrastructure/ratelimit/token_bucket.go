package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"
)

// TokenBucket is a thread-safe token bucket. It backs the local fallback path
// used when the shared counter is unreachable.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	rate       float64 // tokens per second
	lastRefill time.Time
}

// NewTokenBucket creates a bucket that starts full.
func NewTokenBucket(capacity, rate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		rate:       rate,
		lastRefill: time.Now(),
	}
}

// Allow attempts to consume one token.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// refill adds tokens based on elapsed time. Must be called with lock held.
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// Available returns the current token count.
func (tb *TokenBucket) Available() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return tb.tokens
}

// TokenBucketPool manages per-key token buckets with idle cleanup. Buckets are
// created lazily at each rule's own capacity and rate, so the fallback keeps
// roughly the same quotas the shared counter enforces.
type TokenBucketPool struct {
	mu      sync.RWMutex
	buckets map[string]*bucketEntry
}

type bucketEntry struct {
	bucket *TokenBucket
	// lastUsed holds unix nanoseconds; touched under the read lock, so it
	// must be atomic.
	lastUsed atomic.Int64
}

func (e *bucketEntry) touch() {
	e.lastUsed.Store(time.Now().UnixNano())
}

// NewTokenBucketPool creates an empty pool.
func NewTokenBucketPool() *TokenBucketPool {
	return &TokenBucketPool{
		buckets: make(map[string]*bucketEntry),
	}
}

// Allow consumes one token from the bucket for key, creating it with the given
// capacity and window when absent.
func (p *TokenBucketPool) Allow(key string, capacity int, window time.Duration) bool {
	return p.getOrCreate(key, capacity, window).Allow()
}

func (p *TokenBucketPool) getOrCreate(key string, capacity int, window time.Duration) *TokenBucket {
	p.mu.RLock()
	if entry, exists := p.buckets[key]; exists {
		entry.touch()
		p.mu.RUnlock()
		return entry.bucket
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if entry, exists := p.buckets[key]; exists {
		entry.touch()
		return entry.bucket
	}

	rate := float64(capacity) / window.Seconds()
	entry := &bucketEntry{bucket: NewTokenBucket(float64(capacity), rate)}
	entry.touch()
	p.buckets[key] = entry
	return entry.bucket
}

// Remove drops the bucket for key.
func (p *TokenBucketPool) Remove(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.buckets, key)
}

// Cleanup removes buckets idle longer than maxIdle. Returns the removed count.
func (p *TokenBucketPool) Cleanup(maxIdle time.Duration) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range p.buckets {
		if now.Sub(time.Unix(0, entry.lastUsed.Load())) > maxIdle {
			delete(p.buckets, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of live buckets.
func (p *TokenBucketPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.buckets)
}
