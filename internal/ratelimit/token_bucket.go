package ratelimit

import (
	"sync"
	"time"
)

// nanoPerToken is the fixed-point scale: one token is 1e9 nano-tokens, so a
// fill rate of X tokens/sec adds exactly X nano-tokens per elapsed nanosecond.
// Integer arithmetic avoids float drift under long uptimes.
const nanoPerToken = int64(time.Second)

// TokenBucket is a deterministic token bucket refilled at an integer
// tokens/sec rate from an injected Clock.
type TokenBucket struct {
	mu sync.Mutex

	clock Clock

	capacity int64 // tokens
	fillRate int64 // tokens/sec

	availableNano int64
	last          time.Time
}

func NewTokenBucket(clock Clock, capacity, fillRate int64) *TokenBucket {
	if clock == nil {
		clock = RealClock{}
	}
	if capacity < 0 {
		capacity = 0
	}
	if fillRate < 0 {
		fillRate = 0
	}
	return &TokenBucket{
		clock:         clock,
		capacity:      capacity,
		fillRate:      fillRate,
		availableNano: capacity * nanoPerToken,
		last:          clock.Now(),
	}
}

// Allow consumes one token if available.
func (b *TokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()

	if b.availableNano < nanoPerToken {
		return false
	}
	b.availableNano -= nanoPerToken
	return true
}

func (b *TokenBucket) refillLocked() {
	now := b.clock.Now()
	if now.Before(b.last) {
		// Time went backwards; move the reference point without refilling.
		b.last = now
		return
	}
	elapsed := now.Sub(b.last).Nanoseconds()
	if elapsed <= 0 {
		return
	}
	b.last = now

	if b.fillRate <= 0 || b.capacity <= 0 {
		return
	}

	capNano := b.capacity * nanoPerToken
	need := capNano - b.availableNano
	if need <= 0 {
		b.availableNano = capNano
		return
	}
	// fillRate tokens/sec equals fillRate nano-tokens/ns at this scale. Clamp
	// before multiplying so elapsed*fillRate cannot overflow.
	if elapsed >= need/b.fillRate+1 {
		b.availableNano = capNano
		return
	}
	b.availableNano += elapsed * b.fillRate
	if b.availableNano > capNano {
		b.availableNano = capNano
	}
}
