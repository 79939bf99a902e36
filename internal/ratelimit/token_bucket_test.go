package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTokenBucketStartsFull(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := NewTokenBucket(clock, 3, 1)

	for i := 0; i < 3; i++ {
		if !b.Allow() {
			t.Fatalf("allow %d: want true", i)
		}
	}
	if b.Allow() {
		t.Fatal("bucket should be empty")
	}
}

func TestTokenBucketRefills(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := NewTokenBucket(clock, 2, 2)

	if !b.Allow() || !b.Allow() {
		t.Fatal("initial tokens should be available")
	}
	if b.Allow() {
		t.Fatal("bucket should be empty")
	}

	// 2 tokens/sec: half a second refills one token.
	clock.advance(500 * time.Millisecond)
	if !b.Allow() {
		t.Fatal("expected one refilled token")
	}
	if b.Allow() {
		t.Fatal("only one token should have refilled")
	}
}

func TestTokenBucketClampsToCapacity(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := NewTokenBucket(clock, 2, 100)

	b.Allow()
	b.Allow()
	clock.advance(time.Hour)

	if !b.Allow() || !b.Allow() {
		t.Fatal("bucket should be refilled to capacity")
	}
	if b.Allow() {
		t.Fatal("refill must clamp to capacity")
	}
}

func TestTokenBucketTimeGoingBackwards(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := NewTokenBucket(clock, 1, 1)

	if !b.Allow() {
		t.Fatal("initial token should be available")
	}
	clock.now = clock.now.Add(-time.Minute)
	if b.Allow() {
		t.Fatal("no refill when time goes backwards")
	}
}

func TestTokenBucketZeroRate(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := NewTokenBucket(clock, 1, 0)

	if !b.Allow() {
		t.Fatal("initial token should be available")
	}
	clock.advance(time.Hour)
	if b.Allow() {
		t.Fatal("zero fill rate must never refill")
	}
}
