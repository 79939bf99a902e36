// Package ratelimit provides the rate limiting primitives used by the HTTP
// API (fixed-window per-client limits) and the signaling relay (per-connection
// token buckets).
package ratelimit

import "time"

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
