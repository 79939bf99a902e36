package metrics

import "sync"

// Counter names used by the relay and HTTP layers.
const (
	AuthFailure          = "auth_failure"
	WSConnections        = "ws_connections"
	RoomJoins            = "room_joins"
	SignalsRelayed       = "signals_relayed"
	DropReasonMalformed  = "dropped_malformed"
	DropReasonUnjoined   = "dropped_signal_before_join"
	DropReasonRateLimit  = "dropped_rate_limited"
	DropReasonSlowReader = "dropped_slow_reader"
	HTTPRateLimited      = "http_rate_limited"
)

// Metrics is a minimal, concurrency-safe counter registry. It exists to keep
// drop/relay accounting testable; a real metrics backend can be plugged in
// behind the same counters later.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.m[name]++
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot returns a copy of all counters, for the debug endpoint.
func (m *Metrics) Snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
