// Package chat tracks the message-throughput and uptime statistics served
// by the monitoring API.
package chat

import (
	"sync"
	"time"
)

// Stats accumulates counters for the monitoring dashboard: total messages
// broadcast, a sliding one-minute message window, and process uptime.
type Stats struct {
	start time.Time

	mu     sync.Mutex
	total  uint64
	recent []time.Time
}

// NewStats starts the uptime clock at the time of the call.
func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

// RecordMessage notes one chat message broadcast now.
func (st *Stats) RecordMessage() {
	now := time.Now()

	st.mu.Lock()
	st.total++
	st.recent = append(st.recent, now)
	st.prune(now)
	st.mu.Unlock()
}

// MessageCount returns the total number of chat messages broadcast since
// startup.
func (st *Stats) MessageCount() uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.total
}

// MessagesPerMinute returns how many chat messages were broadcast in the
// last sixty seconds.
func (st *Stats) MessagesPerMinute() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.prune(time.Now())
	return len(st.recent)
}

// Uptime reports how long the server has been running.
func (st *Stats) Uptime() time.Duration {
	return time.Since(st.start)
}

// prune drops window entries older than one minute. Callers hold st.mu.
func (st *Stats) prune(now time.Time) {
	cutoff := now.Add(-time.Minute)
	keep := 0
	for keep < len(st.recent) && st.recent[keep].Before(cutoff) {
		keep++
	}
	if keep > 0 {
		st.recent = append(st.recent[:0], st.recent[keep:]...)
	}
}
