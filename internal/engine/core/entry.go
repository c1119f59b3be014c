// File: internal/engine/core/entry.go
package core

import (
	"time"
)

// Priority biases eviction order independent of recency.
type Priority int

const (
	// priorityUnset is the zero value; Put treats it as PriorityMedium.
	priorityUnset Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParsePriority maps a priority name to its value. Unknown names report
// false.
func ParsePriority(s string) (Priority, bool) {
	switch s {
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	case "critical":
		return PriorityCritical, true
	default:
		return PriorityMedium, false
	}
}

// Entry is one cached object. Owned exclusively by the Store; all mutation
// happens under the store lock.
type Entry struct {
	key          string
	value        interface{}
	compressed   bool
	size         int64
	lastAccessed time.Time
	accessCount  int64
	priority     Priority
	ttl          time.Duration
}

func (e *Entry) Key() string             { return e.key }
func (e *Entry) Size() int64             { return e.size }
func (e *Entry) Priority() Priority      { return e.priority }
func (e *Entry) AccessCount() int64      { return e.accessCount }
func (e *Entry) LastAccessed() time.Time { return e.lastAccessed }
func (e *Entry) TTL() time.Duration      { return e.ttl }

// expired reports whether the entry has exceeded its idle TTL. Entries
// without a TTL never expire.
func (e *Entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.lastAccessed) > e.ttl
}

// touch records a successful read.
func (e *Entry) touch(now time.Time) {
	e.lastAccessed = now
	e.accessCount++
}
