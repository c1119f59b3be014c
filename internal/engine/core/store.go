// File: internal/engine/core/store.go
package core

import (
	"container/list"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/golang/snappy"

	"github.com/AutoCookies/pomai-guard/internal/engine/eviction"
	"github.com/AutoCookies/pomai-guard/internal/engine/sizeof"
)

var (
	ErrEmptyKey = errors.New("empty key")
)

// DefaultCompressMinBytes is the smallest []byte payload considered for
// snappy compression. 0 disables compression.
const DefaultCompressMinBytes = 4096

// Options control a single Put.
type Options struct {
	Priority Priority
	TTL      time.Duration

	// SizeBytes overrides size estimation when > 0.
	SizeBytes int64
}

// Criteria selects entries for a bulk clear. Any supplied field matches
// independently (logical OR).
type Criteria struct {
	// Priority matches entries of exactly this priority.
	Priority *Priority

	// OlderThan matches entries idle longer than this duration.
	OlderThan time.Duration

	// AccessCountBelow matches entries read fewer than this many times.
	AccessCountBelow int64
}

// Stats is an aggregate snapshot of the table.
type Stats struct {
	TotalEntries       int              `json:"total_entries"`
	TotalSizeBytes     int64            `json:"total_size_bytes"`
	CapacityBytes      int64            `json:"capacity_bytes"`
	UsagePercent       float64          `json:"usage_percent"`
	SizeByPriority     map[string]int64 `json:"size_by_priority"`
	OldestAccess       time.Time        `json:"oldest_access,omitzero"`
	NewestAccess       time.Time        `json:"newest_access,omitzero"`
	AverageAccessCount float64          `json:"average_access_count"`
	Hits               uint64           `json:"hits"`
	Misses             uint64           `json:"misses"`
	Evictions          uint64           `json:"evictions"`
	Expired            uint64           `json:"expired"`
}

// Store is the entry table: a single-mutex map plus a recency list.
// The recency list front holds the most recently accessed entry, so its
// back-to-front order is exactly the eviction engine's oldest-first order,
// with ties resolved by insertion order.
type Store struct {
	mu    sync.Mutex
	items map[string]*list.Element
	ll    *list.List

	evictor     *eviction.Engine
	clk         clock.Clock
	logger      log.Logger
	compressMin int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	expired   atomic.Uint64
}

// NewStore creates a store bounded by the eviction engine's capacity.
func NewStore(evictor *eviction.Engine, clk clock.Clock, logger log.Logger) *Store {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Store{
		items:       make(map[string]*list.Element),
		ll:          list.New(),
		evictor:     evictor,
		clk:         clk,
		logger:      logger,
		compressMin: DefaultCompressMinBytes,
	}
}

// SetCompressMinBytes overrides the compression threshold. 0 disables
// compression. Not safe to call after the store is in use.
func (s *Store) SetCompressMinBytes(n int) {
	s.compressMin = n
}

// Put inserts or overwrites an entry. Space is reclaimed before insertion
// within the same critical section, so the capacity invariant holds the
// moment Put returns even under concurrent writers.
func (s *Store) Put(key string, value interface{}, opts Options) error {
	if key == "" {
		return ErrEmptyKey
	}

	if opts.Priority == priorityUnset {
		opts.Priority = PriorityMedium
	}

	value, compressed := s.encode(value)

	size := opts.SizeBytes
	if size <= 0 {
		size = sizeof.Estimate(value)
	}

	now := s.clk.Now()
	entry := &Entry{
		key:          key,
		value:        value,
		compressed:   compressed,
		size:         size,
		lastAccessed: now,
		accessCount:  1,
		priority:     opts.Priority,
		ttl:          opts.TTL,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Overwrite replaces the old entry before space accounting so the
	// deficit reflects only the incoming bytes.
	if elem, ok := s.items[key]; ok {
		s.removeLocked(elem)
	}

	if s.evictor != nil {
		s.evictor.EnsureSpace(tableView{s}, s.totalLocked(), size)
	}

	s.items[key] = s.ll.PushFront(entry)
	return nil
}

// Get returns the cached value. Expired entries are deleted on read and
// reported as absent. A hit updates the access bookkeeping and promotes
// the entry in the recency order.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		s.misses.Add(1)
		return nil, false
	}

	entry := elem.Value.(*Entry)
	now := s.clk.Now()

	if entry.expired(now) {
		s.removeLocked(elem)
		s.expired.Add(1)
		s.misses.Add(1)
		return nil, false
	}

	entry.touch(now)
	s.ll.MoveToFront(elem)
	s.hits.Add(1)

	value, err := s.decode(entry)
	if err != nil {
		// Corrupted payload is unrecoverable; drop it.
		level.Error(s.logger).Log("msg", "dropping corrupted entry", "key", key, "err", err)
		s.removeLocked(elem)
		return nil, false
	}

	return value, true
}

// Evict removes an entry if present and reports whether it existed.
func (s *Store) Evict(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return false
	}

	s.removeLocked(elem)
	s.evictions.Add(1)
	return true
}

// Clear removes every entry matching any supplied criterion and returns
// the count removed. Empty criteria match nothing.
func (s *Store) Clear(c Criteria) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	removed := 0

	var next *list.Element
	for elem := s.ll.Front(); elem != nil; elem = next {
		next = elem.Next()
		entry := elem.Value.(*Entry)

		if s.matches(entry, c, now) {
			s.removeLocked(elem)
			removed++
		}
	}

	return removed
}

func (s *Store) matches(e *Entry, c Criteria, now time.Time) bool {
	if c.Priority != nil && e.priority == *c.Priority {
		return true
	}
	if c.OlderThan > 0 && now.Sub(e.lastAccessed) > c.OlderThan {
		return true
	}
	if c.AccessCountBelow > 0 && e.accessCount < c.AccessCountBelow {
		return true
	}
	return false
}

// ClearExpired removes every TTL-lapsed entry and returns the count.
func (s *Store) ClearExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	removed := 0

	var next *list.Element
	for elem := s.ll.Front(); elem != nil; elem = next {
		next = elem.Next()
		entry := elem.Value.(*Entry)

		if entry.expired(now) {
			s.removeLocked(elem)
			s.expired.Add(1)
			removed++
		}
	}

	return removed
}

// Purge drops every entry.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*list.Element)
	s.ll = list.New()
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// TotalBytes sums live entry sizes. Recomputed by iteration on every call
// rather than maintained incrementally, trading speed for drift-proof
// accounting.
func (s *Store) TotalBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

func (s *Store) totalLocked() int64 {
	var total int64
	for elem := s.ll.Front(); elem != nil; elem = elem.Next() {
		total += elem.Value.(*Entry).size
	}
	return total
}

// TTLRemaining reports the idle time left before the key expires. The
// second return is false when the key is absent or already expired;
// entries without a TTL report a zero duration and true.
func (s *Store) TTLRemaining(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return 0, false
	}

	entry := elem.Value.(*Entry)
	now := s.clk.Now()

	if entry.expired(now) {
		s.removeLocked(elem)
		s.expired.Add(1)
		return 0, false
	}

	if entry.ttl == 0 {
		return 0, true
	}

	return entry.ttl - now.Sub(entry.lastAccessed), true
}

// Stats aggregates the table in one pass.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		TotalEntries:   len(s.items),
		SizeByPriority: make(map[string]int64, 4),
		Hits:           s.hits.Load(),
		Misses:         s.misses.Load(),
		Evictions:      s.evictions.Load(),
		Expired:        s.expired.Load(),
	}

	if s.evictor != nil {
		stats.CapacityBytes = s.evictor.Capacity()
	}

	var accessSum int64
	for elem := s.ll.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*Entry)

		stats.TotalSizeBytes += entry.size
		stats.SizeByPriority[entry.priority.String()] += entry.size
		accessSum += entry.accessCount

		if stats.OldestAccess.IsZero() || entry.lastAccessed.Before(stats.OldestAccess) {
			stats.OldestAccess = entry.lastAccessed
		}
		if entry.lastAccessed.After(stats.NewestAccess) {
			stats.NewestAccess = entry.lastAccessed
		}
	}

	if stats.TotalEntries > 0 {
		stats.AverageAccessCount = float64(accessSum) / float64(stats.TotalEntries)
	}
	if stats.CapacityBytes > 0 {
		stats.UsagePercent = float64(stats.TotalSizeBytes) / float64(stats.CapacityBytes) * 100
	}

	return stats
}

// removeLocked unlinks an element from both indexes. Caller holds mu.
func (s *Store) removeLocked(elem *list.Element) {
	entry := elem.Value.(*Entry)
	delete(s.items, entry.key)
	s.ll.Remove(elem)
}

// encode snappy-compresses large byte payloads when that actually shrinks
// them. Other value kinds are stored as-is.
func (s *Store) encode(value interface{}) (interface{}, bool) {
	b, ok := value.([]byte)
	if !ok || s.compressMin <= 0 || len(b) < s.compressMin {
		return value, false
	}

	c := snappy.Encode(nil, b)
	if len(c) >= len(b) {
		return value, false
	}

	return c, true
}

func (s *Store) decode(e *Entry) (interface{}, error) {
	if !e.compressed {
		return e.value, nil
	}

	b, err := snappy.Decode(nil, e.value.([]byte))
	if err != nil {
		return nil, err
	}
	return b, nil
}

// tableView adapts the store to the eviction engine's Table. It is only
// ever used inside the store's own critical section.
type tableView struct {
	s *Store
}

func (v tableView) CandidatesOldestFirst() []eviction.Candidate {
	out := make([]eviction.Candidate, 0, len(v.s.items))
	for elem := v.s.ll.Back(); elem != nil; elem = elem.Prev() {
		entry := elem.Value.(*Entry)
		out = append(out, eviction.Candidate{
			Key:      entry.key,
			Size:     entry.size,
			Critical: entry.priority == PriorityCritical,
		})
	}
	return out
}

func (v tableView) Remove(key string) (int64, bool) {
	elem, ok := v.s.items[key]
	if !ok {
		return 0, false
	}

	size := elem.Value.(*Entry).size
	v.s.removeLocked(elem)
	v.s.evictions.Add(1)
	return size, true
}
