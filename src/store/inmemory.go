package store

import (
	"sort"
	"sync"

	"opslens/src/contracts"
)

// AppendHook observes every Append with the resulting size and the number of
// records evicted by it. It runs under the store's write lock, so calls are
// serialized in append order and must not call back into the store.
type AppendHook func(size, evicted int)

// InMemoryStore is a thread-safe, capacity-bounded FIFO of classified logs.
// Appends take the write lock; reads share the read lock and return copies.
type InMemoryStore struct {
	mu       sync.RWMutex
	logs     []contracts.ClassifiedLog
	capacity int
	onAppend AppendHook
}

// Option configures an InMemoryStore.
type Option func(*InMemoryStore)

// WithAppendHook registers a hook called after each Append and Clear.
func WithAppendHook(hook AppendHook) Option {
	return func(s *InMemoryStore) {
		s.onAppend = hook
	}
}

// NewInMemoryStore creates a store retaining at most capacity records.
// A non-positive capacity uses DefaultCapacity.
func NewInMemoryStore(capacity int, opts ...Option) *InMemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &InMemoryStore{capacity: capacity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capacity returns the maximum number of retained records.
func (s *InMemoryStore) Capacity() int {
	return s.capacity
}

// Append adds the batch in order, then trims the oldest excess in one step.
func (s *InMemoryStore) Append(batch []contracts.ClassifiedLog) {
	if len(batch) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, batch...)

	evicted := 0
	if excess := len(s.logs) - s.capacity; excess > 0 {
		// Release references held by the evicted prefix of the backing array.
		clear(s.logs[:excess])
		s.logs = s.logs[excess:]
		evicted = excess
	}
	if s.onAppend != nil {
		s.onAppend(len(s.logs), evicted)
	}
}

// All returns a copy of every retained record, oldest first.
func (s *InMemoryStore) All() []contracts.ClassifiedLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]contracts.ClassifiedLog, len(s.logs))
	copy(result, s.logs)
	return result
}

// Filter returns the records matching pred, preserving store order.
func (s *InMemoryStore) Filter(pred func(contracts.ClassifiedLog) bool) []contracts.ClassifiedLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []contracts.ClassifiedLog
	for _, log := range s.logs {
		if pred(log) {
			result = append(result, log)
		}
	}
	return result
}

// Query applies opts, sorts newest first and truncates to opts.Limit
// (DefaultQueryLimit when unset).
func (s *InMemoryStore) Query(opts QueryOptions) ([]contracts.ClassifiedLog, int) {
	matched := s.Filter(opts.Matches)
	SortNewestFirst(matched)

	total := len(matched)
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	if matched == nil {
		matched = []contracts.ClassifiedLog{}
	}
	return matched, total
}

// Recent returns up to n records, newest first. n <= 0 returns all of them.
func (s *InMemoryStore) Recent(n int) []contracts.ClassifiedLog {
	logs := s.All()
	SortNewestFirst(logs)
	if n > 0 && len(logs) > n {
		logs = logs[:n]
	}
	return logs
}

// Get retrieves a single record by ID.
func (s *InMemoryStore) Get(id string) (contracts.ClassifiedLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, log := range s.logs {
		if log.ID == id {
			return log, nil
		}
	}
	return contracts.ClassifiedLog{}, ErrNotFound{ID: id}
}

// Clear removes every record.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = nil
	if s.onAppend != nil {
		s.onAppend(0, 0)
	}
}

// Len returns the number of retained records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs)
}

// SortNewestFirst orders logs by timestamp descending. Equal timestamps keep
// their relative order.
func SortNewestFirst(logs []contracts.ClassifiedLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
}

var _ Store = (*InMemoryStore)(nil)
