package mcp

import (
	"sync"
)

// DefaultDigestCapacity is the number of digests kept for drill-down.
const DefaultDigestCapacity = 100

// DigestStore keeps digests so get_pattern_details can expand a pattern
// summarized in an earlier manifest.
type DigestStore interface {
	// Store saves the digest for a request.
	Store(requestID string, d Digest)
	// Get retrieves a single pattern by ID.
	Get(requestID, patternID string) (Pattern, bool)
	// GetAll retrieves the full digest for a request.
	GetAll(requestID string) (Digest, bool)
}

// InMemoryStore is a thread-safe DigestStore that forgets the oldest request
// once capacity is reached.
type InMemoryStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	digests  map[string]Digest             // request_id -> digest
	patterns map[string]map[string]Pattern // request_id -> pattern_id -> pattern
}

// NewInMemoryStore creates a digest store. Non-positive capacity uses
// DefaultDigestCapacity.
func NewInMemoryStore(capacity int) *InMemoryStore {
	if capacity <= 0 {
		capacity = DefaultDigestCapacity
	}
	return &InMemoryStore{
		capacity: capacity,
		digests:  make(map[string]Digest),
		patterns: make(map[string]map[string]Pattern),
	}
}

// Store saves a digest indexed by pattern ID.
func (s *InMemoryStore) Store(requestID string, d Digest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.digests[requestID]; !exists {
		s.order = append(s.order, requestID)
	}
	s.digests[requestID] = d

	index := make(map[string]Pattern, len(d.ErrorPatterns)+len(d.OtherPatterns))
	for _, p := range d.ErrorPatterns {
		index[p.ID] = p
	}
	for _, p := range d.OtherPatterns {
		index[p.ID] = p
	}
	s.patterns[requestID] = index

	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.digests, oldest)
		delete(s.patterns, oldest)
	}
}

// Get retrieves a pattern by ID.
func (s *InMemoryStore) Get(requestID, patternID string) (Pattern, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index, ok := s.patterns[requestID]; ok {
		p, found := index[patternID]
		return p, found
	}
	return Pattern{}, false
}

// GetAll retrieves the full digest.
func (s *InMemoryStore) GetAll(requestID string) (Digest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.digests[requestID]
	return d, ok
}

// Len returns the number of cached digests.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
