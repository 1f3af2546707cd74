// Package fence issues per-key monotonic tickets so that stale work can be recognised and dropped.
package fence

import "sync"

// Sequencer hands out tickets per key. Advance moves a key forward so every
// ticket issued before it stops being the latest.
type Sequencer struct {
	mu   sync.Mutex
	seqs map[string]uint64
}

// NewSequencer returns an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{seqs: make(map[string]uint64)}
}

// Next issues a new ticket for key.
func (s *Sequencer) Next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[key]++
	return s.seqs[key]
}

// Advance invalidates all outstanding tickets for the given keys.
func (s *Sequencer) Advance(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		s.seqs[key]++
	}
}

// Current returns the latest sequence for key without issuing a ticket.
func (s *Sequencer) Current(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seqs[key]
}

// IsLatest reports whether ticket is still the newest sequence of key.
func (s *Sequencer) IsLatest(key string, ticket uint64) bool {
	return s.Current(key) == ticket
}
