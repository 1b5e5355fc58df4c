package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/recstore/internal/record"
)

// Sequence is a thread-safe counter for deterministic generated values in
// tests. It can be reset so the same scenario produces the same values.
type Sequence struct {
	mu  sync.Mutex
	seq int64
}

// NewSequence creates a sequence starting at 0. The first Next returns 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next increments and returns the next value.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Current returns the current value without incrementing.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset resets the sequence to 0.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}

// UUID is a schema.DefaultFunc producing well-formed version 7 UUIDs
// numbered by the sequence.
func (s *Sequence) UUID(record.Record) any {
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", s.Next())
}
