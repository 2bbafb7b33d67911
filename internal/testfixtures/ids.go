package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// IDSequence hands out predictable IDs like "prefix-1", "prefix-2".
type IDSequence struct {
	prefix  string
	counter atomic.Uint64
}

// NewIDSequence returns a sequence using the given prefix.
func NewIDSequence(prefix string) *IDSequence {
	if prefix == "" {
		prefix = "id"
	}
	return &IDSequence{prefix: prefix}
}

// Next returns the next ID in the sequence.
func (s *IDSequence) Next() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.counter.Add(1))
}
