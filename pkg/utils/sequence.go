package utils

import "sync/atomic"

// Sequence hands out monotonically increasing tokens and remembers the
// newest one committed, so late responses from older requests can be dropped.
type Sequence struct {
	next      atomic.Uint64
	committed atomic.Uint64
}

// Next returns a fresh token for a request about to start
func (s *Sequence) Next() uint64 {
	return s.next.Add(1)
}

// Commit records token as applied. It returns false when a newer token was
// already committed, in which case the caller must discard its result.
func (s *Sequence) Commit(token uint64) bool {
	for {
		cur := s.committed.Load()
		if token <= cur {
			return false
		}
		if s.committed.CompareAndSwap(cur, token) {
			return true
		}
	}
}

// Latest returns the newest committed token
func (s *Sequence) Latest() uint64 {
	return s.committed.Load()
}
