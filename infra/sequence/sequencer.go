package sequence

import "sync/atomic"

// Sequencer issues strictly monotonic IDs. It is deterministic and
// replay-safe: rebuilding state from the WAL reproduces the same IDs.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer. Fresh start uses 0; after WAL replay the
// caller resumes from the last replayed value.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next ID.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued ID.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Reset sets the sequencer to a specific value. Only used after replay.
func (s *Sequencer) Reset(v uint64) {
	s.next.Store(v)
}
