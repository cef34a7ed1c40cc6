package sequence

import (
	"sync"
	"testing"
)

func TestSequencerMonotonic(t *testing.T) {
	s := New(0)
	for want := uint64(1); want <= 5; want++ {
		if got := s.Next(); got != want {
			t.Fatalf("Next() = %d; want %d", got, want)
		}
	}
	if s.Current() != 5 {
		t.Fatalf("Current() = %d; want 5", s.Current())
	}

	s.Reset(100)
	if got := s.Next(); got != 101 {
		t.Fatalf("Next() after reset = %d; want 101", got)
	}
}

func TestSequencerConcurrentUniqueness(t *testing.T) {
	s := New(0)
	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	results := make([][]uint64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			out := make([]uint64, perWorker)
			for i := range out {
				out[i] = s.Next()
			}
			results[w] = out
		}(w)
	}
	wg.Wait()

	seen := make(map[uint64]bool, workers*perWorker)
	for _, out := range results {
		for _, v := range out {
			if seen[v] {
				t.Fatalf("duplicate sequence %d", v)
			}
			seen[v] = true
		}
	}
	if s.Current() != workers*perWorker {
		t.Fatalf("Current() = %d; want %d", s.Current(), workers*perWorker)
	}
}
