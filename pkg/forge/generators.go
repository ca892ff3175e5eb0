package forge

import (
	"iter"
	"math/rand/v2"
	"slices"
	"sync"
)

// Sequence is an infinite, lazily evaluated sequence over a fixed set of
// values. Its cursor is private to the Sequence and guarded by a mutex.
type Sequence[V any] struct {
	mu   sync.Mutex
	next func() V
}

// Next advances the cursor and returns the value.
func (s *Sequence[V]) Next() V {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next()
}

// Take returns the next n values.
func (s *Sequence[V]) Take(n int) []V {
	out := make([]V, 0, max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, s.Next())
	}
	return out
}

// All ranges over the sequence from its current position. The range never
// ends on its own; break out of it.
func (s *Sequence[V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		for yield(s.Next()) {
		}
	}
}

// Iterate returns a round-robin sequence yielding values in order, then
// repeating. Every call starts an independent cursor at values[0].
func Iterate[V any](values []V) (*Sequence[V], error) {
	if len(values) == 0 {
		return nil, validationError(msgEmptyGenerator, nil)
	}
	vals := slices.Clone(values)
	i := 0
	return &Sequence[V]{next: func() V {
		v := vals[i]
		i = (i + 1) % len(vals)
		return v
	}}, nil
}

// IntNSource is a source of uniform ints in [0, n). *rand.Rand and
// *values.Provider satisfy it.
type IntNSource interface {
	IntN(n int) int
}

// Sample returns a random sequence over values that never emits the same value
// twice in a row when values holds more than one distinct value.
func Sample[V comparable](values []V) (*Sequence[V], error) {
	return SampleFrom(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), values)
}

// SampleFrom is Sample drawing from src. src must not be used concurrently
// unless it is safe for concurrent use.
func SampleFrom[V comparable](src IntNSource, values []V) (*Sequence[V], error) {
	if len(values) == 0 {
		return nil, validationError(msgEmptyGenerator, nil)
	}
	vals := slices.Clone(values)

	distinct := false
	for _, v := range vals[1:] {
		if v != vals[0] {
			distinct = true
			break
		}
	}

	var (
		last       V
		started    bool
		candidates = make([]V, 0, len(vals))
	)
	return &Sequence[V]{next: func() V {
		if !started || !distinct {
			started = true
			last = vals[src.IntN(len(vals))]
			return last
		}
		candidates = candidates[:0]
		for _, v := range vals {
			if v != last {
				candidates = append(candidates, v)
			}
		}
		last = candidates[src.IntN(len(candidates))]
		return last
	}}, nil
}
