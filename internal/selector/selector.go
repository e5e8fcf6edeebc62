// Package selector implements weighted random selection over catalog items.
// All draws are independent and with replacement.
package selector

import (
	"math/rand"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// Entry pairs an arbitrary value with its selection weight.
type Entry[T any] struct {
	Value  T
	Weight float64
}

// RandFunc supplies rolls in [0.0, 1.0). Injectable for deterministic tests.
type RandFunc func() float64

func defaultRand() float64 {
	return rand.Float64() //nolint:gosec // Game logic randomness, not security critical
}

// Pick returns the entry value chosen by a weighted roll. Entries with zero
// or negative weight are never chosen. Returns domain.ErrEmptySet when no
// entry carries positive weight.
func Pick[T any](entries []Entry[T], rnd RandFunc) (T, error) {
	var zero T
	if rnd == nil {
		rnd = defaultRand
	}

	cumul := make([]float64, 0, len(entries))
	values := make([]T, 0, len(entries))
	total := 0.0
	for _, e := range entries {
		if e.Weight <= 0 {
			continue
		}
		total += e.Weight
		cumul = append(cumul, total)
		values = append(values, e.Value)
	}
	if total == 0 {
		return zero, domain.ErrEmptySet
	}

	roll := rnd() * total
	lo, hi := 0, len(cumul)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cumul[mid] <= roll {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return values[lo], nil
}

// Selector draws catalog items proportionally to their rarity weight. The
// cumulative table is built once, so repeated draws over a stable set stay
// cheap.
type Selector struct {
	items []domain.Item
	cumul []float64
	total float64
	rnd   RandFunc
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand overrides the roll source, used by tests. A nil rnd keeps the
// default source.
func WithRand(rnd RandFunc) Option {
	return func(s *Selector) {
		if rnd != nil {
			s.rnd = rnd
		}
	}
}

// New builds a Selector over items. Items without positive weight are
// excluded; if none remain, New fails with domain.ErrEmptySet.
func New(items []domain.Item, opts ...Option) (*Selector, error) {
	s := &Selector{rnd: defaultRand}
	for _, opt := range opts {
		opt(s)
	}

	for _, it := range items {
		if it.RarityWeight <= 0 {
			continue
		}
		s.total += it.RarityWeight
		s.cumul = append(s.cumul, s.total)
		s.items = append(s.items, it)
	}
	if s.total == 0 {
		return nil, domain.ErrEmptySet
	}
	return s, nil
}

// PickOne draws a single item.
func (s *Selector) PickOne() domain.Item {
	roll := s.rnd() * s.total
	lo, hi := 0, len(s.cumul)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if s.cumul[mid] <= roll {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return s.items[lo]
}

// PickMany draws n items independently; duplicates are expected.
func (s *Selector) PickMany(n int) []domain.Item {
	picks := make([]domain.Item, n)
	for i := range picks {
		picks[i] = s.PickOne()
	}
	return picks
}

// Size reports how many items are eligible for draws.
func (s *Selector) Size() int {
	return len(s.items)
}
