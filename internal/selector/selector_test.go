package selector

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

func card(id int, weight float64) domain.Item {
	return domain.Item{ID: id, Kind: domain.KindCard, Category: "os1", Ordinal: id, Variant: domain.VariantA, RarityWeight: weight}
}

func TestNew_EmptySet(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, domain.ErrEmptySet)

	// All-zero weights are just as empty
	_, err = New([]domain.Item{card(1, 0), card(2, 0)})
	assert.ErrorIs(t, err, domain.ErrEmptySet)
}

func TestSelector_ZeroWeightNeverDrawn(t *testing.T) {
	s, err := New([]domain.Item{card(1, 1), card(2, 0), card(3, 1)})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Size())

	for _, it := range s.PickMany(1000) {
		assert.NotEqual(t, 2, it.ID)
	}
}

func TestSelector_SingleItem(t *testing.T) {
	s, err := New([]domain.Item{card(7, 0.5)})
	require.NoError(t, err)
	assert.Equal(t, 7, s.PickOne().ID)
}

func TestSelector_DeterministicRolls(t *testing.T) {
	// Weights 1 and 3: rolls below 0.25 hit the first item.
	s, err := New([]domain.Item{card(1, 1), card(2, 3)}, WithRand(func() float64 { return 0.1 }))
	require.NoError(t, err)
	assert.Equal(t, 1, s.PickOne().ID)

	s, err = New([]domain.Item{card(1, 1), card(2, 3)}, WithRand(func() float64 { return 0.9 }))
	require.NoError(t, err)
	assert.Equal(t, 2, s.PickOne().ID)
}

func TestSelector_WeightProportions(t *testing.T) {
	// 1:3 weights over 100k seeded draws should land near 25%/75%.
	rng := rand.New(rand.NewSource(42))
	s, err := New([]domain.Item{card(1, 1), card(2, 3)}, WithRand(rng.Float64))
	require.NoError(t, err)

	const draws = 100_000
	counts := map[int]int{}
	for _, it := range s.PickMany(draws) {
		counts[it.ID]++
	}

	assert.InDelta(t, 0.25, float64(counts[1])/draws, 0.01)
	assert.InDelta(t, 0.75, float64(counts[2])/draws, 0.01)
}

func TestSelector_PickManyCount(t *testing.T) {
	s, err := New([]domain.Item{card(1, 1)})
	require.NoError(t, err)
	assert.Len(t, s.PickMany(4), 4)
	assert.Empty(t, s.PickMany(0))
}

func TestPick_Generic(t *testing.T) {
	entries := []Entry[int]{{Value: 3, Weight: 70}, {Value: 4, Weight: 25}, {Value: 5, Weight: 5}}

	v, err := Pick(entries, func() float64 { return 0.0 })
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = Pick(entries, func() float64 { return 0.71 })
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	v, err = Pick(entries, func() float64 { return 0.96 })
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	_, err = Pick([]Entry[int]{{Value: 1, Weight: 0}}, nil)
	assert.ErrorIs(t, err, domain.ErrEmptySet)
}
