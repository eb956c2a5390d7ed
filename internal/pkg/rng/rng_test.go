package rng_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/expedition-api/internal/pkg/rng"
)

func TestSameSeedSameSequence(t *testing.T) {
	a := rng.New("abc")
	b := rng.New("abc")

	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Range(1, 20), b.Range(1, 20), "draw %d diverged", i)
	}
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64(), "float draw %d diverged", i)
	}
	require.Equal(t, a.Roll(4, 6), b.Roll(4, 6))
}

func TestNumericSeedMatchesStringForm(t *testing.T) {
	a := rng.NewFromInt(42)
	b := rng.New("42")

	assert.Equal(t, a.Range(1, 100), b.Range(1, 100))
	assert.Equal(t, "42", a.Seed())
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := rng.New("abc")
	b := rng.New("abd")

	same := true
	for i := 0; i < 20; i++ {
		if a.Range(1, 1000000) != b.Range(1, 1000000) {
			same = false
			break
		}
	}
	assert.False(t, same, "distinct seeds produced identical sequences")
}

func TestRangeIsInclusive(t *testing.T) {
	s := rng.New("bounds")

	sawMin, sawMax := false, false
	for i := 0; i < 10000; i++ {
		v := s.Range(1, 6)
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, 6)
		if v == 1 {
			sawMin = true
		}
		if v == 6 {
			sawMax = true
		}
	}
	assert.True(t, sawMin, "never drew the minimum")
	assert.True(t, sawMax, "never drew the maximum")

	assert.Equal(t, 3, s.Range(3, 3))
}

func TestFloat64HalfOpen(t *testing.T) {
	s := rng.New("floats")
	for i := 0; i < 10000; i++ {
		v := s.Float64()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestChoice(t *testing.T) {
	s := rng.New("choice")
	list := []string{"goblin", "skeleton", "slime"}

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[rng.Choice(s, list)] = true
	}
	assert.Len(t, seen, 3)
}
