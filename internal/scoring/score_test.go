package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearRound(t *testing.T) {
	t.Run("exact level multiples", func(t *testing.T) {
		assert.True(t, NearRound(100))
		assert.True(t, NearRound(0.5))
		assert.True(t, NearRound(99.5))
	})

	t.Run("within one percent of a level", func(t *testing.T) {
		// 100.5 sits right on the 0.5 grid
		assert.True(t, NearRound(100.5))
	})

	t.Run("off every grid", func(t *testing.T) {
		assert.False(t, NearRound(123.4567))
	})
}

func TestModelScore(t *testing.T) {
	m := NewModel(1.5)

	t.Run("all signals give exactly one", func(t *testing.T) {
		got := m.Score(100, 200, 100, true, true)
		assert.Equal(t, 1.0, got)
	})

	t.Run("no signals give zero", func(t *testing.T) {
		got := m.Score(123.4567, 100, 100, false, false)
		assert.Equal(t, 0.0, got)
	})

	t.Run("crossover alone", func(t *testing.T) {
		got := m.Score(123.4567, 100, 100, true, false)
		assert.InDelta(t, 0.375, got, 1e-9)
	})

	t.Run("volume spike requires exceeding the multiplier", func(t *testing.T) {
		at := m.Score(123.4567, 150, 100, false, false)
		above := m.Score(123.4567, 150.1, 100, false, false)
		assert.Equal(t, 0.0, at)
		assert.InDelta(t, 0.25, above, 1e-9)
	})

	t.Run("round price alone", func(t *testing.T) {
		got := m.Score(100, 100, 100, false, false)
		assert.InDelta(t, 0.25, got, 1e-9)
	})

	t.Run("fib zone alone", func(t *testing.T) {
		got := m.Score(123.4567, 100, 100, false, true)
		assert.InDelta(t, 0.125, got, 1e-9)
	})

	t.Run("zero spike threshold falls back", func(t *testing.T) {
		fallback := NewModel(0)
		assert.Equal(t, 1.5, fallback.VolumeSpike)
	})
}
