package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloses(t *testing.T) {
	candles := []Candle{{Close: 1}, {Close: 2.5}, {Close: 3}}
	assert.Equal(t, []float64{1, 2.5, 3}, Closes(candles))
	assert.Empty(t, Closes(nil))
}

func TestAverageVolume(t *testing.T) {
	candles := []Candle{{Volume: 10}, {Volume: 20}, {Volume: 30}, {Volume: 40}}

	t.Run("trailing window", func(t *testing.T) {
		assert.Equal(t, 35.0, AverageVolume(candles, 2))
	})

	t.Run("window larger than series averages everything", func(t *testing.T) {
		assert.Equal(t, 25.0, AverageVolume(candles, 10))
	})

	t.Run("degenerate inputs", func(t *testing.T) {
		assert.Zero(t, AverageVolume(nil, 5))
		assert.Zero(t, AverageVolume(candles, 0))
	})
}
