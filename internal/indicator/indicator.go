package indicator

import (
	"prowl/internal/market"

	talib "github.com/markcheno/go-talib"
)

const (
	// SMMALength is the short smoothed average used by the crossover check.
	SMMALength = 5
	// WMALength is the long weighted average used by the crossover check.
	WMALength = 144
	// FibWindow is the trailing range used for the retracement zone.
	FibWindow = 50

	fibUpperRatio = 0.382
	fibLowerRatio = 0.618
)

// SMMA computes the recursive smoothed moving average. The first value seeds
// the series; each subsequent value is (prev*(length-1)+current)/length.
// Output has the same length as the input.
func SMMA(values []float64, length int) []float64 {
	if len(values) == 0 || length <= 0 {
		return nil
	}
	out := make([]float64, len(values))
	out[0] = values[0]
	l := float64(length)
	for i := 1; i < len(values); i++ {
		out[i] = (out[i-1]*(l-1) + values[i]) / l
	}
	return out
}

// WMA computes the trailing linearly-weighted moving average with weights
// 1..length. The first length-1 entries carry no signal (talib zero-fills
// the warmup region).
func WMA(values []float64, length int) []float64 {
	if len(values) < length || length <= 0 {
		return nil
	}
	return talib.Wma(values, length)
}

// Crossover reports a bullish SMMA/WMA crossover: the short smoothed average
// was below the long weighted average on the prior bar and is above it on the
// latest bar. Series shorter than WMALength always report false.
func Crossover(candles []market.Candle) bool {
	if len(candles) < WMALength {
		return false
	}
	closes := market.Closes(candles)
	smma := SMMA(closes, SMMALength)
	wma := WMA(closes, WMALength)
	if len(wma) < 2 || len(smma) < 2 {
		return false
	}
	last := len(closes) - 1
	prev := last - 1
	if wma[prev] == 0 {
		// prior bar is still inside the WMA warmup region
		return false
	}
	return smma[prev] < wma[prev] && smma[last] > wma[last]
}

// FibZone reports whether the latest close sits inside the 38.2%-61.8%
// retracement band of the trailing FibWindow high-low range, inclusive on
// both bounds. Series shorter than FibWindow always report false.
func FibZone(candles []market.Candle) bool {
	if len(candles) < FibWindow {
		return false
	}
	window := candles[len(candles)-FibWindow:]
	high := window[0].High
	low := window[0].Low
	for _, c := range window[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	span := high - low
	upper := high - span*fibUpperRatio
	lower := high - span*fibLowerRatio
	latest := candles[len(candles)-1].Close
	return latest >= lower && latest <= upper
}
