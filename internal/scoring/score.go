package scoring

import "math"

// Weights and levels mirror the Default strategy. The raw sum of all four
// signals is maxRawScore, so the normalized score lands in [0,1] exactly.
const (
	roundWeight     = 1.0
	volumeWeight    = 1.0
	crossoverWeight = 1.5
	fibZoneWeight   = 0.5
	maxRawScore     = 4.0

	roundTolerance = 0.01
)

// RoundLevels are the tested price granularities, ascending.
var RoundLevels = []float64{0.01, 0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000}

// Model scores one candidate from its indicator signals and microstructure
// cues. VolumeSpike is the avg-volume multiplier above which volume counts
// as a spike.
type Model struct {
	VolumeSpike float64
}

// NewModel returns a Model with the given spike threshold (<=0 falls back
// to 1.5).
func NewModel(volumeSpike float64) Model {
	if volumeSpike <= 0 {
		volumeSpike = 1.5
	}
	return Model{VolumeSpike: volumeSpike}
}

// NearRound reports whether price sits close to a round numeric level.
// Proximity is modulo-based: the remainder of price against a level counts
// when it is within 1% of the level from either side.
func NearRound(price float64) bool {
	for _, level := range RoundLevels {
		rem := math.Mod(price, level)
		if math.Abs(rem-level) < roundTolerance*level || rem < roundTolerance*level {
			return true
		}
	}
	return false
}

// Score combines the four sub-signals into [0,1]. With every signal firing
// the raw sum reaches maxRawScore and the result is exactly 1.
func (m Model) Score(price, volume, avgVolume float64, crossover, inFibZone bool) float64 {
	raw := 0.0
	if NearRound(price) {
		raw += roundWeight
	}
	if volume > avgVolume*m.VolumeSpike {
		raw += volumeWeight
	}
	if crossover {
		raw += crossoverWeight
	}
	if inFibZone {
		raw += fibZoneWeight
	}
	return math.Min(raw/maxRawScore, 1.0)
}
