package allocation

import (
	"prowl/internal/market"

	"github.com/shopspring/decimal"
)

// Tiers is the score-tiered allocation schedule: a coarse monotonic step
// function of confidence rather than a smooth curve. Boundaries are
// deliberately configuration, not invariants.
type Tiers struct {
	High     float64 // score above High allocates HighFrac
	Mid      float64
	Low      float64
	HighFrac float64
	MidFrac  float64
	LowFrac  float64
	BaseFrac float64
}

// DefaultTiers mirrors the Default strategy schedule.
func DefaultTiers() Tiers {
	return Tiers{
		High: 0.9, Mid: 0.8, Low: 0.7,
		HighFrac: 0.5, MidFrac: 0.3, LowFrac: 0.2, BaseFrac: 0.1,
	}
}

// Sizer converts a score and the available balance into a position size.
type Sizer struct {
	tiers Tiers
}

func NewSizer(tiers Tiers) Sizer {
	zero := Tiers{}
	if tiers == zero {
		tiers = DefaultTiers()
	}
	return Sizer{tiers: tiers}
}

// Fraction returns the share of balance committed. A manual override amount
// >0 is an operator escape hatch: the fraction becomes manual/balance and
// score-based sizing is bypassed entirely.
func (s Sizer) Fraction(score, manualAmount, balance float64) float64 {
	if manualAmount > 0 && balance > 0 {
		return manualAmount / balance
	}
	switch {
	case score > s.tiers.High:
		return s.tiers.HighFrac
	case score > s.tiers.Mid:
		return s.tiers.MidFrac
	case score > s.tiers.Low:
		return s.tiers.LowFrac
	default:
		return s.tiers.BaseFrac
	}
}

// Quantity computes the tradable contract quantity for the allocation,
// truncated to the instrument step size and clamped to its limits.
// Violations are corrected by clamping, never rejected.
func (s Sizer) Quantity(balance, fraction float64, leverage int, askPrice float64, m market.Market) float64 {
	if askPrice <= 0 || balance <= 0 || fraction <= 0 || leverage <= 0 {
		return 0
	}
	qty := balance * fraction * float64(leverage) / askPrice
	qty = truncateToStep(qty, m.StepSize)
	if m.MinQuantity > 0 && qty < m.MinQuantity {
		qty = m.MinQuantity
	}
	if m.MaxQuantity > 0 && qty > m.MaxQuantity {
		qty = m.MaxQuantity
	}
	return qty
}

// truncateToStep rounds quantity down to the instrument step size, the
// futures equivalent of amount-to-precision.
func truncateToStep(quantity, step float64) float64 {
	if step <= 0 || quantity <= 0 {
		return quantity
	}
	q := decimal.NewFromFloat(quantity)
	st := decimal.NewFromFloat(step)
	out, _ := q.Div(st).Floor().Mul(st).Float64()
	return out
}
