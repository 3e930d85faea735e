package config

import "fmt"

func validate(cfg *Config) error {
	s := cfg.Strategy
	if s.ScoreThreshold >= 1 {
		return fmt.Errorf("strategy.score_threshold must be below 1, got %v", s.ScoreThreshold)
	}
	if s.TrailStep >= s.TPOffset {
		return fmt.Errorf("strategy.trail_step (%v) must be below tp_offset (%v)", s.TrailStep, s.TPOffset)
	}
	if s.StopPercent >= 1 {
		return fmt.Errorf("strategy.stop_percent must be below 1, got %v", s.StopPercent)
	}
	if !(s.TierLow < s.TierMid && s.TierMid < s.TierHigh) {
		return fmt.Errorf("strategy tier boundaries must be ascending: %v < %v < %v",
			s.TierLow, s.TierMid, s.TierHigh)
	}
	if !(s.TierBaseFrac <= s.TierLowFrac && s.TierLowFrac <= s.TierMidFrac && s.TierMidFrac <= s.TierHighFrac) {
		return fmt.Errorf("strategy tier fractions must be non-decreasing with confidence")
	}
	if s.MinCandles < 144 {
		return fmt.Errorf("strategy.min_candles must cover the long average window (>=144), got %d", s.MinCandles)
	}
	if s.CandleLimit < s.MinCandles {
		return fmt.Errorf("strategy.candle_limit (%d) must be at least min_candles (%d)", s.CandleLimit, s.MinCandles)
	}
	return nil
}
