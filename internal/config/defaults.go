package config

// applyDefaults fills every zero field with the documented default.
func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":8900"
	}
	if c.Exchange.HTTPTimeoutSeconds <= 0 {
		c.Exchange.HTTPTimeoutSeconds = 15
	}
	if c.Store.TradingDB == "" {
		c.Store.TradingDB = "user_data/prowl.db"
	}
	if c.Store.ActionLogDB == "" {
		c.Store.ActionLogDB = "user_data/prowl_log.db"
	}
	c.Strategy.applyDefaults()
}

func (s *StrategyConfig) applyDefaults() {
	if s.Name == "" {
		s.Name = "Default"
	}
	if s.ScoreThreshold <= 0 {
		s.ScoreThreshold = 0.6
	}
	if s.TopN <= 0 {
		s.TopN = 5
	}
	if s.Timeframe == "" {
		s.Timeframe = "15m"
	}
	if s.CandleLimit <= 0 {
		s.CandleLimit = 200
	}
	if s.MinCandles <= 0 {
		s.MinCandles = 150
	}
	if s.AvgVolumeWindow <= 0 {
		s.AvgVolumeWindow = 50
	}
	if s.VolumeSpike <= 0 {
		s.VolumeSpike = 1.5
	}
	if len(s.FallbackPairs) == 0 {
		s.FallbackPairs = []string{"BTCUSDT", "ETHUSDT", "OPUSDT"}
	}
	if s.TierHigh <= 0 {
		s.TierHigh = 0.9
	}
	if s.TierMid <= 0 {
		s.TierMid = 0.8
	}
	if s.TierLow <= 0 {
		s.TierLow = 0.7
	}
	if s.TierHighFrac <= 0 {
		s.TierHighFrac = 0.5
	}
	if s.TierMidFrac <= 0 {
		s.TierMidFrac = 0.3
	}
	if s.TierLowFrac <= 0 {
		s.TierLowFrac = 0.2
	}
	if s.TierBaseFrac <= 0 {
		s.TierBaseFrac = 0.1
	}
	if s.TPOffset <= 0 {
		s.TPOffset = 0.02
	}
	if s.TrailStep <= 0 {
		s.TrailStep = 0.005
	}
	if s.StopPercent <= 0 {
		s.StopPercent = 0.01
	}
	if s.PollIntervalSeconds <= 0 {
		s.PollIntervalSeconds = 2
	}
	if s.ErrorBackoffSeconds <= 0 {
		s.ErrorBackoffSeconds = 5
	}
	if s.MaxDurationSeconds <= 0 {
		s.MaxDurationSeconds = 600
	}
	if s.TimeoutScoreFactor <= 0 {
		s.TimeoutScoreFactor = 0.5
	}
	if s.BalanceHaircut <= 0 || s.BalanceHaircut > 1 {
		s.BalanceHaircut = 0.99
	}
	if s.LoopIntervalSeconds <= 0 {
		s.LoopIntervalSeconds = 15
	}
}
