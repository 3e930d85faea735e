package config

// Config is the full application configuration, loaded from YAML.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Telegram TelegramConfig `yaml:"telegram"`
	Store    StoreConfig    `yaml:"store"`
	Strategy StrategyConfig `yaml:"strategy"`
}

type AppConfig struct {
	LogLevel string `yaml:"log_level"`
	LogPath  string `yaml:"log_path"`
	HTTPAddr string `yaml:"http_addr"`
}

type ExchangeConfig struct {
	APIKey             string `yaml:"api_key"`
	APISecret          string `yaml:"api_secret"`
	RESTBaseURL        string `yaml:"rest_base_url"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

type StoreConfig struct {
	TradingDB   string `yaml:"trading_db"`
	ActionLogDB string `yaml:"action_log_db"`
}

// StrategyConfig carries every tunable of the Default strategy. The values
// were tuned by trial in production, so they live here rather than as
// hard-coded invariants.
type StrategyConfig struct {
	Name string `yaml:"name"`

	// scan
	ScoreThreshold  float64  `yaml:"score_threshold"`
	TopN            int      `yaml:"top_n"`
	Timeframe       string   `yaml:"timeframe"`
	CandleLimit     int      `yaml:"candle_limit"`
	MinCandles      int      `yaml:"min_candles"`
	AvgVolumeWindow int      `yaml:"avg_volume_window"`
	VolumeSpike     float64  `yaml:"volume_spike"`
	FallbackPairs   []string `yaml:"fallback_pairs"`

	// allocation
	TierHigh     float64 `yaml:"tier_high"`
	TierMid      float64 `yaml:"tier_mid"`
	TierLow      float64 `yaml:"tier_low"`
	TierHighFrac float64 `yaml:"tier_high_frac"`
	TierMidFrac  float64 `yaml:"tier_mid_frac"`
	TierLowFrac  float64 `yaml:"tier_low_frac"`
	TierBaseFrac float64 `yaml:"tier_base_frac"`

	// position lifecycle
	TPOffset             float64 `yaml:"tp_offset"`
	TrailStep            float64 `yaml:"trail_step"`
	StopPercent          float64 `yaml:"stop_percent"`
	PollIntervalSeconds  float64 `yaml:"poll_interval_seconds"`
	ErrorBackoffSeconds  float64 `yaml:"error_backoff_seconds"`
	MaxDurationSeconds   int     `yaml:"max_duration_seconds"`
	TimeoutScoreFactor   float64 `yaml:"timeout_score_factor"`
	BalanceHaircut       float64 `yaml:"balance_haircut"`
	LoopIntervalSeconds  int     `yaml:"loop_interval_seconds"`
}
