package market

// Candle is one OHLCV bar for a fixed timeframe. Immutable once fetched.
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Ticker is a point-in-time snapshot for one symbol. Superseded on each fetch.
type Ticker struct {
	Symbol      string  `json:"symbol"`
	LastPrice   float64 `json:"last_price"`
	AskPrice    float64 `json:"ask_price"`
	QuoteVolume float64 `json:"quote_volume"`
}

// Market describes the tradable limits of one instrument.
type Market struct {
	Symbol      string  `json:"symbol"`
	MinQuantity float64 `json:"min_quantity"`
	MaxQuantity float64 `json:"max_quantity"`
	StepSize    float64 `json:"step_size"`
}

// Closes extracts the close series in bar order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// AverageVolume returns the mean volume over the trailing window bars.
// When fewer bars than window exist, all available bars are averaged.
func AverageVolume(candles []Candle, window int) float64 {
	if len(candles) == 0 || window <= 0 {
		return 0
	}
	start := len(candles) - window
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, c := range candles[start:] {
		sum += c.Volume
	}
	return sum / float64(len(candles)-start)
}
