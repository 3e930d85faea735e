package scanner

import (
	"context"
	"sort"
	"time"

	"prowl/internal/gateway/exchange"
	"prowl/internal/indicator"
	"prowl/internal/logger"
	"prowl/internal/market"
	"prowl/internal/scoring"
	"prowl/internal/store/actionlog"
)

// Candidate is one symbol that cleared the score threshold in a scan cycle.
type Candidate struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// CandidateSink receives every scored scan observation for audit/learning.
type CandidateSink interface {
	AppendCandidate(ctx context.Context, rec actionlog.CandidateRecord) error
}

// Params are the scan tunables.
type Params struct {
	ScoreThreshold  float64
	TopN            int
	Timeframe       string
	CandleLimit     int
	MinCandles      int
	AvgVolumeWindow int
}

func (p Params) withDefaults() Params {
	if p.ScoreThreshold <= 0 {
		p.ScoreThreshold = 0.6
	}
	if p.TopN <= 0 {
		p.TopN = 5
	}
	if p.Timeframe == "" {
		p.Timeframe = "15m"
	}
	if p.CandleLimit <= 0 {
		p.CandleLimit = 200
	}
	if p.MinCandles <= 0 {
		p.MinCandles = 150
	}
	if p.AvgVolumeWindow <= 0 {
		p.AvgVolumeWindow = 50
	}
	return p
}

// Scanner ranks the symbol universe by composite score.
type Scanner struct {
	gw    exchange.Gateway
	model scoring.Model
	sink  CandidateSink
	cfg   Params
}

func New(gw exchange.Gateway, model scoring.Model, sink CandidateSink, cfg Params) *Scanner {
	return &Scanner{gw: gw, model: model, sink: sink, cfg: cfg.withDefaults()}
}

// Scan fetches tickers for the whole universe in one batched call, scores
// each symbol, and returns up to TopN candidates above the threshold, ranked
// by score descending (stable, so discovery order breaks ties).
//
// A per-symbol failure skips that symbol. A batch ticker failure aborts the
// cycle with an empty list; the controller treats it as no targets.
func (s *Scanner) Scan(ctx context.Context, universe []string) ([]Candidate, error) {
	logger.Infof("scanner: scanning %d pairs", len(universe))
	tickers, err := s.gw.FetchTickers(ctx, universe)
	if err != nil {
		logger.Errorf("scanner: ticker batch failed: %v", err)
		return nil, err
	}

	var picked []Candidate
	for _, symbol := range universe {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ticker, ok := tickers[symbol]
		if !ok {
			logger.Debugf("scanner: no ticker for %s, skipping", symbol)
			continue
		}
		cand, err := s.evaluate(ctx, symbol, ticker.LastPrice, ticker.QuoteVolume)
		if err != nil {
			logger.Debugf("scanner: %s skipped: %v", symbol, err)
			continue
		}
		logger.Infof("scanner: %s price=%.4f volume=%.2f score=%.2f", symbol, cand.Price, cand.Volume, cand.Score)
		if cand.Score > s.cfg.ScoreThreshold {
			picked = append(picked, cand)
			logger.Infof("scanner: candidate selected %s score=%.2f", symbol, cand.Score)
		}
	}

	sort.SliceStable(picked, func(i, j int) bool { return picked[i].Score > picked[j].Score })
	if len(picked) > s.cfg.TopN {
		picked = picked[:s.cfg.TopN]
	}
	logger.Infof("scanner: scan complete, %d candidates", len(picked))
	return picked, nil
}

func (s *Scanner) evaluate(ctx context.Context, symbol string, price, volume float64) (Candidate, error) {
	if price <= 0 || volume <= 0 {
		return Candidate{}, exchange.ErrInvalidTicker
	}
	candles, err := s.gw.FetchOHLCV(ctx, symbol, s.cfg.Timeframe, s.cfg.CandleLimit)
	if err != nil {
		return Candidate{}, err
	}
	if len(candles) < s.cfg.MinCandles {
		return Candidate{}, exchange.ErrInsufficientHistory
	}

	crossover := indicator.Crossover(candles)
	inFibZone := indicator.FibZone(candles)
	avgVolume := market.AverageVolume(candles, s.cfg.AvgVolumeWindow)
	if len(candles) < s.cfg.AvgVolumeWindow {
		avgVolume = volume
	}
	score := s.model.Score(price, volume, avgVolume, crossover, inFibZone)

	cand := Candidate{
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
		Score:     score,
		Timestamp: time.Now(),
	}
	if s.sink != nil {
		if err := s.sink.AppendCandidate(ctx, actionlog.CandidateRecord{
			Timestamp: cand.Timestamp,
			Symbol:    symbol,
			Price:     price,
			Score:     score,
		}); err != nil {
			logger.Warnf("scanner: recording candidate %s failed: %v", symbol, err)
		}
	}
	return cand, nil
}
