package scanner

import (
	"context"
	"errors"
	"testing"

	"prowl/internal/gateway/exchange"
	"prowl/internal/market"
	"prowl/internal/scoring"
	"prowl/internal/store/actionlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) LoadMarkets(ctx context.Context) (map[string]market.Market, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]market.Market), args.Error(1)
}

func (m *MockGateway) FetchTickers(ctx context.Context, symbols []string) (map[string]market.Ticker, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]market.Ticker), args.Error(1)
}

func (m *MockGateway) FetchTicker(ctx context.Context, symbol string) (market.Ticker, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(market.Ticker), args.Error(1)
}

func (m *MockGateway) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error) {
	args := m.Called(ctx, symbol, timeframe, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]market.Candle), args.Error(1)
}

func (m *MockGateway) CreateMarketBuyOrder(ctx context.Context, symbol string, quantity float64) (exchange.Order, error) {
	args := m.Called(ctx, symbol, quantity)
	return args.Get(0).(exchange.Order), args.Error(1)
}

func (m *MockGateway) CreateMarketSellOrder(ctx context.Context, symbol string, quantity float64) (exchange.Order, error) {
	args := m.Called(ctx, symbol, quantity)
	return args.Get(0).(exchange.Order), args.Error(1)
}

func (m *MockGateway) FetchBalance(ctx context.Context) (exchange.Balance, error) {
	args := m.Called(ctx)
	return args.Get(0).(exchange.Balance), args.Error(1)
}

func (m *MockGateway) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	args := m.Called(ctx, symbol, leverage)
	return args.Error(0)
}

type memorySink struct {
	records []actionlog.CandidateRecord
}

func (s *memorySink) AppendCandidate(_ context.Context, rec actionlog.CandidateRecord) error {
	s.records = append(s.records, rec)
	return nil
}

// strongCandles produces a series that fires the crossover signal: a long
// decline followed by a breakout bar at the round price.
func strongCandles(finalClose float64) []market.Candle {
	candles := make([]market.Candle, 200)
	for i := 0; i < 199; i++ {
		c := finalClose*2 - 0.5*float64(i)
		candles[i] = market.Candle{Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	candles[199] = market.Candle{Open: finalClose, High: finalClose * 3, Low: finalClose, Close: finalClose * 3, Volume: 100}
	return candles
}

func flatCandles(n int) []market.Candle {
	candles := make([]market.Candle, n)
	for i := range candles {
		candles[i] = market.Candle{Open: 123.4567, High: 123.4567, Low: 123.4567, Close: 123.4567, Volume: 100}
	}
	return candles
}

func TestScannerScan(t *testing.T) {
	universe := []string{"BTCUSDT", "ETHUSDT", "OPUSDT"}

	t.Run("batch ticker failure aborts the cycle", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("FetchTickers", mock.Anything, universe).Return(nil, errors.New("boom"))

		s := New(gw, scoring.NewModel(1.5), &memorySink{}, Params{})
		picked, err := s.Scan(context.Background(), universe)
		assert.Error(t, err)
		assert.Empty(t, picked)
	})

	t.Run("per-symbol candle failure skips the symbol", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("FetchTickers", mock.Anything, universe).Return(map[string]market.Ticker{
			"BTCUSDT": {Symbol: "BTCUSDT", LastPrice: 100, QuoteVolume: 500},
			"ETHUSDT": {Symbol: "ETHUSDT", LastPrice: 100, QuoteVolume: 500},
		}, nil)
		gw.On("FetchOHLCV", mock.Anything, "BTCUSDT", "15m", 200).Return(nil, errors.New("rate limited"))
		gw.On("FetchOHLCV", mock.Anything, "ETHUSDT", "15m", 200).Return(flatCandles(200), nil)

		s := New(gw, scoring.NewModel(1.5), &memorySink{}, Params{})
		picked, err := s.Scan(context.Background(), universe)
		assert.NoError(t, err)
		assert.Empty(t, picked) // flat candles never clear the threshold
		gw.AssertExpectations(t)
	})

	t.Run("short history skips the symbol", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("FetchTickers", mock.Anything, mock.Anything).Return(map[string]market.Ticker{
			"BTCUSDT": {Symbol: "BTCUSDT", LastPrice: 100, QuoteVolume: 500},
		}, nil)
		gw.On("FetchOHLCV", mock.Anything, "BTCUSDT", "15m", 200).Return(flatCandles(10), nil)

		s := New(gw, scoring.NewModel(1.5), &memorySink{}, Params{})
		picked, err := s.Scan(context.Background(), []string{"BTCUSDT"})
		assert.NoError(t, err)
		assert.Empty(t, picked)
	})

	t.Run("invalid ticker skips the symbol", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("FetchTickers", mock.Anything, mock.Anything).Return(map[string]market.Ticker{
			"BTCUSDT": {Symbol: "BTCUSDT", LastPrice: 0, QuoteVolume: 500},
		}, nil)

		s := New(gw, scoring.NewModel(1.5), &memorySink{}, Params{})
		picked, err := s.Scan(context.Background(), []string{"BTCUSDT"})
		assert.NoError(t, err)
		assert.Empty(t, picked)
		gw.AssertNotCalled(t, "FetchOHLCV", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("scoring candidates above the threshold", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("FetchTickers", mock.Anything, universe).Return(map[string]market.Ticker{
			// round price, volume spike, crossover: 3.5/4 = 0.875
			"BTCUSDT": {Symbol: "BTCUSDT", LastPrice: 100, QuoteVolume: 5000},
			// flat series scores at most the round-price weight
			"ETHUSDT": {Symbol: "ETHUSDT", LastPrice: 123.4567, QuoteVolume: 100},
			"OPUSDT":  {Symbol: "OPUSDT", LastPrice: 123.4567, QuoteVolume: 100},
		}, nil)
		gw.On("FetchOHLCV", mock.Anything, "BTCUSDT", "15m", 200).Return(strongCandles(100), nil)
		gw.On("FetchOHLCV", mock.Anything, "ETHUSDT", "15m", 200).Return(flatCandles(200), nil)
		gw.On("FetchOHLCV", mock.Anything, "OPUSDT", "15m", 200).Return(flatCandles(200), nil)

		sink := &memorySink{}
		s := New(gw, scoring.NewModel(1.5), sink, Params{})
		picked, err := s.Scan(context.Background(), universe)
		assert.NoError(t, err)
		assert.Len(t, picked, 1)
		assert.Equal(t, "BTCUSDT", picked[0].Symbol)
		assert.Greater(t, picked[0].Score, 0.6)
		// every evaluated symbol hits the audit sink, near-misses included
		assert.Len(t, sink.records, 3)
	})

	t.Run("result is capped at top n", func(t *testing.T) {
		symbols := []string{"AUSDT", "BUSDT", "CUSDT"}
		tickers := make(map[string]market.Ticker, len(symbols))
		gw := new(MockGateway)
		for _, sym := range symbols {
			tickers[sym] = market.Ticker{Symbol: sym, LastPrice: 100, QuoteVolume: 5000}
			gw.On("FetchOHLCV", mock.Anything, sym, "15m", 200).Return(strongCandles(100), nil)
		}
		gw.On("FetchTickers", mock.Anything, symbols).Return(tickers, nil)

		s := New(gw, scoring.NewModel(1.5), &memorySink{}, Params{TopN: 2})
		picked, err := s.Scan(context.Background(), symbols)
		assert.NoError(t, err)
		assert.Len(t, picked, 2)
		// stable sort keeps discovery order among equal scores
		assert.Equal(t, "AUSDT", picked[0].Symbol)
		assert.Equal(t, "BUSDT", picked[1].Symbol)
	})
}
