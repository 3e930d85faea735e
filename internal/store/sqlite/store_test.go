package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"prowl/internal/store/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)

	t.Run("missing key returns the default", func(t *testing.T) {
		v, err := s.Get(KeyBalance, "1000.0")
		assert.NoError(t, err)
		assert.Equal(t, "1000.0", v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set(KeyBalance, "1500.5"))
		v, err := s.Get(KeyBalance, "1000.0")
		assert.NoError(t, err)
		assert.Equal(t, "1500.5", v)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, s.Set(KeyLeverage, "10"))
		require.NoError(t, s.Set(KeyLeverage, "20"))
		v, err := s.Get(KeyLeverage, "1")
		assert.NoError(t, err)
		assert.Equal(t, "20", v)
	})

	t.Run("all returns every key", func(t *testing.T) {
		all, err := s.All()
		assert.NoError(t, err)
		assert.Equal(t, "1500.5", all[KeyBalance])
		assert.Equal(t, "20", all[KeyLeverage])
	})
}

func TestTradeLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, model.TradeRecord{Symbol: "BTCUSDT", EntryPrice: 100, ExitPrice: 102, Outcome: "TP", RealizedPnl: 2}))
	require.NoError(t, s.Append(ctx, model.TradeRecord{Symbol: "BTCUSDT", EntryPrice: 100, ExitPrice: 99, Outcome: "SL", RealizedPnl: -1}))
	require.NoError(t, s.Append(ctx, model.TradeRecord{Symbol: "ETHUSDT", EntryPrice: 50, ExitPrice: 51, Outcome: "TP", RealizedPnl: 1}))

	t.Run("recent returns newest first", func(t *testing.T) {
		trades, err := s.Recent(ctx, 2)
		assert.NoError(t, err)
		require.Len(t, trades, 2)
		assert.Equal(t, "ETHUSDT", trades[0].Symbol)
		assert.Equal(t, "SL", trades[1].Outcome)
	})

	t.Run("tally groups by symbol and outcome", func(t *testing.T) {
		tally, err := s.OutcomeTally(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 1, tally["BTCUSDT"]["TP"])
		assert.Equal(t, 1, tally["BTCUSDT"]["SL"])
		assert.Equal(t, 1, tally["ETHUSDT"]["TP"])
	})
}

func TestApplyOutcome(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(KeyBalance, "1000"))
	require.NoError(t, s.Set(KeyScore, "0"))

	trade := model.TradeRecord{Symbol: "BTCUSDT", EntryPrice: 100, ExitPrice: 102, Outcome: "TP", RealizedPnl: 10}
	require.NoError(t, s.ApplyOutcome(ctx, trade, 10, 1))

	balance, err := s.Get(KeyBalance, "0")
	assert.NoError(t, err)
	assert.Equal(t, "1010", balance)

	score, err := s.Get(KeyScore, "0")
	assert.NoError(t, err)
	assert.Equal(t, "1", score)

	trades, err := s.Recent(ctx, 10)
	assert.NoError(t, err)
	assert.Len(t, trades, 1)
	assert.Equal(t, "TP", trades[0].Outcome)

	t.Run("negative deltas", func(t *testing.T) {
		loss := model.TradeRecord{Symbol: "BTCUSDT", EntryPrice: 100, ExitPrice: 99, Outcome: "SL", RealizedPnl: -5}
		require.NoError(t, s.ApplyOutcome(ctx, loss, -5, -1))

		balance, err := s.Get(KeyBalance, "0")
		assert.NoError(t, err)
		assert.Equal(t, "1005", balance)

		score, err := s.Get(KeyScore, "0")
		assert.NoError(t, err)
		assert.Equal(t, "0", score)
	})
}
