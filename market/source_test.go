package market

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
BTCUSDT:
  depth:
    bestBid: 100
    bestAsk: 101
    bids:
      - {price: 99.5, volume: 10}
      - {price: 99.0, volume: 20}
      - {price: 98.5, volume: 15}
    asks:
      - {price: 101.5, volume: 5}
      - {price: 102.0, volume: 25}
      - {price: 102.5, volume: 10}
  trades:
    - {price: 100.5, volume: 1}
    - {price: 100.7, volume: 2}
    - {price: 100.8, volume: 1.5}
    - {price: 101.2, volume: 3}
ETHUSDC:
  depth:
    bids:
      - {price: 2700, volume: 1}
    asks:
      - {price: 2701, volume: 2}
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFixtures(t *testing.T) {
	src, err := LoadFixtures(writeFixture(t, fixtureYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDC"}, src.Symbols())

	d, tape, err := Sample(src, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", d.Symbol)
	assert.Equal(t, 100.0, d.BestBid)
	assert.Equal(t, 45.0, d.BidVolume())
	assert.Len(t, tape, 4)
	assert.Equal(t, 7.5, tape.Volume())

	// 缺省 best 价格取第一档
	eth, err := src.CurrentDepth("ETHUSDC")
	require.NoError(t, err)
	assert.Equal(t, 2700.0, eth.BestBid)
	assert.Equal(t, 2701.0, eth.BestAsk)
	trades, err := src.RecentTrades("ETHUSDC")
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestLoadFixturesErrors(t *testing.T) {
	_, err := LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	_, err = LoadFixtures(writeFixture(t, "::not yaml"))
	assert.Error(t, err)
}

func TestFixtureSourceReturnsCopies(t *testing.T) {
	src := NewFixtureSource(map[string]Fixture{
		"X": {Depth: Depth{BestBid: 1, BestAsk: 2, Bids: []Level{{1, 1}}}, Trades: []Trade{{Price: 1, Qty: 1}}},
	})
	d, _ := src.CurrentDepth("X")
	d.Bids[0].Volume = 50
	tape, _ := src.RecentTrades("X")
	tape[0].Price = 50

	d2, _ := src.CurrentDepth("X")
	tape2, _ := src.RecentTrades("X")
	assert.Equal(t, 1.0, d2.Bids[0].Volume)
	assert.Equal(t, 1.0, tape2[0].Price)
	assert.Equal(t, "X", d2.Symbol)
}

func TestSampleValidatesAtBoundary(t *testing.T) {
	src := NewFixtureSource(map[string]Fixture{
		"CROSSED": {Depth: Depth{BestBid: 101, BestAsk: 100}},
		"BADTRADE": {
			Depth:  Depth{BestBid: 100, BestAsk: 101},
			Trades: []Trade{{Price: -1, Qty: 1}},
		},
	})
	_, _, err := Sample(src, "CROSSED")
	var snapErr *MalformedSnapshotError
	assert.ErrorAs(t, err, &snapErr)

	_, _, err = Sample(src, "BADTRADE")
	var tradeErr *MalformedTradeError
	assert.ErrorAs(t, err, &tradeErr)

	_, _, err = Sample(src, "MISSING")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestSampleRejectsNonFiniteFixtures(t *testing.T) {
	path := writeFixture(t, `
NANTRADE:
  depth:
    bids: [{price: 100, volume: 1}]
    asks: [{price: 101, volume: 1}]
  trades:
    - {price: 100.5, volume: 1}
    - {price: .nan, volume: 1}
INFVOLUME:
  depth:
    bids: [{price: 100, volume: 1}]
    asks: [{price: 101, volume: 1}]
  trades:
    - {price: 100.5, volume: .inf}
NANBOOK:
  depth:
    bestBid: .nan
    bestAsk: 101
    bids: [{price: 100, volume: 1}]
    asks: [{price: 101, volume: 1}]
INFLEVEL:
  depth:
    bids: [{price: 100, volume: .nan}]
    asks: [{price: .inf, volume: 1}]
`)
	src, err := LoadFixtures(path)
	require.NoError(t, err)

	tests := []struct {
		symbol    string
		wantTrade bool
	}{
		{"NANTRADE", true},
		{"INFVOLUME", true},
		{"NANBOOK", false},
		{"INFLEVEL", false},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			_, _, err := Sample(src, tt.symbol)
			if tt.wantTrade {
				var tradeErr *MalformedTradeError
				assert.ErrorAs(t, err, &tradeErr)
				return
			}
			var snapErr *MalformedSnapshotError
			assert.ErrorAs(t, err, &snapErr)
		})
	}
}

func TestRandomWalkFeedsService(t *testing.T) {
	svc := NewService(nil, 10)
	w := NewRandomWalk(100, 42)
	ts := time.Unix(0, 0)
	for i := 0; i < 20; i++ {
		require.NoError(t, w.Tick(svc, []string{"BTCUSDT", "ETHUSDC"}, ts.Add(time.Duration(i)*time.Second)))
	}
	for _, sym := range []string{"BTCUSDT", "ETHUSDC"} {
		d, tape, err := Sample(svc, sym)
		require.NoError(t, err)
		assert.Len(t, d.Bids, w.Levels)
		assert.Len(t, d.Asks, w.Levels)
		assert.Less(t, d.BestBid, d.BestAsk)
		assert.NotEmpty(t, tape)
		assert.LessOrEqual(t, len(tape), 10)
	}
}

func TestRandomWalkTickIsolatesSymbols(t *testing.T) {
	svc := NewService(nil, 10)
	w := NewRandomWalk(100, 3)
	w.mids["BROKEN"] = math.NaN()

	err := w.Tick(svc, []string{"BROKEN", "BTCUSDT"}, time.Unix(0, 0))
	var snapErr *MalformedSnapshotError
	require.ErrorAs(t, err, &snapErr)
	assert.Equal(t, "BROKEN", snapErr.Symbol)
	assert.Contains(t, err.Error(), "tick BROKEN")

	// 后面的交易对照常写入
	d, tape, err := Sample(svc, "BTCUSDT")
	require.NoError(t, err)
	assert.Len(t, d.Bids, w.Levels)
	assert.NotEmpty(t, tape)

	_, _, err = Sample(svc, "BROKEN")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}
