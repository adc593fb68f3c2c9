package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthVolumes(t *testing.T) {
	d := Depth{
		BestBid: 100,
		BestAsk: 101,
		Bids:    []Level{{99.5, 10}, {99.0, 20}, {98.5, 15}},
		Asks:    []Level{{101.5, 5}, {102.0, 25}, {102.5, 10}},
	}
	assert.Equal(t, 45.0, d.BidVolume())
	assert.Equal(t, 40.0, d.AskVolume())
	assert.Equal(t, 100.5, d.Mid())
	assert.Equal(t, 1.0, d.Spread())
	assert.NoError(t, d.Validate())

	var empty Depth
	assert.Zero(t, empty.BidVolume())
	assert.Zero(t, empty.AskVolume())
	assert.Zero(t, empty.Mid())
}

func TestDepthValidate(t *testing.T) {
	tests := []struct {
		name  string
		depth Depth
	}{
		{"crossed", Depth{BestBid: 101, BestAsk: 100}},
		{"locked", Depth{BestBid: 100, BestAsk: 100}},
		{"zero bid", Depth{BestBid: 0, BestAsk: 100}},
		{"negative volume", Depth{BestBid: 99, BestAsk: 100, Bids: []Level{{99, -1}}}},
		{"zero ask price", Depth{BestBid: 99, BestAsk: 100, Asks: []Level{{0, 1}}}},
		{"nan best bid", Depth{BestBid: math.NaN(), BestAsk: 100}},
		{"inf best ask", Depth{BestBid: 99, BestAsk: math.Inf(1)}},
		{"nan level volume", Depth{BestBid: 99, BestAsk: 100, Bids: []Level{{99, math.NaN()}}}},
		{"inf level volume", Depth{BestBid: 99, BestAsk: 100, Bids: []Level{{99, math.Inf(1)}}}},
		{"inf ask price", Depth{BestBid: 99, BestAsk: 100, Asks: []Level{{math.Inf(1), 1}}}},
		{"nan ask price", Depth{BestBid: 99, BestAsk: 100, Asks: []Level{{math.NaN(), 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.depth.Symbol = "ETHUSDC"
			err := tt.depth.Validate()
			var snapErr *MalformedSnapshotError
			require.ErrorAs(t, err, &snapErr)
			assert.Equal(t, "ETHUSDC", snapErr.Symbol)
			assert.Contains(t, err.Error(), "ETHUSDC")
		})
	}
}

func TestTapeValidate(t *testing.T) {
	tape := Tape{{Price: 100.5, Qty: 1}, {Price: 100.7, Qty: 0}}
	err := tape.Validate("BTCUSDT")
	var tradeErr *MalformedTradeError
	require.ErrorAs(t, err, &tradeErr)
	assert.Equal(t, 1, tradeErr.Index)

	for _, bad := range []Trade{
		{Price: math.NaN(), Qty: 1},
		{Price: math.Inf(1), Qty: 1},
		{Price: 100, Qty: math.NaN()},
		{Price: 100, Qty: math.Inf(1)},
		{Price: math.Inf(-1), Qty: 1},
	} {
		require.ErrorAs(t, Tape{{Price: 100, Qty: 1}, bad}.Validate("BTCUSDT"), &tradeErr, "trade %+v", bad)
		assert.Equal(t, 1, tradeErr.Index)
	}

	assert.NoError(t, Tape{{Price: 1, Qty: 1}}.Validate("BTCUSDT"))
	assert.NoError(t, Tape(nil).Validate("BTCUSDT"))
	assert.Equal(t, 1.0, Tape{{Price: 1, Qty: 1}}.Volume())
}
