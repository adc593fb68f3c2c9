package market

import (
	"math"
	"time"
)

// Level 是一个价格档位上的挂单量。
type Level struct {
	Price  float64 `yaml:"price"`
	Volume float64 `yaml:"volume"`
}

// Depth 是某一时刻的盘口快照，生成后不可修改。
// Bids 按价格降序、Asks 按价格升序排列（约定，评估器不依赖顺序）。
type Depth struct {
	Symbol  string    `yaml:"symbol"`
	BestBid float64   `yaml:"bestBid"`
	BestAsk float64   `yaml:"bestAsk"`
	Bids    []Level   `yaml:"bids"`
	Asks    []Level   `yaml:"asks"`
	Ts      time.Time `yaml:"-"`
}

// BidVolume 返回买盘总挂单量；空盘口视为 0。
func (d Depth) BidVolume() float64 {
	return sumVolume(d.Bids)
}

// AskVolume 返回卖盘总挂单量；空盘口视为 0。
func (d Depth) AskVolume() float64 {
	return sumVolume(d.Asks)
}

// Mid 返回中间价；若缺失任一侧返回 0。
func (d Depth) Mid() float64 {
	if d.BestBid <= 0 || d.BestAsk <= 0 {
		return 0
	}
	return (d.BestBid + d.BestAsk) / 2
}

// Spread 返回 bestAsk - bestBid。
func (d Depth) Spread() float64 {
	return d.BestAsk - d.BestBid
}

// Validate 检查快照是否满足基本约束，失败时返回 *MalformedSnapshotError。
func (d Depth) Validate() error {
	if !positive(d.BestBid) || !positive(d.BestAsk) {
		return &MalformedSnapshotError{Symbol: d.Symbol, Reason: "best bid/ask must be finite and > 0", Index: -1}
	}
	if d.BestBid >= d.BestAsk {
		return &MalformedSnapshotError{Symbol: d.Symbol, Reason: "best bid must be below best ask", Index: -1}
	}
	if err := validateLevels(d.Symbol, "bid", d.Bids); err != nil {
		return err
	}
	return validateLevels(d.Symbol, "ask", d.Asks)
}

func validateLevels(symbol, side string, levels []Level) error {
	for i, lv := range levels {
		if !positive(lv.Price) {
			return &MalformedSnapshotError{Symbol: symbol, Reason: side + " level price must be finite and > 0", Index: i}
		}
		if !nonNegative(lv.Volume) {
			return &MalformedSnapshotError{Symbol: symbol, Reason: side + " level volume must be finite and >= 0", Index: i}
		}
	}
	return nil
}

func sumVolume(levels []Level) float64 {
	total := 0.0
	for _, lv := range levels {
		total += lv.Volume
	}
	return total
}

// positive 对 NaN 和 +Inf 返回 false。
func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

func nonNegative(x float64) bool {
	return x >= 0 && !math.IsInf(x, 1)
}
