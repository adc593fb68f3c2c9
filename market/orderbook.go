package market

import (
	"sort"
	"sync"
	"time"
)

// OrderBook 维护简单的价格->数量映射。
type OrderBook struct {
	mu   sync.RWMutex
	bids map[float64]float64 // price -> qty
	asks map[float64]float64
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids: make(map[float64]float64),
		asks: make(map[float64]float64),
	}
}

// Replace 用全量档位替换当前盘口，量为 0 的档位被丢弃。
func (ob *OrderBook) Replace(bids, asks []Level) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	ob.bids = make(map[float64]float64, len(bids))
	ob.asks = make(map[float64]float64, len(asks))
	for _, lv := range bids {
		if lv.Volume != 0 {
			ob.bids[lv.Price] = lv.Volume
		}
	}
	for _, lv := range asks {
		if lv.Volume != 0 {
			ob.asks[lv.Price] = lv.Volume
		}
	}
}

// Snapshot 生成按距离盘口排序的 Depth 副本；levels <= 0 表示全部档位。
func (ob *OrderBook) Snapshot(symbol string, levels int, ts time.Time) Depth {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	bids := sortedLevels(ob.bids, true, levels)
	asks := sortedLevels(ob.asks, false, levels)
	d := Depth{Symbol: symbol, Bids: bids, Asks: asks, Ts: ts}
	if len(bids) > 0 {
		d.BestBid = bids[0].Price
	}
	if len(asks) > 0 {
		d.BestAsk = asks[0].Price
	}
	return d
}

func sortedLevels(side map[float64]float64, desc bool, limit int) []Level {
	out := make([]Level, 0, len(side))
	for p, q := range side {
		out = append(out, Level{Price: p, Volume: q})
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
