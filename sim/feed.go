package sim

import (
	"context"

	"market-signal-go/infrastructure/monitor"
	"market-signal-go/market"
)

// FeedTracker 订阅 Publisher 的广播，把行情流本身的状态记到监控里。
// 构造时即完成订阅，之后发布的事件不会错过（缓冲满时除外）。
type FeedTracker struct {
	depth <-chan market.Depth
	trade <-chan market.Trade
	mon   *monitor.Monitor
}

func NewFeedTracker(pub *market.Publisher, mon *monitor.Monitor) *FeedTracker {
	return &FeedTracker{
		depth: pub.SubscribeDepth(),
		trade: pub.SubscribeTrade(),
		mon:   mon,
	}
}

// Run 阻塞直到 ctx 结束。
func (f *FeedTracker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-f.depth:
			f.mon.RecordFeedUpdate("depth")
			if mid := d.Mid(); mid > 0 {
				f.mon.UpdateMid(d.Symbol, mid)
			}
		case <-f.trade:
			f.mon.RecordFeedUpdate("trade")
		}
	}
}
