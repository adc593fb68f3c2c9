package market

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RandomWalk 生成围绕基准价随机游走的合成盘口和成交，喂给 Service。
// 仅用于演示与压测，不连接任何交易所。
type RandomWalk struct {
	Base          float64 // 初始中间价
	Step          float64 // 每次 tick 中间价的高斯扰动标准差
	TickSize      float64 // 档位间距
	Levels        int     // 每侧档位数
	MaxVolume     float64 // 单档最大挂单量
	TradesPerTick int

	rng  *rand.Rand
	mids map[string]float64
}

func NewRandomWalk(base float64, seed int64) *RandomWalk {
	return &RandomWalk{
		Base:          base,
		Step:          0.5,
		TickSize:      0.5,
		Levels:        3,
		MaxVolume:     25,
		TradesPerTick: 4,
		rng:           rand.New(rand.NewSource(seed)),
		mids:          make(map[string]float64),
	}
}

// Tick 为每个交易对推进一步并写入 Service。
// 某个交易对写入失败不影响其他交易对，所有失败合并返回。
func (w *RandomWalk) Tick(svc *Service, symbols []string, ts time.Time) error {
	var errs []error
	for _, sym := range symbols {
		mid, ok := w.mids[sym]
		if !ok {
			mid = w.Base
		}
		mid = math.Max(w.TickSize*float64(w.Levels+1), mid+w.rng.NormFloat64()*w.Step)
		w.mids[sym] = mid

		bids := make([]Level, 0, w.Levels)
		asks := make([]Level, 0, w.Levels)
		for i := 1; i <= w.Levels; i++ {
			off := float64(i) * w.TickSize
			bids = append(bids, Level{Price: mid - off, Volume: w.volume()})
			asks = append(asks, Level{Price: mid + off, Volume: w.volume()})
		}
		if err := svc.OnDepth(sym, bids, asks, ts); err != nil {
			errs = append(errs, fmt.Errorf("tick %s: %w", sym, err))
			continue
		}

		for i := 0; i < w.TradesPerTick; i++ {
			px := mid + w.rng.NormFloat64()*w.Step
			if px <= 0 {
				continue
			}
			if err := svc.OnTrade(sym, px, w.volume(), ts); err != nil {
				errs = append(errs, fmt.Errorf("tick %s: %w", sym, err))
				break
			}
		}
	}
	return errors.Join(errs...)
}

func (w *RandomWalk) volume() float64 {
	// 至少 1，避免产生 0 量成交
	return 1 + math.Floor(w.rng.Float64()*w.MaxVolume)
}
