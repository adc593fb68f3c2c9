package strategy

import (
	"errors"
	"fmt"
	"math"

	"market-signal-go/market"
)

// ErrEmptyTape 表示成交窗口为空，本周期不给出流动性姿态。
// 调用方应跳过该决策，而不是替换成默认值。
var ErrEmptyTape = errors.New("empty trade tape")

// DefaultVolatilityThreshold 与价格同单位。
const DefaultVolatilityThreshold = 1.0

// Config 是两个评估器的可调参数。
type Config struct {
	// VolatilityThreshold: 波动率严格大于该值时选择 QuoteLiquidSide。
	VolatilityThreshold float64
	// TieBreak: 买卖总量相等时的方向，默认 SideAsk。
	TieBreak SideBias
}

func DefaultConfig() Config {
	return Config{
		VolatilityThreshold: DefaultVolatilityThreshold,
		TieBreak:            SideAsk,
	}
}

// Validate 检查阈值为非负有限数、TieBreak 为已知方向。
func (c Config) Validate() error {
	if math.IsNaN(c.VolatilityThreshold) || math.IsInf(c.VolatilityThreshold, 0) || c.VolatilityThreshold < 0 {
		return fmt.Errorf("volatility threshold must be a finite value >= 0, got %v", c.VolatilityThreshold)
	}
	if !c.TieBreak.Valid() {
		return fmt.Errorf("invalid tie break %v", c.TieBreak)
	}
	return nil
}

// DepthSignal 是盘口不平衡评估的全部输出。
type DepthSignal struct {
	BidVolume float64
	AskVolume float64
	Imbalance float64 // (bid-ask)/(bid+ask)，仅供观测
	Bias      SideBias
}

// TradeStats 是成交统计评估的全部输出（总体方差，除数为 N）。
type TradeStats struct {
	Count        int
	MeanPrice    float64
	Variance     float64
	Volatility   float64
	TotalVolume  float64
	AskLiquidity float64 // 目前不参与决策，仅作为信号输出
	Posture      LiquidityPosture
}

// Decision 汇总一个交易对一次评估的两个维度。
type Decision struct {
	Depth DepthSignal
	// Trades 仅在 HasPosture 为 true 时有效。
	Trades     TradeStats
	HasPosture bool
}

// Engine 是无状态的决策引擎；构造后只读，可并发使用。
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config 返回引擎参数的副本。
func (e *Engine) Config() Config {
	return e.cfg
}

// EvaluateImbalance 比较买卖两侧总挂单量：bid > ask 返回 SideBid，
// 否则返回 SideAsk；相等时按 Config.TieBreak（默认 SideAsk）。
func (e *Engine) EvaluateImbalance(depth market.Depth) SideBias {
	return e.DepthSignal(depth).Bias
}

// DepthSignal 与 EvaluateImbalance 相同，但同时返回两侧总量与不平衡比例。
func (e *Engine) DepthSignal(depth market.Depth) DepthSignal {
	bid := depth.BidVolume()
	ask := depth.AskVolume()
	sig := DepthSignal{
		BidVolume: bid,
		AskVolume: ask,
		Imbalance: market.CalculateImbalance(bid, ask),
	}
	switch {
	case bid > ask:
		sig.Bias = SideBid
	case bid < ask:
		sig.Bias = SideAsk
	default:
		sig.Bias = e.cfg.TieBreak
	}
	return sig
}

// EvaluateLiquidityPosture 根据成交价波动率选择流动性姿态：
// volatility > VolatilityThreshold 时 QuoteLiquidSide，否则 EnterIlliquidSide。
// 成交窗口为空时返回 ErrEmptyTape。
func (e *Engine) EvaluateLiquidityPosture(trades market.Tape, depth market.Depth) (LiquidityPosture, error) {
	stats, err := e.TradeStats(trades, depth)
	if err != nil {
		return PostureEnterIlliquidSide, err
	}
	return stats.Posture, nil
}

// TradeStats 计算成交均价、总体方差、波动率以及卖盘流动性。
// depth 应与 trades 来自同一采样窗口。
func (e *Engine) TradeStats(trades market.Tape, depth market.Depth) (TradeStats, error) {
	if len(trades) == 0 {
		return TradeStats{}, ErrEmptyTape
	}
	ps := market.CalculatePriceStats(trades.Prices())
	stats := TradeStats{
		Count:        ps.Count,
		MeanPrice:    ps.Mean,
		Variance:     ps.Variance,
		Volatility:   ps.StdDev,
		TotalVolume:  trades.Volume(),
		AskLiquidity: depth.AskVolume(),
		Posture:      PostureEnterIlliquidSide,
	}
	if stats.Volatility > e.cfg.VolatilityThreshold {
		stats.Posture = PostureQuoteLiquidSide
	}
	return stats, nil
}

// Evaluate 同时计算两个维度。成交为空时仍返回方向决策，
// 并附带 ErrEmptyTape，HasPosture 为 false。
func (e *Engine) Evaluate(depth market.Depth, trades market.Tape) (Decision, error) {
	d := Decision{Depth: e.DepthSignal(depth)}
	stats, err := e.TradeStats(trades, depth)
	if err != nil {
		return d, err
	}
	d.Trades = stats
	d.HasPosture = true
	return d, nil
}
