package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"market-signal-go/infrastructure/logger"
	"market-signal-go/infrastructure/monitor"
	"market-signal-go/market"
	"market-signal-go/strategy"
)

const (
	axisBias    = "bias"
	axisPosture = "posture"
)

// Result 是单个交易对一次评估的结果。Err 非空时 Decision 无效。
type Result struct {
	Symbol   string
	Decision strategy.Decision
	Err      error
}

// Runner 将行情->评估->执行串起来。每个周期内各交易对互不依赖，
// 并行评估；单个交易对失败不影响其他交易对和后续周期。
type Runner struct {
	src    market.Source
	engine atomic.Pointer[strategy.Engine]
	exec   Executor
	log    *logger.Logger
	mon    *monitor.Monitor

	// Concurrency 限制同时评估的交易对数，<= 0 表示不限制。
	Concurrency int
	// BeforeCycle 在每个周期开始前调用（例如推进模拟行情）。
	BeforeCycle func(ts time.Time) error
	// MaxStaleness 数据源实现 market.StalenessReporter 时生效：
	// 距上次更新超过该值的交易对本周期不做决策。<= 0 表示不检查。
	MaxStaleness time.Duration
}

// NewRunner 创建 Runner；log 为 nil 时丢弃日志，mon 为 nil 时不记录指标。
func NewRunner(src market.Source, engine *strategy.Engine, exec Executor, log *logger.Logger, mon *monitor.Monitor) (*Runner, error) {
	if src == nil || engine == nil || exec == nil {
		return nil, errors.New("runner requires source, engine and executor")
	}
	if log == nil {
		log = logger.NewNop()
	}
	r := &Runner{src: src, exec: exec, log: log, mon: mon}
	r.engine.Store(engine)
	return r, nil
}

// SetEngine 原子替换引擎，用于配置热更新；正在进行的评估继续使用旧引擎。
func (r *Runner) SetEngine(e *strategy.Engine) {
	if e != nil {
		r.engine.Store(e)
	}
}

// Engine 返回当前使用的引擎。
func (r *Runner) Engine() *strategy.Engine {
	return r.engine.Load()
}

// EvaluateSymbol 对一个交易对取样、评估并把决策交给 Executor。
// 成交窗口为空时只跳过流动性姿态，方向决策照常下发，不视为错误。
func (r *Runner) EvaluateSymbol(symbol string) (strategy.Decision, error) {
	start := time.Now()
	defer func() {
		if r.mon != nil {
			r.mon.RecordLatency(time.Since(start))
		}
	}()

	depth, tape, err := market.Sample(r.src, symbol)
	if err != nil {
		r.recordError(symbol, err)
		return strategy.Decision{}, fmt.Errorf("sample %s: %w", symbol, err)
	}
	if err := r.checkStaleness(symbol); err != nil {
		r.recordError(symbol, err)
		return strategy.Decision{}, err
	}

	dec, err := r.Engine().Evaluate(depth, tape)
	if err != nil && !errors.Is(err, strategy.ErrEmptyTape) {
		r.recordError(symbol, err)
		return strategy.Decision{}, fmt.Errorf("evaluate %s: %w", symbol, err)
	}

	r.exec.OnSideBias(symbol, dec.Depth.Bias)
	fields := map[string]interface{}{
		"symbol":    symbol,
		"bias":      dec.Depth.Bias.String(),
		"bidVolume": dec.Depth.BidVolume,
		"askVolume": dec.Depth.AskVolume,
		"imbalance": dec.Depth.Imbalance,
		"mid":       depth.Mid(),
		"spread":    depth.Spread(),
	}
	if r.mon != nil {
		r.mon.RecordDecision(axisBias, dec.Depth.Bias.String())
		r.mon.UpdateDepthSignal(symbol, dec.Depth.Imbalance, depth.Spread())
	}

	if dec.HasPosture {
		r.exec.OnLiquidityPosture(symbol, dec.Trades.Posture)
		fields["posture"] = dec.Trades.Posture.String()
		fields["meanPrice"] = dec.Trades.MeanPrice
		fields["volatility"] = dec.Trades.Volatility
		fields["askLiquidity"] = dec.Trades.AskLiquidity
		fields["trades"] = dec.Trades.Count
		if r.mon != nil {
			r.mon.RecordDecision(axisPosture, dec.Trades.Posture.String())
			r.mon.UpdateTradeSignal(symbol, dec.Trades.Volatility, dec.Trades.AskLiquidity, dec.Trades.Count)
		}
	} else {
		r.log.LogSkip(symbol, axisPosture, err)
		if r.mon != nil {
			r.mon.RecordSkip(axisPosture, "empty_tape")
		}
	}
	r.log.LogDecision(fields)
	return dec, nil
}

// RunCycle 并行评估所有交易对，结果顺序与 symbols 一致。
// 返回的 error 汇总了失败的交易对；ctx 取消后尚未开始的交易对记为 ctx.Err()。
func (r *Runner) RunCycle(ctx context.Context, symbols []string) ([]Result, error) {
	results := make([]Result, len(symbols))
	var sem chan struct{}
	if r.Concurrency > 0 {
		sem = make(chan struct{}, r.Concurrency)
	}

	var wg sync.WaitGroup
	for i, sym := range symbols {
		results[i].Symbol = sym
		if sem != nil {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				continue
			}
		} else if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			if sem != nil {
				defer func() { <-sem }()
			}
			results[i].Decision, results[i].Err = r.EvaluateSymbol(sym)
		}(i, sym)
	}
	wg.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return results, errors.Join(errs...)
}

// Run 按 interval 循环执行 RunCycle，直到 ctx 结束。
// 单个周期的错误只记录日志，不会终止循环。
func (r *Runner) Run(ctx context.Context, symbols []string, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		r.cycle(ctx, symbols)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) cycle(ctx context.Context, symbols []string) {
	if r.BeforeCycle != nil {
		// 部分交易对更新失败时其余交易对照常评估，失败的由 staleness 检查兜底
		if err := r.BeforeCycle(time.Now()); err != nil {
			r.log.LogError(err, map[string]interface{}{"stage": "before_cycle"})
		}
	}
	// 单个交易对的错误已在 EvaluateSymbol 中记录
	_, _ = r.RunCycle(ctx, symbols)
}

func (r *Runner) checkStaleness(symbol string) error {
	sr, ok := r.src.(market.StalenessReporter)
	if !ok {
		return nil
	}
	age := sr.Staleness(symbol)
	if r.mon != nil {
		r.mon.UpdateStaleness(symbol, age)
	}
	if r.MaxStaleness > 0 && age > r.MaxStaleness {
		return fmt.Errorf("%s last updated %s ago: %w", symbol, age.Round(time.Millisecond), market.ErrStaleData)
	}
	return nil
}

func (r *Runner) recordError(symbol string, err error) {
	kind := errorKind(err)
	if r.mon != nil {
		r.mon.RecordError(kind)
	}
	r.log.LogError(err, map[string]interface{}{"symbol": symbol, "kind": kind})
}

func errorKind(err error) string {
	var snapErr *market.MalformedSnapshotError
	var tradeErr *market.MalformedTradeError
	switch {
	case errors.As(err, &snapErr):
		return "malformed_snapshot"
	case errors.As(err, &tradeErr):
		return "malformed_trade"
	case errors.Is(err, market.ErrUnknownSymbol):
		return "unknown_symbol"
	case errors.Is(err, market.ErrStaleData):
		return "stale"
	default:
		return "source"
	}
}
