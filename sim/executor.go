package sim

import (
	"go.uber.org/zap"

	"market-signal-go/infrastructure/logger"
	"market-signal-go/strategy"
)

// Executor 接收决策。这里不下真实订单，具体执行由外部实现。
type Executor interface {
	OnSideBias(symbol string, bias strategy.SideBias)
	OnLiquidityPosture(symbol string, posture strategy.LiquidityPosture)
}

// LogExecutor 只把决策写入日志。
type LogExecutor struct {
	Log *logger.Logger
}

func (e LogExecutor) OnSideBias(symbol string, bias strategy.SideBias) {
	msg := "market order on the ask side"
	if bias == strategy.SideBid {
		msg = "placing order on the bid side"
	}
	e.Log.Info(msg, zap.String("symbol", symbol), zap.Stringer("bias", bias))
}

func (e LogExecutor) OnLiquidityPosture(symbol string, posture strategy.LiquidityPosture) {
	msg := "entering less liquid side"
	if posture == strategy.PostureQuoteLiquidSide {
		msg = "quoting on the liquid side"
	}
	e.Log.Info(msg, zap.String("symbol", symbol), zap.Stringer("posture", posture))
}
