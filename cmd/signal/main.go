package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// 行情信号决策引擎：对每个交易对计算盘口不平衡和成交波动率并输出决策。
// 只做演示与观测，不连接交易所、不下单。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(ctx).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
