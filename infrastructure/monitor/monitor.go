package monitor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 决策指标
	decisions   *prometheus.CounterVec // axis, value
	skipped     *prometheus.CounterVec // axis, reason
	evalErrors  *prometheus.CounterVec // kind
	evalLatency prometheus.Histogram

	// 信号指标（按交易对）
	imbalance    *prometheus.GaugeVec
	spread       *prometheus.GaugeVec
	volatility   *prometheus.GaugeVec
	askLiquidity *prometheus.GaugeVec
	tapeSize     *prometheus.GaugeVec
	staleness    *prometheus.GaugeVec

	// 行情流指标
	feedUpdates *prometheus.CounterVec // kind
	mid         *prometheus.GaugeVec
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "signal",
		Subsystem: "engine",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,

		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "decisions_total",
			Help:      "按维度和取值统计的决策数",
		}, []string{"axis", "value"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "decisions_skipped_total",
			Help:      "被跳过的决策数",
		}, []string{"axis", "reason"}),
		evalErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "evaluation_errors_total",
			Help:      "评估失败次数（按错误类型）",
		}, []string{"kind"}),
		evalLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "evaluation_seconds",
			Help:      "单个交易对评估耗时（秒）",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),

		imbalance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "depth_imbalance",
			Help:      "盘口不平衡 (bid-ask)/(bid+ask)",
		}, []string{"symbol"}),
		spread: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "depth_spread",
			Help:      "评估时的买卖价差 bestAsk-bestBid",
		}, []string{"symbol"}),
		volatility: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "trade_volatility",
			Help:      "成交价总体标准差",
		}, []string{"symbol"}),
		askLiquidity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ask_liquidity",
			Help:      "卖盘总挂单量",
		}, []string{"symbol"}),
		tapeSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "tape_trades",
			Help:      "参与计算的成交笔数",
		}, []string{"symbol"}),
		staleness: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "data_staleness_seconds",
			Help:      "评估时距离该交易对上次行情更新的秒数",
		}, []string{"symbol"}),

		feedUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "feed_updates_total",
			Help:      "收到的行情更新数（depth/trade），订阅者跟不上时丢弃的不计入",
		}, []string{"kind"}),
		mid: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "feed_mid_price",
			Help:      "最新盘口中间价",
		}, []string{"symbol"}),
	}
}

func (m *Monitor) RecordDecision(axis, value string) {
	m.decisions.WithLabelValues(axis, value).Inc()
}

func (m *Monitor) RecordSkip(axis, reason string) {
	m.skipped.WithLabelValues(axis, reason).Inc()
}

func (m *Monitor) RecordError(kind string) {
	m.evalErrors.WithLabelValues(kind).Inc()
}

func (m *Monitor) RecordLatency(d time.Duration) {
	m.evalLatency.Observe(d.Seconds())
}

func (m *Monitor) UpdateDepthSignal(symbol string, imbalance, spread float64) {
	m.imbalance.WithLabelValues(symbol).Set(imbalance)
	m.spread.WithLabelValues(symbol).Set(spread)
}

func (m *Monitor) UpdateStaleness(symbol string, age time.Duration) {
	m.staleness.WithLabelValues(symbol).Set(age.Seconds())
}

func (m *Monitor) RecordFeedUpdate(kind string) {
	m.feedUpdates.WithLabelValues(kind).Inc()
}

func (m *Monitor) UpdateMid(symbol string, mid float64) {
	m.mid.WithLabelValues(symbol).Set(mid)
}

func (m *Monitor) UpdateTradeSignal(symbol string, volatility, askLiquidity float64, trades int) {
	m.volatility.WithLabelValues(symbol).Set(volatility)
	m.askLiquidity.WithLabelValues(symbol).Set(askLiquidity)
	m.tapeSize.WithLabelValues(symbol).Set(float64(trades))
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Serve 在 addr 上暴露 /metrics，ctx 结束时优雅关闭。
func (m *Monitor) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
