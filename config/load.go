package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"gopkg.in/yaml.v3"

	"market-signal-go/infrastructure/logger"
	"market-signal-go/strategy"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env      string         `yaml:"env"`
	Log      logger.Config  `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Strategy StrategyConfig `yaml:"strategy"`
	Feed     FeedConfig     `yaml:"feed"`
}

// MetricsConfig 控制 Prometheus 指标端点，Addr 为空表示不启动。
type MetricsConfig struct {
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

// StrategyConfig 是评估器的可调参数。
type StrategyConfig struct {
	VolatilityThreshold float64           `yaml:"volatilityThreshold"` // 与价格同单位，严格大于才报价
	TieBreak            strategy.SideBias `yaml:"tieBreak"`            // bid/ask 总量相等时的方向
}

// FeedConfig 描述行情来源和评估节奏。
type FeedConfig struct {
	Symbols     []string `yaml:"symbols"`
	TapeWindow  int      `yaml:"tapeWindow"`  // 每个交易对保留的成交笔数
	DepthLevels int      `yaml:"depthLevels"` // 每侧参与计算的档位数，0 为全部
	IntervalMs  int      `yaml:"intervalMs"`  // 评估周期（毫秒）
	Fixtures    string   `yaml:"fixtures"`    // 可选，YAML 固定行情文件
	// 行情超过该时长未更新则跳过该交易对，0 表示不检查（固定行情无更新时间）
	MaxStalenessMs int `yaml:"maxStalenessMs"`
}

// Default 返回默认配置；Load 在其之上叠加 YAML。
func Default() AppConfig {
	sc := strategy.DefaultConfig()
	return AppConfig{
		Env: "dev",
		Log: logger.DefaultConfig(),
		Metrics: MetricsConfig{
			Namespace: "signal",
		},
		Strategy: StrategyConfig{
			VolatilityThreshold: sc.VolatilityThreshold,
			TieBreak:            sc.TieBreak,
		},
		Feed: FeedConfig{
			TapeWindow: 200,
			IntervalMs: 1000,
		},
	}
}

// EngineConfig 转换为 strategy.Config。
func (c StrategyConfig) EngineConfig() strategy.Config {
	return strategy.Config{
		VolatilityThreshold: c.VolatilityThreshold,
		TieBreak:            c.TieBreak,
	}
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides tunables from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, Validate(cfg)
}

func applyEnv(cfg *AppConfig) error {
	if v := os.Getenv("SIGNAL_VOLATILITY_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SIGNAL_VOLATILITY_THRESHOLD: %w", err)
		}
		cfg.Strategy.VolatilityThreshold = f
	}
	if v := os.Getenv("SIGNAL_TIE_BREAK"); v != "" {
		side, err := strategy.ParseSideBias(v)
		if err != nil {
			return fmt.Errorf("SIGNAL_TIE_BREAK: %w", err)
		}
		cfg.Strategy.TieBreak = side
	}
	if v := os.Getenv("SIGNAL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if err := cfg.Strategy.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if len(cfg.Feed.Symbols) == 0 && cfg.Feed.Fixtures == "" {
		return errors.New("feed.symbols or feed.fixtures is required")
	}
	for i, sym := range cfg.Feed.Symbols {
		if sym == "" {
			return fmt.Errorf("feed.symbols[%d] is empty", i)
		}
	}
	if cfg.Feed.TapeWindow < 0 {
		return errors.New("feed.tapeWindow must be >= 0")
	}
	if cfg.Feed.DepthLevels < 0 {
		return errors.New("feed.depthLevels must be >= 0")
	}
	if cfg.Feed.IntervalMs < 0 {
		return errors.New("feed.intervalMs must be >= 0")
	}
	if cfg.Feed.MaxStalenessMs < 0 {
		return errors.New("feed.maxStalenessMs must be >= 0")
	}
	switch cfg.Log.Format {
	case "", "json", "console":
	default:
		return ErrInvalid(fmt.Sprintf("log.format %q must be json or console", cfg.Log.Format))
	}
	return nil
}

// ReloadIgnored 返回 prev 与 next 之间热更新无法生效的配置段。
// 只有 strategy 段会被运行中的进程采纳，其余段需要重启。
func ReloadIgnored(prev, next AppConfig) []string {
	var ignored []string
	if prev.Env != next.Env {
		ignored = append(ignored, "env")
	}
	if !reflect.DeepEqual(prev.Log, next.Log) {
		ignored = append(ignored, "log")
	}
	if prev.Metrics != next.Metrics {
		ignored = append(ignored, "metrics")
	}
	if !reflect.DeepEqual(prev.Feed, next.Feed) {
		ignored = append(ignored, "feed")
	}
	return ignored
}

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }
