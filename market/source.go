package market

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Source 是行情数据的只读访问接口。
type Source interface {
	CurrentDepth(symbol string) (Depth, error)
	RecentTrades(symbol string) (Tape, error)
}

// Sampler 由能原子地给出同一采样窗口盘口+成交的数据源实现。
type Sampler interface {
	Sample(symbol string) (Depth, Tape, error)
}

// StalenessReporter 由能报告行情新鲜度的数据源实现（例如 Service）。
type StalenessReporter interface {
	Staleness(symbol string) time.Duration
}

// Sample 从数据源取一对盘口和成交并做边界校验。
// 数据源实现了 Sampler 时优先使用，避免两次读取之间盘口被替换。
func Sample(src Source, symbol string) (Depth, Tape, error) {
	var (
		d    Depth
		tape Tape
		err  error
	)
	if s, ok := src.(Sampler); ok {
		d, tape, err = s.Sample(symbol)
		if err != nil {
			return Depth{}, nil, err
		}
	} else {
		if d, err = src.CurrentDepth(symbol); err != nil {
			return Depth{}, nil, err
		}
		if tape, err = src.RecentTrades(symbol); err != nil {
			return Depth{}, nil, err
		}
	}
	if d.Symbol == "" {
		d.Symbol = symbol
	}
	if err := d.Validate(); err != nil {
		return Depth{}, nil, err
	}
	if err := tape.Validate(symbol); err != nil {
		return Depth{}, nil, err
	}
	return d, tape, nil
}

// Fixture 描述一个交易对的静态盘口和成交。
type Fixture struct {
	Depth  Depth   `yaml:"depth"`
	Trades []Trade `yaml:"trades"`
}

// FixtureSource 从 YAML 文件提供固定行情，替代硬编码的演示数据。
type FixtureSource struct {
	fixtures map[string]Fixture
}

// NewFixtureSource 直接用内存中的 fixtures 构建数据源。
func NewFixtureSource(fixtures map[string]Fixture) *FixtureSource {
	fs := &FixtureSource{fixtures: make(map[string]Fixture, len(fixtures))}
	for sym, fx := range fixtures {
		fx.Depth.Symbol = sym
		fs.fixtures[sym] = fx
	}
	return fs
}

// LoadFixtures 读取 YAML：顶层为 symbol -> {depth, trades}。
// depth.bestBid/bestAsk 缺省时取第一档价格。
func LoadFixtures(path string) (*FixtureSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures map[string]Fixture
	if err := yaml.Unmarshal(raw, &fixtures); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	now := time.Now()
	for sym, fx := range fixtures {
		if fx.Depth.BestBid == 0 && len(fx.Depth.Bids) > 0 {
			fx.Depth.BestBid = fx.Depth.Bids[0].Price
		}
		if fx.Depth.BestAsk == 0 && len(fx.Depth.Asks) > 0 {
			fx.Depth.BestAsk = fx.Depth.Asks[0].Price
		}
		fx.Depth.Ts = now
		fixtures[sym] = fx
	}
	return NewFixtureSource(fixtures), nil
}

// Symbols 返回按字母序排列的交易对。
func (f *FixtureSource) Symbols() []string {
	out := make([]string, 0, len(f.fixtures))
	for sym := range f.fixtures {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (f *FixtureSource) CurrentDepth(symbol string) (Depth, error) {
	fx, ok := f.fixtures[symbol]
	if !ok {
		return Depth{}, fmt.Errorf("depth %s: %w", symbol, ErrUnknownSymbol)
	}
	d := fx.Depth
	d.Bids = append([]Level(nil), d.Bids...)
	d.Asks = append([]Level(nil), d.Asks...)
	return d, nil
}

func (f *FixtureSource) RecentTrades(symbol string) (Tape, error) {
	fx, ok := f.fixtures[symbol]
	if !ok {
		return nil, fmt.Errorf("trades %s: %w", symbol, ErrUnknownSymbol)
	}
	return append(Tape(nil), fx.Trades...), nil
}
