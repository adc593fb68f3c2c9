package market

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTapeWindow 为每个交易对保留的最近成交笔数。
const DefaultTapeWindow = 200

// Service 维护各交易对最新深度与最近成交窗口，并向订阅者广播。
// 写入时做边界校验，读取时返回副本，调用方可以随意持有。
type Service struct {
	pub        *Publisher
	tapeWindow int

	mu     sync.RWMutex
	books  map[string]*OrderBook
	tapes  map[string]Tape
	last   map[string]time.Time
	levels int
}

func NewService(pub *Publisher, tapeWindow int) *Service {
	if pub == nil {
		pub = NewPublisher()
	}
	if tapeWindow <= 0 {
		tapeWindow = DefaultTapeWindow
	}
	return &Service{
		pub:        pub,
		tapeWindow: tapeWindow,
		books:      make(map[string]*OrderBook),
		tapes:      make(map[string]Tape),
		last:       make(map[string]time.Time),
	}
}

// LimitLevels 限制快照中每侧返回的档位数；0 表示不限制。
func (s *Service) LimitLevels(n int) {
	s.mu.Lock()
	s.levels = n
	s.mu.Unlock()
}

// OnDepth 用全量档位替换盘口；快照不合法时拒绝并保留旧盘口。
func (s *Service) OnDepth(symbol string, bids, asks []Level, ts time.Time) error {
	next := NewOrderBook()
	next.Replace(bids, asks)
	d := next.Snapshot(symbol, 0, ts)
	if err := d.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.books[symbol] = next
	s.last[symbol] = ts
	s.mu.Unlock()
	s.pub.PublishDepth(d)
	return nil
}

// OnTrade 追加成交到窗口并广播；价格或数量非正时拒绝。
func (s *Service) OnTrade(symbol string, price, qty float64, ts time.Time) error {
	tr := Trade{Price: price, Qty: qty, Ts: ts}
	if err := tr.validate(symbol, 0); err != nil {
		return err
	}

	s.mu.Lock()
	tape := append(s.tapes[symbol], tr)
	if len(tape) > s.tapeWindow {
		tape = tape[len(tape)-s.tapeWindow:]
	}
	s.tapes[symbol] = tape
	s.last[symbol] = ts
	s.mu.Unlock()
	s.pub.PublishTrade(tr)
	return nil
}

// CurrentDepth 返回最新盘口快照。
func (s *Service) CurrentDepth(symbol string) (Depth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.depthLocked(symbol)
}

// RecentTrades 返回最近成交窗口的副本；有盘口但无成交时返回空 Tape。
func (s *Service) RecentTrades(symbol string) (Tape, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tapeLocked(symbol)
}

// Sample 在同一把锁下同时取盘口和成交，保证两者属于同一采样窗口。
func (s *Service) Sample(symbol string) (Depth, Tape, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, err := s.depthLocked(symbol)
	if err != nil {
		return Depth{}, nil, err
	}
	tape, err := s.tapeLocked(symbol)
	if err != nil {
		return Depth{}, nil, err
	}
	return d, tape, nil
}

func (s *Service) depthLocked(symbol string) (Depth, error) {
	ob, ok := s.books[symbol]
	if !ok {
		return Depth{}, fmt.Errorf("depth %s: %w", symbol, ErrUnknownSymbol)
	}
	return ob.Snapshot(symbol, s.levels, s.last[symbol]), nil
}

func (s *Service) tapeLocked(symbol string) (Tape, error) {
	tape, ok := s.tapes[symbol]
	if !ok {
		if _, seen := s.books[symbol]; !seen {
			return nil, fmt.Errorf("trades %s: %w", symbol, ErrUnknownSymbol)
		}
	}
	out := make(Tape, len(tape))
	copy(out, tape)
	return out, nil
}

// Staleness 返回距离上次更新的时间间隔；如无数据返回一年。
func (s *Service) Staleness(symbol string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.last[symbol]
	if !ok {
		return time.Hour * 24 * 365
	}
	return time.Since(ts)
}
