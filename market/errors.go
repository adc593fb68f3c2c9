package market

import (
	"errors"
	"fmt"
)

// ErrUnknownSymbol 表示数据源从未收到该交易对的数据。
var ErrUnknownSymbol = errors.New("unknown symbol")

// ErrStaleData 表示该交易对的行情太久没有更新，不应据此决策。
var ErrStaleData = errors.New("stale market data")

// MalformedSnapshotError 表示盘口快照不满足约束（价格非正、量为负、NaN/Inf、bid >= ask）。
// Index 为出错档位下标，-1 表示 best bid/ask 本身有问题。
type MalformedSnapshotError struct {
	Symbol string
	Reason string
	Index  int
}

func (e *MalformedSnapshotError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed snapshot %s: %s", e.Symbol, e.Reason)
	}
	return fmt.Sprintf("malformed snapshot %s: %s (level %d)", e.Symbol, e.Reason, e.Index)
}

// MalformedTradeError 表示成交记录价格或数量非正或不是有限数。
type MalformedTradeError struct {
	Symbol string
	Index  int
	Reason string
}

func (e *MalformedTradeError) Error() string {
	return fmt.Sprintf("malformed trade %s[%d]: %s", e.Symbol, e.Index, e.Reason)
}
