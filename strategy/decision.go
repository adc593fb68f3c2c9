package strategy

import "fmt"

// SideBias 是盘口不平衡给出的方向：挂在买方，或直接打卖方。
// 零值为 SideAsk，与 bid == ask 时的默认归属一致。
type SideBias int

const (
	SideAsk SideBias = iota // 跨价差，打卖盘
	SideBid                 // 在买方挂被动单
)

func (s SideBias) String() string {
	switch s {
	case SideAsk:
		return "ask"
	case SideBid:
		return "bid"
	default:
		return fmt.Sprintf("SideBias(%d)", int(s))
	}
}

// Valid reports whether s is one of the declared sides.
func (s SideBias) Valid() bool {
	return s == SideAsk || s == SideBid
}

// ParseSideBias 解析 "bid"/"ask"（大小写敏感，与 String 对称）。
func ParseSideBias(v string) (SideBias, error) {
	switch v {
	case "ask":
		return SideAsk, nil
	case "bid":
		return SideBid, nil
	default:
		return SideAsk, fmt.Errorf("unknown side bias %q", v)
	}
}

func (s SideBias) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid side bias %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *SideBias) UnmarshalText(b []byte) error {
	v, err := ParseSideBias(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// LiquidityPosture 是成交波动率给出的流动性姿态。
type LiquidityPosture int

const (
	PostureEnterIlliquidSide LiquidityPosture = iota // 从流动性较差的一侧建仓
	PostureQuoteLiquidSide                           // 挂单报价，偏向流动性好的一侧
)

func (p LiquidityPosture) String() string {
	switch p {
	case PostureEnterIlliquidSide:
		return "enter_illiquid_side"
	case PostureQuoteLiquidSide:
		return "quote_liquid_side"
	default:
		return fmt.Sprintf("LiquidityPosture(%d)", int(p))
	}
}
