package market

import "time"

// Trade represents a normalized trade tick.
type Trade struct {
	Price float64   `yaml:"price"`
	Qty   float64   `yaml:"volume"`
	Ts    time.Time `yaml:"-"`
}

// Tape is a time-ascending window of recent trades. It may be empty.
type Tape []Trade

// Prices returns the trade prices in tape order.
func (t Tape) Prices() []float64 {
	prices := make([]float64, len(t))
	for i, tr := range t {
		prices[i] = tr.Price
	}
	return prices
}

// Volume returns the total traded quantity.
func (t Tape) Volume() float64 {
	total := 0.0
	for _, tr := range t {
		total += tr.Qty
	}
	return total
}

// Validate rejects trades with a non-positive or non-finite price or quantity.
func (t Tape) Validate(symbol string) error {
	for i, tr := range t {
		if err := tr.validate(symbol, i); err != nil {
			return err
		}
	}
	return nil
}

func (tr Trade) validate(symbol string, idx int) error {
	if !positive(tr.Price) {
		return &MalformedTradeError{Symbol: symbol, Index: idx, Reason: "price must be finite and > 0"}
	}
	if !positive(tr.Qty) {
		return &MalformedTradeError{Symbol: symbol, Index: idx, Reason: "volume must be finite and > 0"}
	}
	return nil
}
