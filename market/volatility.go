package market

import "math"

// PriceStats holds population statistics of a price series.
type PriceStats struct {
	Count    int
	Mean     float64
	Variance float64 // divisor N, not N-1
	StdDev   float64
}

// CalculatePriceStats returns the mean, population variance and standard
// deviation of prices. An empty series yields the zero value.
func CalculatePriceStats(prices []float64) PriceStats {
	n := len(prices)
	if n == 0 {
		return PriceStats{}
	}

	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	mean := sum / float64(n)

	sumSquaredDiff := 0.0
	for _, p := range prices {
		diff := p - mean
		sumSquaredDiff += diff * diff
	}
	variance := sumSquaredDiff / float64(n)

	return PriceStats{
		Count:    n,
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
	}
}
