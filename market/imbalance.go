package market

// CalculateImbalance calculates the imbalance between bid and ask volumes
// Imbalance = (BidVol - AskVol) / (BidVol + AskVol)
func CalculateImbalance(bidVolume float64, askVolume float64) float64 {
	totalVolume := bidVolume + askVolume
	if totalVolume == 0 {
		return 0
	}
	return (bidVolume - askVolume) / totalVolume
}
