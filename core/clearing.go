package core

// SelectClearingTier picks the tier with the smallest supply/demand imbalance.
// Ties go to the tier scanned first (see ScanOrder).
func SelectClearingTier(supply, demand Curve) Tier {
	return Tier(SelectTier(intArith, supply, demand))
}

// Imbalance returns |supply[t] - demand[t]|.
func Imbalance(supply, demand Curve, t Tier) int64 {
	return imbalance(intArith, supply[t], demand[t])
}
