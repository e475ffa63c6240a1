package core

// RunClearing executes the full plaintext pipeline:
// curves → aggregate supply/demand → clearing tier → fills per side → trades.
//
// Parameters:
//   - sells: sell orders in submission order
//   - buys: buy orders in submission order
//
// Orders are assumed to be validated (see RawOrder.Validate).
func RunClearing(sells, buys []RawOrder) *ClearingResult {
	// Step 1: per-order cumulative curves
	sellCurves := BuildCurves(sells, Sell)
	buyCurves := BuildCurves(buys, Buy)

	// Step 2: aggregate curves
	supply := AggregateCurve(sellCurves)
	demand := AggregateCurve(buyCurves)

	// Step 3: clearing tier
	tier := SelectClearingTier(supply, demand)

	// Step 4: fills at the clearing tier
	sellFills := ExtractFills(sellCurves, tier)
	buyFills := ExtractFills(buyCurves, tier)

	// Step 5: cross
	return &ClearingResult{
		Supply:    supply,
		Demand:    demand,
		Tier:      tier,
		SellFills: sellFills,
		BuyFills:  buyFills,
		Trades:    Cross(sellFills, buyFills),
	}
}

// SlotsFromOrders lays orders out as plaintext slots: sells first, then buys,
// followed by empty slots up to capacity. It lets the slot pipeline be run and
// compared against RunClearing without a secure computation engine.
func SlotsFromOrders(sells, buys []RawOrder, capacity int) []Slot[int64, bool] {
	slots := make([]Slot[int64, bool], capacity)
	n := 0
	for _, o := range sells {
		if n == capacity {
			break
		}
		slots[n] = Slot[int64, bool]{ID: o.ID, Quantity: o.QuantityPerTier, IsSell: true}
		n++
	}
	for _, o := range buys {
		if n == capacity {
			break
		}
		slots[n] = Slot[int64, bool]{ID: o.ID, Quantity: o.QuantityPerTier, IsBuy: true}
		n++
	}
	return slots
}
