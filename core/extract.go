package core

// ExtractFills reads each curve's quantity at the clearing tier. Orders with
// nothing to trade at that tier are left out; the rest keep submission order.
func ExtractFills(curves []CumulativeCurve, tier Tier) []FillOrder {
	fills := make([]FillOrder, 0, len(curves))
	for _, c := range curves {
		q := FillAtTier(intArith, c.Cumulative, int64(tier))
		if q > 0 {
			fills = append(fills, FillOrder{ID: c.ID, Quantity: q})
		}
	}
	return fills
}

// CompactFills drops entries with no quantity, keeping order. It turns the
// fixed-capacity arrays opened by the oblivious pipeline into fill lists.
func CompactFills(fills []FillOrder) []FillOrder {
	out := make([]FillOrder, 0, len(fills))
	for _, f := range fills {
		if f.Quantity > 0 {
			out = append(out, f)
		}
	}
	return out
}
