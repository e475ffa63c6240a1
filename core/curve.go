package core

// intArith is IntArith held as the interface, so the generic stages can infer
// their type arguments from it.
var intArith Arith[int64, bool] = IntArith{}

// BuildCurve converts an order's per-tier quantities into its cumulative curve.
// Sell curves grow with the tier index, buy curves grow as the index falls.
func BuildCurve(o RawOrder, side Side) CumulativeCurve {
	var c [NumTiers]int64
	if side == Sell {
		c = CumulateForward(intArith, o.QuantityPerTier)
	} else {
		c = CumulateBackward(intArith, o.QuantityPerTier)
	}
	return CumulativeCurve{ID: o.ID, Cumulative: c}
}

// BuildCurves applies BuildCurve to every order, keeping submission order.
func BuildCurves(orders []RawOrder, side Side) []CumulativeCurve {
	curves := make([]CumulativeCurve, 0, len(orders))
	for _, o := range orders {
		curves = append(curves, BuildCurve(o, side))
	}
	return curves
}

// AggregateCurve sums cumulative curves element-wise. An empty input yields zeros.
func AggregateCurve(curves []CumulativeCurve) Curve {
	raw := make([][NumTiers]int64, len(curves))
	for i, c := range curves {
		raw[i] = c.Cumulative
	}
	return SumMasked[int64, bool](intArith, raw, nil)
}
