package core

// scanOrder starts in the middle of the ladder and alternates outward, so that
// equal imbalances resolve toward the middle price.
var scanOrder = [NumTiers]Tier{3, 2, 4, 1, 5, 0}

// ScanOrder returns the order in which tiers are examined when selecting the
// clearing tier. The earliest scanned tier wins a tie.
func ScanOrder() [NumTiers]Tier {
	return scanOrder
}

// CumulateForward folds q into a running sum over tiers 0..5 (sell curves).
func CumulateForward[T, B any](a Arith[T, B], q [NumTiers]T) [NumTiers]T {
	var out [NumTiers]T
	acc := a.Const(0)
	for i := 0; i < NumTiers; i++ {
		acc = a.Add(acc, q[i])
		out[i] = acc
	}
	return out
}

// CumulateBackward folds q into a running sum over tiers 5..0 (buy curves).
func CumulateBackward[T, B any](a Arith[T, B], q [NumTiers]T) [NumTiers]T {
	var out [NumTiers]T
	acc := a.Const(0)
	for i := NumTiers - 1; i >= 0; i-- {
		acc = a.Add(acc, q[i])
		out[i] = acc
	}
	return out
}

// SumMasked adds up curves element-wise. When mask is non-nil, curve i only
// contributes where mask[i] holds; mask must then be as long as curves.
func SumMasked[T, B any](a Arith[T, B], curves [][NumTiers]T, mask []B) [NumTiers]T {
	var total [NumTiers]T
	zero := a.Const(0)
	for t := range total {
		total[t] = zero
	}
	for i, c := range curves {
		for t := 0; t < NumTiers; t++ {
			v := c[t]
			if mask != nil {
				v = a.Select(mask[i], v, zero)
			}
			total[t] = a.Add(total[t], v)
		}
	}
	return total
}

// imbalance returns |supply - demand|.
func imbalance[T, B any](a Arith[T, B], supply, demand T) T {
	return a.Select(a.Less(supply, demand), a.Sub(demand, supply), a.Sub(supply, demand))
}

// SelectTier returns the tier minimizing |supply[t] - demand[t]|, walking the
// tiers in ScanOrder and replacing the best only on a strictly smaller imbalance.
func SelectTier[T, B any](a Arith[T, B], supply, demand [NumTiers]T) T {
	first := scanOrder[0]
	best := imbalance(a, supply[first], demand[first])
	tier := a.Const(int64(first))
	for _, t := range scanOrder[1:] {
		imb := imbalance(a, supply[t], demand[t])
		better := a.Less(imb, best)
		best = a.Select(better, imb, best)
		tier = a.Select(better, a.Const(int64(t)), tier)
	}
	return tier
}

// FillAtTier reads curve[tier] without indexing by tier: every element is
// visited and the matching one is selected.
func FillAtTier[T, B any](a Arith[T, B], curve [NumTiers]T, tier T) T {
	q := a.Const(0)
	for i := 0; i < NumTiers; i++ {
		q = a.Select(a.Equal(tier, a.Const(int64(i))), curve[i], q)
	}
	return q
}

// Slot is one fixed-capacity order cell. IsSell and IsBuy are both false for
// an unused slot.
type Slot[T, B any] struct {
	ID       T
	Quantity [NumTiers]T
	IsSell   B
	IsBuy    B
}

// SlotFill is a slot's fill on one side. Slots belonging to the other side
// (or unused) carry a zero id and zero quantity.
type SlotFill[T any] struct {
	ID       T
	Quantity T
}

// SlotOutcome is what ClearSlots hands over for declassification.
type SlotOutcome[T any] struct {
	Tier  T
	Sells []SlotFill[T]
	Buys  []SlotFill[T]
}

// ClearSlots runs curve building, aggregation, tier selection and fill
// extraction over a fixed set of slots whose role is itself a value of the
// arithmetic. Both output arrays have len(slots) entries, in slot order.
func ClearSlots[T, B any](a Arith[T, B], slots []Slot[T, B]) SlotOutcome[T] {
	curves := make([][NumTiers]T, len(slots))
	sellMask := make([]B, len(slots))
	buyMask := make([]B, len(slots))
	for i, s := range slots {
		fwd := CumulateForward(a, s.Quantity)
		bwd := CumulateBackward(a, s.Quantity)
		for t := 0; t < NumTiers; t++ {
			curves[i][t] = a.Select(s.IsSell, fwd[t], bwd[t])
		}
		sellMask[i] = s.IsSell
		buyMask[i] = s.IsBuy
	}

	supply := SumMasked(a, curves, sellMask)
	demand := SumMasked(a, curves, buyMask)
	tier := SelectTier(a, supply, demand)

	zero := a.Const(0)
	out := SlotOutcome[T]{
		Tier:  tier,
		Sells: make([]SlotFill[T], len(slots)),
		Buys:  make([]SlotFill[T], len(slots)),
	}
	for i, s := range slots {
		q := FillAtTier(a, curves[i], tier)
		out.Sells[i] = SlotFill[T]{
			ID:       a.Select(s.IsSell, s.ID, zero),
			Quantity: a.Select(s.IsSell, q, zero),
		}
		out.Buys[i] = SlotFill[T]{
			ID:       a.Select(s.IsBuy, s.ID, zero),
			Quantity: a.Select(s.IsBuy, q, zero),
		}
	}
	return out
}
