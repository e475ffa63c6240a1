package core

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestRunClearing_WorkedExample(t *testing.T) {
	// Ladder 0..50 prices the tiers at 0,10,20,30,40,50.
	sells := []RawOrder{{ID: 1, QuantityPerTier: Curve{0, 0, 5, 5, 10, 10}}}
	buys := []RawOrder{{ID: 2, QuantityPerTier: Curve{10, 8, 5, 2, 0, 0}}}

	result := RunClearing(sells, buys)

	// supply [0,0,5,10,20,30], demand [25,15,7,2,0,0]
	// imbalance in scan order: t3=8 t2=2 t4=20 t1=15 t5=30 t0=25
	check.Equal(t, Curve{0, 0, 5, 10, 20, 30}, result.Supply)
	check.Equal(t, Curve{25, 15, 7, 2, 0, 0}, result.Demand)
	check.Equal(t, Tier(2), result.Tier)
	check.Equal(t, []FillOrder{{ID: 1, Quantity: 5}}, result.SellFills)
	check.Equal(t, []FillOrder{{ID: 2, Quantity: 7}}, result.BuyFills)
	check.Equal(t, []Trade{{BuyerID: 2, SellerID: 1, Quantity: 5}}, result.Trades)

	ladder := NewPriceLadder(0, 50)
	check.Equal(t, int64(20), ladder.Price(result.Tier))
}

func TestRunClearing_SingleTierMatch(t *testing.T) {
	// One seller and one buyer only willing to trade at tier 3.
	sells := []RawOrder{{ID: 1, QuantityPerTier: Curve{0, 0, 0, 4, 0, 0}}}
	buys := []RawOrder{{ID: 2, QuantityPerTier: Curve{0, 0, 0, 4, 0, 0}}}

	result := RunClearing(sells, buys)

	check.Equal(t, Tier(3), result.Tier)
	check.Equal(t, []Trade{{BuyerID: 2, SellerID: 1, Quantity: 4}}, result.Trades)
}

func TestRunClearing_MultipleSellersOneBuyer(t *testing.T) {
	sells := []RawOrder{
		{ID: 1, QuantityPerTier: Curve{3, 0, 0, 0, 0, 0}},
		{ID: 2, QuantityPerTier: Curve{0, 2, 0, 0, 0, 0}},
	}
	buys := []RawOrder{
		{ID: 3, QuantityPerTier: Curve{0, 0, 0, 0, 0, 4}},
	}

	result := RunClearing(sells, buys)

	// supply [3,5,5,5,5,5], demand [4,4,4,4,4,4]: imbalance 1 everywhere, tier 3 scanned first.
	check.Equal(t, Tier(3), result.Tier)
	check.Equal(t, []FillOrder{{ID: 1, Quantity: 3}, {ID: 2, Quantity: 2}}, result.SellFills)
	check.Equal(t, []FillOrder{{ID: 3, Quantity: 4}}, result.BuyFills)
	check.Equal(t, []Trade{
		{BuyerID: 3, SellerID: 1, Quantity: 3},
		{BuyerID: 3, SellerID: 2, Quantity: 1},
	}, result.Trades)
}

func TestRunClearing_NoOrders(t *testing.T) {
	result := RunClearing(nil, nil)

	assert.NotNil(t, result)
	// Every tier has zero imbalance, so the first scanned tier wins.
	check.Equal(t, ScanOrder()[0], result.Tier)
	check.Equal(t, 0, len(result.SellFills))
	check.Equal(t, 0, len(result.BuyFills))
	check.Equal(t, 0, len(result.Trades))
}

func TestRunClearing_OneSidedBook(t *testing.T) {
	sells := []RawOrder{{ID: 1, QuantityPerTier: Curve{0, 0, 0, 0, 0, 9}}}

	result := RunClearing(sells, nil)

	// supply [0,0,0,0,0,9], demand zero: tiers 0..4 tie at zero imbalance.
	check.Equal(t, Tier(3), result.Tier)
	check.Equal(t, 0, len(result.SellFills))
	check.Equal(t, 0, len(result.Trades))
}

func TestRunClearing_TradesNeverExceedShortSide(t *testing.T) {
	sells := []RawOrder{
		{ID: 1, QuantityPerTier: Curve{1, 1, 1, 1, 1, 1}},
		{ID: 2, QuantityPerTier: Curve{0, 0, 4, 0, 2, 0}},
		{ID: 3, QuantityPerTier: Curve{5, 0, 0, 0, 0, 0}},
	}
	buys := []RawOrder{
		{ID: 4, QuantityPerTier: Curve{0, 0, 0, 6, 0, 0}},
		{ID: 5, QuantityPerTier: Curve{2, 2, 2, 2, 2, 2}},
	}

	result := RunClearing(sells, buys)

	var sellTotal, buyTotal int64
	for _, f := range result.SellFills {
		sellTotal += f.Quantity
	}
	for _, f := range result.BuyFills {
		buyTotal += f.Quantity
	}
	check.Equal(t, min(sellTotal, buyTotal), TradedVolume(result.Trades))
	check.Equal(t, result.Supply[result.Tier], sellTotal)
	check.Equal(t, result.Demand[result.Tier], buyTotal)
}

func TestSlotsFromOrders_MatchesRunClearing(t *testing.T) {
	sells := []RawOrder{
		{ID: 1, QuantityPerTier: Curve{0, 0, 5, 5, 10, 10}},
		{ID: 2, QuantityPerTier: Curve{1, 0, 0, 3, 0, 0}},
	}
	buys := []RawOrder{
		{ID: 3, QuantityPerTier: Curve{10, 8, 5, 2, 0, 0}},
		{ID: 4, QuantityPerTier: Curve{0, 0, 0, 0, 6, 0}},
	}

	want := RunClearing(sells, buys)
	got := ClearSlots(intArith, SlotsFromOrders(sells, buys, 8))

	check.Equal(t, int64(want.Tier), got.Tier)

	toFills := func(s []SlotFill[int64]) []FillOrder {
		out := make([]FillOrder, len(s))
		for i, f := range s {
			out[i] = FillOrder{ID: f.ID, Quantity: f.Quantity}
		}
		return CompactFills(out)
	}
	check.Equal(t, want.SellFills, toFills(got.Sells))
	check.Equal(t, want.BuyFills, toFills(got.Buys))
}

func TestSlotsFromOrders_Capacity(t *testing.T) {
	sells := []RawOrder{{ID: 1}, {ID: 2}}
	buys := []RawOrder{{ID: 3}, {ID: 4}}

	slots := SlotsFromOrders(sells, buys, 3)

	assert.Equal(t, 3, len(slots))
	check.True(t, slots[0].IsSell)
	check.True(t, slots[1].IsSell)
	check.True(t, slots[2].IsBuy)
	check.Equal(t, int64(3), slots[2].ID)
}
