package core

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestCross(t *testing.T) {
	tests := []struct {
		name  string
		sells []FillOrder
		buys  []FillOrder
		want  []Trade
	}{
		{
			name:  "equal quantities",
			sells: []FillOrder{{ID: 1, Quantity: 5}},
			buys:  []FillOrder{{ID: 2, Quantity: 5}},
			want:  []Trade{{BuyerID: 2, SellerID: 1, Quantity: 5}},
		},
		{
			name:  "buyer larger carries remainder",
			sells: []FillOrder{{ID: 1, Quantity: 3}, {ID: 2, Quantity: 4}},
			buys:  []FillOrder{{ID: 3, Quantity: 5}},
			want: []Trade{
				{BuyerID: 3, SellerID: 1, Quantity: 3},
				{BuyerID: 3, SellerID: 2, Quantity: 2},
			},
		},
		{
			name:  "seller larger carries remainder",
			sells: []FillOrder{{ID: 1, Quantity: 10}},
			buys:  []FillOrder{{ID: 2, Quantity: 4}, {ID: 3, Quantity: 4}, {ID: 4, Quantity: 4}},
			want: []Trade{
				{BuyerID: 2, SellerID: 1, Quantity: 4},
				{BuyerID: 3, SellerID: 1, Quantity: 4},
				{BuyerID: 4, SellerID: 1, Quantity: 2},
			},
		},
		{
			name:  "no buyers",
			sells: []FillOrder{{ID: 1, Quantity: 10}},
			want:  []Trade{},
		},
		{
			name: "empty",
			want: []Trade{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check.Equal(t, tt.want, Cross(tt.sells, tt.buys))
		})
	}
}

func TestCross_DoesNotModifyInput(t *testing.T) {
	sells := []FillOrder{{ID: 1, Quantity: 3}, {ID: 2, Quantity: 4}}
	buys := []FillOrder{{ID: 3, Quantity: 5}}

	Cross(sells, buys)

	check.Equal(t, []FillOrder{{ID: 1, Quantity: 3}, {ID: 2, Quantity: 4}}, sells)
	check.Equal(t, []FillOrder{{ID: 3, Quantity: 5}}, buys)
}

func TestCross_ZeroEntriesProduceNoTrades(t *testing.T) {
	sells := []FillOrder{{ID: 0}, {ID: 1, Quantity: 3}, {ID: 0}}
	buys := []FillOrder{{ID: 0}, {ID: 0}, {ID: 2, Quantity: 3}}

	trades := Cross(sells, buys)
	for _, tr := range trades {
		check.True(t, tr.Quantity > 0)
	}
	// Crossing the compacted lists gives the same outcome.
	check.Equal(t, Cross(CompactFills(sells), CompactFills(buys)), trades)
}

func TestCross_ConservesVolume(t *testing.T) {
	sells := []FillOrder{{ID: 1, Quantity: 7}, {ID: 2, Quantity: 1}, {ID: 3, Quantity: 6}}
	buys := []FillOrder{{ID: 4, Quantity: 2}, {ID: 5, Quantity: 9}}

	trades := Cross(sells, buys)

	check.Equal(t, int64(11), TradedVolume(trades))

	perSeller := map[int64]int64{}
	for _, tr := range trades {
		perSeller[tr.SellerID] += tr.Quantity
	}
	check.Equal(t, int64(7), perSeller[1])
	check.Equal(t, int64(1), perSeller[2])
	check.Equal(t, int64(3), perSeller[3])
}
