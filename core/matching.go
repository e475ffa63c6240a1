package core

// Cross matches sell fills against buy fills in submission order.
//
// Two cursors walk the lists. The smaller of the two current quantities is
// traded, that order's cursor advances, and the larger order keeps its
// remainder for the next comparison. Equal quantities advance both cursors.
// Whatever is left on the longer side when the other runs out is dropped.
//
// The input slices are not modified.
func Cross(sells, buys []FillOrder) []Trade {
	s := append([]FillOrder(nil), sells...)
	b := append([]FillOrder(nil), buys...)

	trades := make([]Trade, 0)
	i, j := 0, 0
	for i < len(s) && j < len(b) {
		seller, buyer := s[i], b[j]
		trade := Trade{BuyerID: buyer.ID, SellerID: seller.ID}

		switch {
		case seller.Quantity == buyer.Quantity:
			trade.Quantity = buyer.Quantity
			i++
			j++
		case seller.Quantity < buyer.Quantity:
			trade.Quantity = seller.Quantity
			b[j].Quantity = buyer.Quantity - seller.Quantity
			i++
		default:
			trade.Quantity = buyer.Quantity
			s[i].Quantity = seller.Quantity - buyer.Quantity
			j++
		}

		if trade.Quantity > 0 {
			trades = append(trades, trade)
		}
	}
	return trades
}

// TradedVolume sums the quantity of all trades.
func TradedVolume(trades []Trade) int64 {
	var total int64
	for _, t := range trades {
		total += t.Quantity
	}
	return total
}
