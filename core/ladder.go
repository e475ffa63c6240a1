package core

import (
	"github.com/shopspring/decimal"
)

// PriceLadder maps a configured (min, max) range onto NumTiers equally spaced prices.
type PriceLadder struct {
	Min    int64
	Max    int64
	prices Curve
}

// NewPriceLadder computes price[i] = lo + step*i with step = (hi-lo)/5.
// The step uses integer division, so hi itself is only reached when the
// range divides evenly.
func NewPriceLadder(lo, hi int64) PriceLadder {
	l := PriceLadder{Min: lo, Max: hi}
	step := (hi - lo) / (NumTiers - 1)
	for i := range l.prices {
		l.prices[i] = lo + step*int64(i)
	}
	return l
}

// Price returns the price of tier t. Out-of-range tiers price at zero.
func (l PriceLadder) Price(t Tier) int64 {
	if !t.Valid() {
		return 0
	}
	return l.prices[t]
}

// Prices returns all tier prices in ascending tier order.
func (l PriceLadder) Prices() Curve {
	return l.prices
}

// Quote renders the price of tier t, expressed in minor units, as a decimal
// with the given exponent (e.g. -2 turns 4650 penny into 46.50).
func (l PriceLadder) Quote(t Tier, exp int32) decimal.Decimal {
	return decimal.New(l.Price(t), exp)
}
