package core

import (
	"errors"
	"fmt"
)

// NumTiers is the number of discrete price tiers in every auction round.
const NumTiers = 6

const (
	// MaxQuantity bounds a single per-tier quantity. Aggregate curves stay
	// within int64 for up to 2^28 orders.
	MaxQuantity = 1 << 32
	// MaxPrice bounds the absolute value of a ladder price.
	MaxPrice = 1 << 53
)

var (
	// ErrNegativeQuantity is returned when an order carries a negative per-tier quantity.
	ErrNegativeQuantity = errors.New("negative quantity")
	// ErrQuantityTooLarge is returned when a per-tier quantity exceeds MaxQuantity.
	ErrQuantityTooLarge = errors.New("quantity too large")
)

// Side tells which side of the book an order was submitted to.
type Side uint8

const (
	Buy  Side = 1
	Sell Side = 2
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// ParseSide converts "buy"/"sell" into a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

// Tier is an index into the price ladder, in [0, NumTiers).
type Tier int

// Valid reports whether t addresses one of the ladder's tiers.
func (t Tier) Valid() bool {
	return t >= 0 && t < NumTiers
}

// Curve holds one value per price tier.
type Curve [NumTiers]int64

// RawOrder is a participant submission: the quantity offered at each tier.
// For sells a tier counts when its price is at or above the seller's limit,
// for buys when it is at or below the buyer's limit.
type RawOrder struct {
	ID              int64 `json:"id"`
	QuantityPerTier Curve `json:"quantity_per_tier"`
}

// Validate rejects orders with negative quantities or quantities above
// MaxQuantity.
func (o RawOrder) Validate() error {
	for i, q := range o.QuantityPerTier {
		switch {
		case q < 0:
			return fmt.Errorf("order %d tier %d: %w", o.ID, i, ErrNegativeQuantity)
		case q > MaxQuantity:
			return fmt.Errorf("order %d tier %d: %w", o.ID, i, ErrQuantityTooLarge)
		}
	}
	return nil
}

// CumulativeCurve is a RawOrder folded into a running sum: forward for sells,
// backward for buys.
type CumulativeCurve struct {
	ID         int64
	Cumulative Curve
}

// FillOrder is an order's quantity at the clearing tier.
type FillOrder struct {
	ID       int64 `json:"id" cbor:"1,keyasint"`
	Quantity int64 `json:"quantity" cbor:"2,keyasint"`
}

// Trade is one bilateral fill produced by crossing.
type Trade struct {
	BuyerID  int64 `json:"buyer_id"`
	SellerID int64 `json:"seller_id"`
	Quantity int64 `json:"quantity"`
}

// ClearingResult contains everything a single clearing run produced.
type ClearingResult struct {
	Supply    Curve
	Demand    Curve
	Tier      Tier
	SellFills []FillOrder
	BuyFills  []FillOrder
	Trades    []Trade
}
