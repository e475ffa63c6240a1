package auction

import (
	"context"
	"fmt"

	"github.com/cloudx-io/doubleauction/core"
)

// Mode selects the execution mode of an auction.
type Mode string

const (
	Plaintext Mode = "plaintext"
	Oblivious Mode = "oblivious"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Plaintext, Oblivious:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown auction mode %q", s)
	}
}

// Auction is a single batch double auction. Implementations are not safe for
// concurrent use; callers serialize operations.
type Auction interface {
	Mode() Mode
	SubmitSell(o core.RawOrder) error
	SubmitBuy(o core.RawOrder) error
	UpdatePrices(caller string, minPrice, maxPrice int64) error
	Clear(ctx context.Context, caller string) (*Outcome, error)
	Reset(caller string) error
	Snapshot() Snapshot
}

// Outcome is the result of one clearing.
type Outcome struct {
	Round     int
	Tier      core.Tier
	Price     int64
	SellFills []core.FillOrder
	BuyFills  []core.FillOrder
	Trades    []core.Trade
}

// Snapshot is the read-only view of an auction.
type Snapshot struct {
	Mode      Mode
	Owner     string
	MinPrice  int64
	MaxPrice  int64
	Prices    core.Curve
	Cleared   bool
	Tier      core.Tier
	Round     int
	Sells     int
	Buys      int
	SellFills []core.FillOrder
	BuyFills  []core.FillOrder
	Trades    []core.Trade
}

// State is what both modes keep outside of the order book itself.
type State struct {
	Owner     string
	Ladder    core.PriceLadder
	Cleared   bool
	Tier      core.Tier
	Round     int
	SellFills []core.FillOrder
	BuyFills  []core.FillOrder
	Trades    []core.Trade

	ids orderIDs
}

func newState(owner string) State {
	return State{Owner: owner, Ladder: core.NewPriceLadder(0, 0), ids: newOrderIDs()}
}

func (s *State) authorize(caller, op string) error {
	if caller != s.Owner {
		return fmt.Errorf("%s by %q: %w", op, caller, ErrUnauthorized)
	}
	return nil
}

func (s *State) updatePrices(caller string, minPrice, maxPrice int64) error {
	if err := s.authorize(caller, "update prices"); err != nil {
		return err
	}
	if minPrice > maxPrice || minPrice < -core.MaxPrice || maxPrice > core.MaxPrice {
		return fmt.Errorf("update prices [%d, %d]: %w", minPrice, maxPrice, ErrInvalidPrices)
	}
	s.Ladder = core.NewPriceLadder(minPrice, maxPrice)
	return nil
}

// commit replaces the clearing results wholesale and crosses the fills.
func (s *State) commit(tier core.Tier, sellFills, buyFills []core.FillOrder) *Outcome {
	s.Cleared = true
	s.Tier = tier
	s.Round++
	s.SellFills = sellFills
	s.BuyFills = buyFills
	s.Trades = core.Cross(sellFills, buyFills)

	return &Outcome{
		Round:     s.Round,
		Tier:      tier,
		Price:     s.Ladder.Price(tier),
		SellFills: append([]core.FillOrder(nil), sellFills...),
		BuyFills:  append([]core.FillOrder(nil), buyFills...),
		Trades:    append([]core.Trade(nil), s.Trades...),
	}
}

func (s *State) checkReset(caller string) error {
	if err := s.authorize(caller, "reset"); err != nil {
		return err
	}
	if !s.Cleared {
		return fmt.Errorf("reset: %w", ErrNotCleared)
	}
	return nil
}

// reset clears everything but the owner and the round counter. The ladder
// goes back to all zeros and every order id becomes free again.
func (s *State) reset() {
	*s = State{Owner: s.Owner, Round: s.Round, Ladder: core.NewPriceLadder(0, 0), ids: newOrderIDs()}
}

func (s *State) snapshot(mode Mode, sells, buys int) Snapshot {
	return Snapshot{
		Mode:      mode,
		Owner:     s.Owner,
		MinPrice:  s.Ladder.Min,
		MaxPrice:  s.Ladder.Max,
		Prices:    s.Ladder.Prices(),
		Cleared:   s.Cleared,
		Tier:      s.Tier,
		Round:     s.Round,
		Sells:     sells,
		Buys:      buys,
		SellFills: append([]core.FillOrder(nil), s.SellFills...),
		BuyFills:  append([]core.FillOrder(nil), s.BuyFills...),
		Trades:    append([]core.Trade(nil), s.Trades...),
	}
}
