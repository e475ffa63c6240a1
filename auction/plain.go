package auction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cloudx-io/doubleauction/core"
	"github.com/cloudx-io/doubleauction/logging"
)

// PlainAuction clears over ordinary integers with unbounded order backlogs.
type PlainAuction struct {
	state State
	sells []core.RawOrder
	buys  []core.RawOrder
	log   *logging.Logger
}

var _ Auction = (*PlainAuction)(nil)

// NewPlain creates a plaintext auction owned by owner. log may be nil.
func NewPlain(owner string, log *logging.Logger) *PlainAuction {
	if log == nil {
		log = logging.NewNop()
	}
	return &PlainAuction{
		state: newState(owner),
		log:   log.Named("plain"),
	}
}

func (a *PlainAuction) Mode() Mode { return Plaintext }

func (a *PlainAuction) SubmitSell(o core.RawOrder) error {
	if err := a.accept(o, core.Sell); err != nil {
		return fmt.Errorf("submit sell: %w", err)
	}
	a.sells = append(a.sells, o)
	return nil
}

func (a *PlainAuction) SubmitBuy(o core.RawOrder) error {
	if err := a.accept(o, core.Buy); err != nil {
		return fmt.Errorf("submit buy: %w", err)
	}
	a.buys = append(a.buys, o)
	return nil
}

func (a *PlainAuction) accept(o core.RawOrder, side core.Side) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return a.state.ids.claim(side, o.ID)
}

func (a *PlainAuction) UpdatePrices(caller string, minPrice, maxPrice int64) error {
	return a.state.updatePrices(caller, minPrice, maxPrice)
}

// Clear runs the clearing pipeline over every order submitted since the last
// reset. Orders stay in the backlog, so clearing twice gives the same trades.
func (a *PlainAuction) Clear(_ context.Context, caller string) (*Outcome, error) {
	if err := a.state.authorize(caller, "clear"); err != nil {
		return nil, err
	}

	result := core.RunClearing(a.sells, a.buys)
	out := a.state.commit(result.Tier, result.SellFills, result.BuyFills)

	a.log.Info("auction cleared",
		zap.Int("round", out.Round),
		zap.Int("tier", int(out.Tier)),
		zap.Int64("price", out.Price),
		zap.Int("sells", len(a.sells)),
		zap.Int("buys", len(a.buys)),
		zap.Int("trades", len(out.Trades)))
	return out, nil
}

func (a *PlainAuction) Reset(caller string) error {
	if err := a.state.checkReset(caller); err != nil {
		return err
	}
	a.sells = nil
	a.buys = nil
	a.state.reset()
	a.log.Debug("auction reset")
	return nil
}

func (a *PlainAuction) Snapshot() Snapshot {
	return a.state.snapshot(Plaintext, len(a.sells), len(a.buys))
}
