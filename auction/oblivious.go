package auction

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cloudx-io/doubleauction/core"
	"github.com/cloudx-io/doubleauction/logging"
	"github.com/cloudx-io/doubleauction/mpc"
)

// DefaultCapacity is the number of order slots, shared by both sides.
const DefaultCapacity = 85

// openedValues is the number of values a clearing declassifies: the tier,
// the sell fill array and the buy fill array.
const openedValues = 3

// slotVars are the engine variables backing one order slot.
type slotVars struct {
	id     uuid.UUID
	qty    [core.NumTiers]uuid.UUID
	isSell uuid.UUID
	isBuy  uuid.UUID
}

func (s slotVars) all() []uuid.UUID {
	ids := make([]uuid.UUID, 0, core.NumTiers+3)
	ids = append(ids, s.id, s.isSell, s.isBuy)
	return append(ids, s.qty[:]...)
}

// ObliviousAuction keeps orders as secret-shared values in a fixed number of
// slots and clears them inside the engine. Only the clearing tier and the two
// fill arrays are ever opened.
type ObliviousAuction struct {
	state    State
	engine   *mpc.Engine
	capacity int
	slots    []slotVars
	sells    int
	buys     int
	pending  uuid.UUID
	log      *logging.Logger
}

var _ Auction = (*ObliviousAuction)(nil)

// NewOblivious creates an oblivious auction over engine with the given slot
// capacity (DefaultCapacity when capacity <= 0). log may be nil.
func NewOblivious(owner string, engine *mpc.Engine, capacity int, log *logging.Logger) *ObliviousAuction {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &ObliviousAuction{
		state:    newState(owner),
		engine:   engine,
		capacity: capacity,
		slots:    make([]slotVars, 0, capacity),
		log:      log.Named("oblivious"),
	}
}

func (a *ObliviousAuction) Mode() Mode { return Oblivious }

// Capacity is the total number of order slots.
func (a *ObliviousAuction) Capacity() int { return a.capacity }

// Pending returns the token of the clearing in flight, or uuid.Nil.
func (a *ObliviousAuction) Pending() uuid.UUID { return a.pending }

func (a *ObliviousAuction) SubmitSell(o core.RawOrder) error {
	if err := a.submit(o, core.Sell); err != nil {
		return fmt.Errorf("submit sell: %w", err)
	}
	a.sells++
	return nil
}

func (a *ObliviousAuction) SubmitBuy(o core.RawOrder) error {
	if err := a.submit(o, core.Buy); err != nil {
		return fmt.Errorf("submit buy: %w", err)
	}
	a.buys++
	return nil
}

func (a *ObliviousAuction) submit(o core.RawOrder, side core.Side) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if len(a.slots) >= a.capacity {
		return fmt.Errorf("%d slots in use: %w", len(a.slots), ErrCapacityExceeded)
	}
	if err := a.state.ids.claim(side, o.ID); err != nil {
		return err
	}

	var s slotVars
	s.id, _ = a.engine.Input(o.ID)
	for i, q := range o.QuantityPerTier {
		s.qty[i], _ = a.engine.Input(q)
	}
	s.isSell, _ = a.engine.InputBit(side == core.Sell)
	s.isBuy, _ = a.engine.InputBit(side == core.Buy)
	a.slots = append(a.slots, s)
	return nil
}

func (a *ObliviousAuction) UpdatePrices(caller string, minPrice, maxPrice int64) error {
	return a.state.updatePrices(caller, minPrice, maxPrice)
}

// loadSlots returns all capacity slots as secrets. Unused slots hold zeros
// with both role bits cleared.
func (a *ObliviousAuction) loadSlots() ([]core.Slot[mpc.Secret, mpc.Bit], error) {
	ar := a.engine.Arith()
	zero := ar.Const(0)
	slots := make([]core.Slot[mpc.Secret, mpc.Bit], a.capacity)
	for i := range slots {
		slots[i].ID = zero
		for t := range slots[i].Quantity {
			slots[i].Quantity[t] = zero
		}
		slots[i].IsSell = mpc.Bit{Secret: zero}
		slots[i].IsBuy = mpc.Bit{Secret: zero}
	}

	load := func(id uuid.UUID) (mpc.Secret, error) {
		vs, err := a.engine.Load(id)
		if err != nil {
			return mpc.Secret{}, err
		}
		return vs[0], nil
	}

	for i, sv := range a.slots {
		var err error
		if slots[i].ID, err = load(sv.id); err != nil {
			return nil, err
		}
		for t, id := range sv.qty {
			if slots[i].Quantity[t], err = load(id); err != nil {
				return nil, err
			}
		}
		if slots[i].IsSell.Secret, err = load(sv.isSell); err != nil {
			return nil, err
		}
		if slots[i].IsBuy.Secret, err = load(sv.isBuy); err != nil {
			return nil, err
		}
	}
	return slots, nil
}

// RequestClear starts the clearing computation and returns its token. The
// results arrive through the engine and are handed to CompleteClear.
func (a *ObliviousAuction) RequestClear(ctx context.Context, caller string) (uuid.UUID, error) {
	if err := a.state.authorize(caller, "clear"); err != nil {
		return uuid.Nil, err
	}
	if a.pending != uuid.Nil {
		return uuid.Nil, fmt.Errorf("clear: %w", ErrClearPending)
	}

	slots, err := a.loadSlots()
	if err != nil {
		return uuid.Nil, fmt.Errorf("clear: %w", err)
	}

	a.pending = a.engine.Start(ctx, func(ar *mpc.Arith) ([][]mpc.Secret, error) {
		out := core.ClearSlots[mpc.Secret, mpc.Bit](ar, slots)
		return [][]mpc.Secret{{out.Tier}, flatten(out.Sells), flatten(out.Buys)}, nil
	})
	a.log.Debug("clearing requested",
		zap.Stringer("token", a.pending),
		zap.Int("slots", a.capacity))
	return a.pending, nil
}

// flatten lays fills out as id, quantity pairs.
func flatten(fills []core.SlotFill[mpc.Secret]) []mpc.Secret {
	out := make([]mpc.Secret, 0, 2*len(fills))
	for _, f := range fills {
		out = append(out, f.ID, f.Quantity)
	}
	return out
}

// CompleteClear receives the opened results of the computation identified by
// token, then crosses the fills in plaintext. Results of the wrong shape abort
// the clearing: the computation is abandoned and a new one may be requested.
func (a *ObliviousAuction) CompleteClear(token uuid.UUID, opened []mpc.OpenedVariable) (*Outcome, error) {
	if token == uuid.Nil || token != a.pending {
		return nil, fmt.Errorf("complete %s: %w", token, ErrUnknownComputation)
	}

	tier, sellFills, buyFills, err := a.decodeOpened(opened)
	if err != nil {
		a.abandon()
		return nil, err
	}

	a.pending = uuid.Nil
	out := a.state.commit(tier, sellFills, buyFills)

	a.log.Info("auction cleared",
		zap.Int("round", out.Round),
		zap.Int("tier", int(out.Tier)),
		zap.Int64("price", out.Price),
		zap.Int("slots_used", len(a.slots)),
		zap.Int("trades", len(out.Trades)))
	return out, nil
}

// decodeOpened checks that exactly the tier and the two fill arrays were
// opened and decodes them.
func (a *ObliviousAuction) decodeOpened(opened []mpc.OpenedVariable) (core.Tier, []core.FillOrder, []core.FillOrder, error) {
	if len(opened) != openedValues {
		return 0, nil, nil, fmt.Errorf("got %d opened values, want %d: %w", len(opened), openedValues, ErrOpenedShape)
	}

	tierVals, err := opened[0].Values()
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%v: %w", err, ErrOpenedShape)
	}
	if len(tierVals) != 1 || !core.Tier(tierVals[0]).Valid() {
		return 0, nil, nil, fmt.Errorf("tier %v: %w", tierVals, ErrOpenedShape)
	}
	sellFills, err := a.decodeFills(opened[1])
	if err != nil {
		return 0, nil, nil, err
	}
	buyFills, err := a.decodeFills(opened[2])
	if err != nil {
		return 0, nil, nil, err
	}
	return core.Tier(tierVals[0]), sellFills, buyFills, nil
}

// decodeFills turns an opened capacity-sized id/quantity array into the
// fills of one side, dropping the zero entries of other-side and unused slots.
func (a *ObliviousAuction) decodeFills(o mpc.OpenedVariable) ([]core.FillOrder, error) {
	vs, err := o.Values()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrOpenedShape)
	}
	if len(vs) != 2*a.capacity {
		return nil, fmt.Errorf("fill array of %d values, want %d: %w", len(vs), 2*a.capacity, ErrOpenedShape)
	}
	fills := make([]core.FillOrder, a.capacity)
	for i := range fills {
		fills[i] = core.FillOrder{ID: vs[2*i], Quantity: vs[2*i+1]}
	}
	return core.CompactFills(fills), nil
}

// Clear requests the computation, waits for it, opens its outputs and
// completes the clearing. If ctx ends first the computation is abandoned and
// its outputs are deleted when it finishes.
func (a *ObliviousAuction) Clear(ctx context.Context, caller string) (*Outcome, error) {
	token, err := a.RequestClear(ctx, caller)
	if err != nil {
		return nil, err
	}

	c, err := a.engine.Wait(ctx, token)
	if err != nil {
		a.abandon()
		return nil, fmt.Errorf("clear: %w", err)
	}
	if c.Err != nil {
		a.pending = uuid.Nil
		return nil, fmt.Errorf("clear: %w", c.Err)
	}

	opened, err := a.engine.Open(c.Outputs...)
	if err != nil {
		a.pending = uuid.Nil
		return nil, fmt.Errorf("clear: %w", err)
	}
	return a.CompleteClear(token, opened)
}

// abandon forgets the clearing in flight and frees its outputs once the
// engine reports them.
func (a *ObliviousAuction) abandon() {
	token := a.pending
	if token == uuid.Nil {
		return
	}
	a.pending = uuid.Nil
	go func() {
		c, err := a.engine.Wait(context.Background(), token)
		if err == nil {
			a.engine.Delete(c.Outputs...)
		}
	}()
	a.log.Warn("clearing abandoned", zap.Stringer("token", token))
}

// Reset deletes every order slot from the engine along with any clearing
// still in flight.
func (a *ObliviousAuction) Reset(caller string) error {
	if err := a.state.checkReset(caller); err != nil {
		return err
	}

	a.abandon()
	ids := make([]uuid.UUID, 0, len(a.slots)*(core.NumTiers+3))
	for _, s := range a.slots {
		ids = append(ids, s.all()...)
	}
	deleted := a.engine.Delete(ids...)

	a.slots = a.slots[:0]
	a.sells = 0
	a.buys = 0
	a.state.reset()
	a.log.Debug("auction reset", zap.Int("deleted", deleted))
	return nil
}

func (a *ObliviousAuction) Snapshot() Snapshot {
	return a.state.snapshot(Oblivious, a.sells, a.buys)
}
