package mpc

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

var (
	ErrUnknownVariable    = errors.New("unknown variable")
	ErrUnknownComputation = errors.New("unknown computation")
)

// Stats counts the interactive operations an engine has performed.
type Stats struct {
	Less   uint64
	Equal  uint64
	And    uint64
	Select uint64
	Opened uint64
}

// Total is the number of interactive rounds, excluding opens.
func (s Stats) Total() uint64 {
	return s.Less + s.Equal + s.And + s.Select
}

// Computation is the body of an asynchronous computation. It returns the
// output vectors that become variables once the computation completes.
type Computation func(a *Arith) ([][]Secret, error)

// Completion reports the end of a computation started with Start.
type Completion struct {
	Token   uuid.UUID
	Outputs []uuid.UUID
	Err     error
}

// OpenedVariable is a declassified variable. Data holds the CBOR encoding of
// the variable's values as a []int64.
type OpenedVariable struct {
	ID   uuid.UUID       `cbor:"1,keyasint"`
	Data cbor.RawMessage `cbor:"2,keyasint"`
}

// Values decodes Data.
func (o OpenedVariable) Values() ([]int64, error) {
	var vs []int64
	if err := cbor.Unmarshal(o.Data, &vs); err != nil {
		return nil, fmt.Errorf("decode opened variable %s: %w", o.ID, err)
	}
	return vs, nil
}

// Engine holds the parties' shares of every live variable and runs
// computations over them.
type Engine struct {
	parties int
	rand    io.Reader

	less   *atomic.Uint64
	equal  *atomic.Uint64
	and    *atomic.Uint64
	sel    *atomic.Uint64
	opened *atomic.Uint64

	mu      sync.Mutex
	vars    map[uuid.UUID][]Secret
	pending map[uuid.UUID]chan Completion
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand replaces crypto/rand as the share randomness source.
func WithRand(r io.Reader) Option {
	return func(e *Engine) { e.rand = r }
}

// NewEngine creates an engine shared among the given number of parties.
func NewEngine(parties int, opts ...Option) (*Engine, error) {
	if parties < 2 {
		return nil, fmt.Errorf("need at least 2 parties, got %d", parties)
	}
	e := &Engine{
		parties: parties,
		rand:    rand.Reader,
		less:    atomic.NewUint64(0),
		equal:   atomic.NewUint64(0),
		and:     atomic.NewUint64(0),
		sel:     atomic.NewUint64(0),
		opened:  atomic.NewUint64(0),
		vars:    make(map[uuid.UUID][]Secret),
		pending: make(map[uuid.UUID]chan Completion),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Parties() int {
	return e.parties
}

// Stats returns a snapshot of the operation counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Less:   e.less.Load(),
		Equal:  e.equal.Load(),
		And:    e.and.Load(),
		Select: e.sel.Load(),
		Opened: e.opened.Load(),
	}
}

// share deals fresh random shares of v.
func (e *Engine) share(v uint64) Secret {
	shares := make([]uint64, e.parties)
	var buf [8]byte
	var sum uint64
	for i := 0; i < e.parties-1; i++ {
		if _, err := io.ReadFull(e.rand, buf[:]); err != nil {
			panic(fmt.Sprintf("mpc: read randomness: %v", err))
		}
		shares[i] = binary.LittleEndian.Uint64(buf[:])
		sum += shares[i]
	}
	shares[e.parties-1] = v - sum
	return Secret{shares: shares}
}

func (e *Engine) shareBit(b bool) Bit {
	if b {
		return Bit{e.share(1)}
	}
	return Bit{e.share(0)}
}

// Input secret-shares v and registers it as a live variable.
func (e *Engine) Input(v int64) (uuid.UUID, Secret) {
	s := e.share(uint64(v))
	return e.store([]Secret{s}), s
}

// InputBit secret-shares b and registers it as a live variable.
func (e *Engine) InputBit(b bool) (uuid.UUID, Bit) {
	s := e.shareBit(b)
	return e.store([]Secret{s.Secret}), s
}

func (e *Engine) store(vs []Secret) uuid.UUID {
	id := uuid.New()
	e.mu.Lock()
	e.vars[id] = vs
	e.mu.Unlock()
	return id
}

// Load returns the values of a live variable.
func (e *Engine) Load(id uuid.UUID) ([]Secret, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	vs, ok := e.vars[id]
	if !ok {
		return nil, fmt.Errorf("load %s: %w", id, ErrUnknownVariable)
	}
	return vs, nil
}

// Delete frees the given variables. Unknown ids are ignored. It returns the
// number of variables removed.
func (e *Engine) Delete(ids ...uuid.UUID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := e.vars[id]; ok {
			delete(e.vars, id)
			n++
		}
	}
	return n
}

// Live is the number of variables currently held.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.vars)
}

// Start runs fn in the background and returns the token identifying it.
// The outputs of fn are stored as variables and reported through Wait.
func (e *Engine) Start(ctx context.Context, fn Computation) uuid.UUID {
	token := uuid.New()
	done := make(chan Completion, 1)

	e.mu.Lock()
	e.pending[token] = done
	e.mu.Unlock()

	go func() {
		c := Completion{Token: token}
		outputs, err := fn(&Arith{e: e})
		switch {
		case err != nil:
			c.Err = err
		case ctx.Err() != nil:
			c.Err = ctx.Err()
		default:
			for _, vs := range outputs {
				c.Outputs = append(c.Outputs, e.store(vs))
			}
		}
		done <- c
	}()

	return token
}

// Wait blocks until the computation identified by token completes or ctx is
// done. A completion can be waited for once.
func (e *Engine) Wait(ctx context.Context, token uuid.UUID) (Completion, error) {
	e.mu.Lock()
	done, ok := e.pending[token]
	e.mu.Unlock()
	if !ok {
		return Completion{}, fmt.Errorf("wait %s: %w", token, ErrUnknownComputation)
	}

	select {
	case c := <-done:
		e.mu.Lock()
		delete(e.pending, token)
		e.mu.Unlock()
		return c, nil
	case <-ctx.Done():
		return Completion{}, ctx.Err()
	}
}

// Open declassifies the given variables and frees them. Either every variable
// is opened or none is.
func (e *Engine) Open(ids ...uuid.UUID) ([]OpenedVariable, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range ids {
		if _, ok := e.vars[id]; !ok {
			return nil, fmt.Errorf("open %s: %w", id, ErrUnknownVariable)
		}
	}

	opened := make([]OpenedVariable, 0, len(ids))
	for _, id := range ids {
		vs := e.vars[id]
		plain := make([]int64, len(vs))
		for i, s := range vs {
			plain[i] = int64(s.sum())
		}
		data, err := cbor.Marshal(plain)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", id, err)
		}
		opened = append(opened, OpenedVariable{ID: id, Data: data})
	}
	for _, id := range ids {
		delete(e.vars, id)
	}
	e.opened.Add(uint64(len(ids)))
	return opened, nil
}
