package mpc

import (
	"github.com/cloudx-io/doubleauction/core"
)

// Arith implements core.Arith over an engine's shared values.
type Arith struct {
	e *Engine
}

var _ core.Arith[Secret, Bit] = (*Arith)(nil)

// Arith returns the engine's arithmetic for running core stages directly.
func (e *Engine) Arith() *Arith {
	return &Arith{e: e}
}

// Const shares a public constant without randomness: the first party holds v.
func (a *Arith) Const(v int64) Secret {
	shares := make([]uint64, a.e.parties)
	shares[0] = uint64(v)
	return Secret{shares: shares}
}

func (a *Arith) Add(x, y Secret) Secret { return addShares(x, y) }
func (a *Arith) Sub(x, y Secret) Secret { return subShares(x, y) }

func (a *Arith) Less(x, y Secret) Bit {
	a.e.less.Inc()
	return a.e.shareBit(int64(x.sum()) < int64(y.sum()))
}

func (a *Arith) Equal(x, y Secret) Bit {
	a.e.equal.Inc()
	return a.e.shareBit(x.sum() == y.sum())
}

func (a *Arith) And(x, y Bit) Bit {
	a.e.and.Inc()
	return Bit{a.e.share(x.sum() * y.sum())}
}

// Not is local: 1 - b.
func (a *Arith) Not(b Bit) Bit {
	return Bit{subShares(a.Const(1), b.Secret)}
}

// Select computes ifFalse + cond*(ifTrue-ifFalse).
func (a *Arith) Select(cond Bit, ifTrue, ifFalse Secret) Secret {
	a.e.sel.Inc()
	diff := subShares(ifTrue, ifFalse).sum()
	return addShares(ifFalse, a.e.share(cond.sum()*diff))
}
