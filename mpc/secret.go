package mpc

// Secret is an additively shared 64-bit value. The zero Secret is not usable;
// obtain one from an Engine.
type Secret struct {
	shares []uint64
}

// Shares returns a copy of the individual shares.
func (s Secret) Shares() []uint64 {
	return append([]uint64(nil), s.shares...)
}

// Bit is a Secret known to hold 0 or 1.
type Bit struct {
	Secret
}

func (s Secret) sum() uint64 {
	var v uint64
	for _, x := range s.shares {
		v += x
	}
	return v
}

func addShares(a, b Secret) Secret {
	out := make([]uint64, len(a.shares))
	for i := range out {
		out[i] = a.shares[i] + b.shares[i]
	}
	return Secret{shares: out}
}

func subShares(a, b Secret) Secret {
	out := make([]uint64, len(a.shares))
	for i := range out {
		out[i] = a.shares[i] - b.shares[i]
	}
	return Secret{shares: out}
}
