package core

// Arith is the arithmetic the clearing stages are written against. T carries
// quantities and tier indexes, B carries comparison outcomes.
//
// The stages never branch on a T or a B: every decision goes through Select.
// An implementation over secret values therefore performs the same sequence of
// operations for every input of a given size.
type Arith[T, B any] interface {
	Const(v int64) T
	Add(a, b T) T
	Sub(a, b T) T
	// Less is a signed comparison.
	Less(a, b T) B
	Equal(a, b T) B
	And(a, b B) B
	Not(b B) B
	// Select returns ifTrue when cond holds and ifFalse otherwise.
	Select(cond B, ifTrue, ifFalse T) T
}

// IntArith is the plaintext instantiation of Arith.
type IntArith struct{}

func (IntArith) Const(v int64) int64 { return v }
func (IntArith) Add(a, b int64) int64 { return a + b }
func (IntArith) Sub(a, b int64) int64 { return a - b }
func (IntArith) Less(a, b int64) bool { return a < b }
func (IntArith) Equal(a, b int64) bool { return a == b }
func (IntArith) And(a, b bool) bool { return a && b }
func (IntArith) Not(b bool) bool { return !b }

func (IntArith) Select(cond bool, ifTrue, ifFalse int64) int64 {
	if cond {
		return ifTrue
	}
	return ifFalse
}

var _ Arith[int64, bool] = IntArith{}
