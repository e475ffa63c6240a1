// Package mpc is an in-process secure computation engine used by the
// oblivious auction.
//
// Values are additively secret-shared over Z_2^64 among a fixed number of
// parties: a value v is held as shares s[0..n-1] with
//
//	v = s[0] + s[1] + ... + s[n-1] mod 2^64
//
// Addition, subtraction and constants are local: every party works on its
// own share. Comparisons, equality tests, AND and selection need
// interaction between the parties. Here they are served by a trusted dealer
// that reconstructs its inputs and deals fresh shares of the result. The
// dealer is a stand-in for the multiplication and comparison protocols; the
// interface and the operation counts it produces are what the rest of the
// module relies on.
//
// Typical usage:
//
//	e, err := mpc.NewEngine(3)
//	if err != nil { ... }
//	token := e.Start(ctx, func(a *mpc.Arith) ([][]mpc.Secret, error) { ... })
//	c, err := e.Wait(ctx, token)
//	opened, err := e.Open(c.Outputs...)
package mpc
