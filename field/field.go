// Package field defines the element interface the arithmetization engine is
// written against.
//
// The engine never inspects a concrete field's bit layout; it only relies on
// exact ring arithmetic, equality, and a canonical byte encoding. Concrete
// fields (e.g. field/bn254) implement Element over themselves.
package field

// Element is a self-referential interface over a prime field element with
// value semantics: operations return a new element and never mutate the
// receiver.
type Element[F any] interface {
	Add(F) F
	Sub(F) F
	Mul(F) F
	Neg() F

	IsZero() bool
	Equal(F) bool

	// FromUint64 returns the field element representing v; the receiver is
	// only used for dispatch and is not read.
	FromUint64(v uint64) F

	// Uint64 returns the canonical small-integer representation of the
	// element, with ok == false when the element does not fit in a uint64.
	Uint64() (v uint64, ok bool)

	// Bytes returns the canonical big-endian encoding. All elements of a
	// field encode to the same length.
	Bytes() []byte

	// FromBytes is the inverse of Bytes; the receiver is not read.
	FromBytes(b []byte) F

	String() string
}

// Zero returns the additive identity of F.
func Zero[F Element[F]]() F {
	var z F
	return z
}

// One returns the multiplicative identity of F.
func One[F Element[F]]() F {
	var z F
	return z.FromUint64(1)
}

// FromUint64 lifts a small non-negative integer into F.
func FromUint64[F Element[F]](v uint64) F {
	var z F
	return z.FromUint64(v)
}
