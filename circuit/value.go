package circuit

// Value is an explicit optional witness value. During a shape-only pass a
// cell may be assigned an unknown value; any operation that later needs the
// concrete element fails with ErrValueUnknown instead of defaulting.
type Value[F any] struct {
	v     F
	known bool
}

// Known wraps a concrete value.
func Known[F any](v F) Value[F] {
	return Value[F]{v: v, known: true}
}

// Unknown returns the absent value.
func Unknown[F any]() Value[F] {
	return Value[F]{}
}

// Get returns the concrete value, with ok == false when it is unknown.
func (v Value[F]) Get() (F, bool) {
	return v.v, v.known
}

// IsKnown reports whether the value is concrete.
func (v Value[F]) IsKnown() bool {
	return v.known
}

// Combine applies fn to two values; the result is unknown if either
// operand is.
func Combine[F any](a, b Value[F], fn func(F, F) F) Value[F] {
	av, ok := a.Get()
	if !ok {
		return Unknown[F]()
	}
	bv, ok := b.Get()
	if !ok {
		return Unknown[F]()
	}
	return Known(fn(av, bv))
}
