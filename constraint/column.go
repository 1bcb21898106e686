package constraint

import "fmt"

// ColumnKind discriminates the three column types of the gate column space.
type ColumnKind uint8

const (
	Advice ColumnKind = iota + 1 // witness values
	Fixed                        // constants baked into the circuit
	Instance                     // public inputs
)

func (k ColumnKind) String() string {
	switch k {
	case Advice:
		return "advice"
	case Fixed:
		return "fixed"
	case Instance:
		return "instance"
	default:
		return "unknown"
	}
}

// Column identifies a column by kind and per-kind index.
type Column struct {
	Kind  ColumnKind
	Index int
}

func (c Column) String() string {
	return fmt.Sprintf("%s[%d]", c.Kind, c.Index)
}

// TableColumn identifies a lookup table column. Table columns live outside
// the gate column space; gates cannot query them.
type TableColumn struct {
	Index int
}

func (c TableColumn) String() string {
	return fmt.Sprintf("table[%d]", c.Index)
}

// Rotation is a relative row reference used when a gate spans several rows.
type Rotation int

const (
	Cur  Rotation = 0
	Next Rotation = 1
)

// Selector is a per-row boolean handle gating a constraint. A simple
// selector may be referenced by exactly one gate; a complex selector may
// additionally be referenced by lookup arguments.
type Selector struct {
	Index   int
	Complex bool
}

func (s Selector) String() string {
	return fmt.Sprintf("s[%d]", s.Index)
}
