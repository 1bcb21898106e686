package mock

import (
	"fmt"
	"strings"

	"github.com/zkmock/plonkish/circuit"
)

// Kind tags a violation with the constraint family it belongs to.
type Kind uint8

const (
	KindGate Kind = iota + 1
	KindLookup
	KindEquality
	KindSynthesis
)

func (k Kind) String() string {
	switch k {
	case KindGate:
		return "gate"
	case KindLookup:
		return "lookup"
	case KindEquality:
		return "equality"
	case KindSynthesis:
		return "synthesis"
	default:
		return "unknown"
	}
}

// Violation is one located constraint failure. The checker accumulates all
// violations of a run rather than stopping at the first.
type Violation struct {
	Kind Kind

	// Name is the declared gate or lookup name, when applicable.
	Name string

	// Row is the offending absolute row, or -1 when the violation is not
	// row-scoped (equality classes span rows).
	Row int

	// Cells are the cells involved: the equality class, or the cell a
	// synthesis failure points at.
	Cells []circuit.Cell

	// Detail carries human readable context, e.g. the mismatched values.
	Detail string
}

func (v Violation) String() string {
	var sb strings.Builder
	sb.WriteString(v.Kind.String())
	if v.Name != "" {
		fmt.Fprintf(&sb, " %q", v.Name)
	}
	if v.Row >= 0 {
		fmt.Fprintf(&sb, " at row %d", v.Row)
	}
	if len(v.Cells) > 0 {
		sb.WriteString(" [")
		for i, c := range v.Cells {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(c.String())
		}
		sb.WriteString("]")
	}
	if v.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(v.Detail)
	}
	return sb.String()
}

// Error wraps a non-empty violation list as an error value.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "circuit is not satisfied (%d violations)", len(e.Violations))
	for _, v := range e.Violations {
		sb.WriteString("\n\t")
		sb.WriteString(v.String())
	}
	return sb.String()
}
