package constraint

import (
	"strings"

	"github.com/zkmock/plonkish/field"
)

// ExprOp is the node discriminant of an expression tree.
type ExprOp uint8

const (
	OpConstant ExprOp = iota + 1
	OpQuery
	OpSelector
	OpSum
	OpProduct
	OpNeg
)

// Expression is a polynomial over column queries at row offsets, stored as a
// plain tree so it can be evaluated once per row and serialized with the
// system. Fields are exported for serialization; do not mutate.
type Expression[F field.Element[F]] struct {
	Op       ExprOp
	Constant F
	Col      Column
	Rot      Rotation
	Sel      Selector
	Terms    []Expression[F]
}

// NewConstant returns the expression evaluating to v on every row.
func NewConstant[F field.Element[F]](v F) Expression[F] {
	return Expression[F]{Op: OpConstant, Constant: v}
}

func newQuery[F field.Element[F]](col Column, rot Rotation) Expression[F] {
	return Expression[F]{Op: OpQuery, Col: col, Rot: rot}
}

func newSelectorQuery[F field.Element[F]](sel Selector) Expression[F] {
	return Expression[F]{Op: OpSelector, Sel: sel}
}

func (e Expression[F]) Add(o Expression[F]) Expression[F] {
	return Expression[F]{Op: OpSum, Terms: []Expression[F]{e, o}}
}

func (e Expression[F]) Sub(o Expression[F]) Expression[F] {
	return Expression[F]{Op: OpSum, Terms: []Expression[F]{e, o.Neg()}}
}

func (e Expression[F]) Mul(o Expression[F]) Expression[F] {
	return Expression[F]{Op: OpProduct, Terms: []Expression[F]{e, o}}
}

func (e Expression[F]) Neg() Expression[F] {
	return Expression[F]{Op: OpNeg, Terms: []Expression[F]{e}}
}

// CellReader resolves a column query at an absolute row.
type CellReader[F field.Element[F]] func(col Column, row int) (F, error)

// SelectorReader reports whether a selector is enabled at a row.
type SelectorReader func(sel Selector, row int) bool

// Eval evaluates the expression at the given row. A zero factor
// short-circuits a product before the remaining factors are read, so rows a
// selector does not govern never touch unassigned cells.
func (e Expression[F]) Eval(row int, cells CellReader[F], selectors SelectorReader) (F, error) {
	var zero F
	switch e.Op {
	case OpConstant:
		return e.Constant, nil
	case OpQuery:
		return cells(e.Col, row+int(e.Rot))
	case OpSelector:
		if selectors(e.Sel, row) {
			return field.One[F](), nil
		}
		return zero, nil
	case OpSum:
		acc := zero
		for _, t := range e.Terms {
			v, err := t.Eval(row, cells, selectors)
			if err != nil {
				return zero, err
			}
			acc = acc.Add(v)
		}
		return acc, nil
	case OpProduct:
		acc := field.One[F]()
		for _, t := range e.Terms {
			v, err := t.Eval(row, cells, selectors)
			if err != nil {
				return zero, err
			}
			if v.IsZero() {
				return zero, nil
			}
			acc = acc.Mul(v)
		}
		return acc, nil
	case OpNeg:
		v, err := e.Terms[0].Eval(row, cells, selectors)
		if err != nil {
			return zero, err
		}
		return v.Neg(), nil
	default:
		return zero, errInvalidExpression
	}
}

// String renders the expression as a human readable polynomial, e.g.
// "s[0] * (advice[0] * advice[1] - advice[0]@next)".
func (e Expression[F]) String() string {
	var sb strings.Builder
	e.write(&sb, false)
	return sb.String()
}

func (e Expression[F]) write(sb *strings.Builder, parens bool) {
	switch e.Op {
	case OpConstant:
		sb.WriteString(e.Constant.String())
	case OpQuery:
		sb.WriteString(e.Col.String())
		if e.Rot != Cur {
			sb.WriteString("@next")
		}
	case OpSelector:
		sb.WriteString(e.Sel.String())
	case OpSum:
		if parens {
			sb.WriteByte('(')
		}
		for i, t := range e.Terms {
			if t.Op == OpNeg {
				if i > 0 {
					sb.WriteString(" - ")
				} else {
					sb.WriteString("-")
				}
				t.Terms[0].write(sb, true)
				continue
			}
			if i > 0 {
				sb.WriteString(" + ")
			}
			// sums flatten under association; nested parens would only add noise
			t.write(sb, t.Op != OpSum)
		}
		if parens {
			sb.WriteByte(')')
		}
	case OpProduct:
		for i, t := range e.Terms {
			if i > 0 {
				sb.WriteString(" * ")
			}
			t.write(sb, true)
		}
	case OpNeg:
		sb.WriteString("-")
		e.Terms[0].write(sb, true)
	}
}
