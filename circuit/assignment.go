package circuit

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/zkmock/plonkish/constraint"
	"github.com/zkmock/plonkish/field"
)

// Cell addresses one matrix entry by column and absolute row.
type Cell struct {
	Column constraint.Column
	Row    int
}

func (c Cell) String() string {
	return fmt.Sprintf("%s@%d", c.Column, c.Row)
}

// Equality is an unordered pair of cells asserted to carry the same value.
type Equality struct {
	A, B Cell
}

// Assignment is the populated matrix of a synthesis run: the sparse cell
// values, per-selector activation rows, copy constraints, lookup table
// contents and the public input vectors. It is exclusively owned and mutated
// by the Layouter; once synthesis completes it is read-only.
type Assignment[F field.Element[F]] struct {
	sys *constraint.System[F]

	cells     map[Cell]Value[F]
	selectors []*bitset.BitSet
	instances [][]F
	tables    [][]F
	equal     []Equality
	rows      int
}

func newAssignment[F field.Element[F]](sys *constraint.System[F], instances [][]F) *Assignment[F] {
	a := &Assignment[F]{
		sys:       sys,
		cells:     make(map[Cell]Value[F]),
		selectors: make([]*bitset.BitSet, sys.NbSelectors()),
		instances: instances,
		tables:    make([][]F, sys.NbTable),
	}
	for i := range a.selectors {
		a.selectors[i] = bitset.New(64)
	}
	// public inputs are part of the matrix from the start
	for col, vs := range instances {
		for row, v := range vs {
			a.cells[Cell{Column: constraint.Column{Kind: constraint.Instance, Index: col}, Row: row}] = Known(v)
		}
	}
	return a
}

// System returns the shape this assignment was synthesized against.
func (a *Assignment[F]) System() *constraint.System[F] {
	return a.sys
}

// Cell returns the value assigned to c; ok is false for a cell no region
// ever wrote.
func (a *Assignment[F]) Cell(c Cell) (Value[F], bool) {
	v, ok := a.cells[c]
	return v, ok
}

// SelectorEnabled reports whether sel is active at row.
func (a *Assignment[F]) SelectorEnabled(sel constraint.Selector, row int) bool {
	if sel.Index < 0 || sel.Index >= len(a.selectors) || row < 0 {
		return false
	}
	return a.selectors[sel.Index].Test(uint(row))
}

// Equalities returns the copy constraints recorded during synthesis.
func (a *Assignment[F]) Equalities() []Equality {
	return a.equal
}

// Table returns the materialized rows of a lookup table column.
func (a *Assignment[F]) Table(col constraint.TableColumn) []F {
	if col.Index < 0 || col.Index >= len(a.tables) {
		return nil
	}
	return a.tables[col.Index]
}

// Instance returns the public input at (col, row).
func (a *Assignment[F]) Instance(col constraint.Column, row int) (F, error) {
	var zero F
	if col.Kind != constraint.Instance || col.Index < 0 || col.Index >= len(a.instances) {
		return zero, fmt.Errorf("%s: %w", col, ErrColumnKind)
	}
	if row < 0 || row >= len(a.instances[col.Index]) {
		return zero, fmt.Errorf("%s row %d: %w", col, row, ErrInstanceOutOfBounds)
	}
	return a.instances[col.Index][row], nil
}

// Rows returns the number of absolute rows claimed by regions so far.
func (a *Assignment[F]) Rows() int {
	return a.rows
}
