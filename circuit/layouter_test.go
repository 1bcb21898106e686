package circuit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkmock/plonkish/constraint"
	"github.com/zkmock/plonkish/field/bn254"
)

type elt = bn254.Element

type fixture struct {
	sys      *constraint.System[elt]
	advices  [2]constraint.Column
	instance constraint.Column
	fixed    constraint.Column
	table    constraint.TableColumn
	sel      constraint.Selector
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	b := constraint.NewBuilder[elt]()
	var f fixture
	f.advices = [2]constraint.Column{b.AddAdviceColumn(), b.AddAdviceColumn()}
	f.instance = b.AddInstanceColumn()
	f.fixed = b.AddFixedColumn()
	f.table = b.AddLookupTableColumn()
	f.sel = b.AddSelector()
	require.NoError(t, b.EnableEquality(f.advices[0]))
	require.NoError(t, b.EnableEquality(f.instance))
	require.NoError(t, b.EnableConstant(f.fixed))

	sys, err := b.Compile()
	require.NoError(t, err)
	f.sys = sys
	return f
}

func newTestLayouter(t *testing.T, f fixture, public ...uint64) *Layouter[elt] {
	t.Helper()
	vs := make([]elt, len(public))
	for i, p := range public {
		vs[i] = bn254.NewElement(p)
	}
	l, err := NewLayouter(f.sys, [][]elt{vs})
	require.NoError(t, err)
	return l
}

func TestRegionsGetDisjointRows(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	l := newTestLayouter(t, f)

	var first, second Cell
	assert.NoError(l.AssignRegion("first", func(r *Region[elt]) error {
		var err error
		first, err = r.AssignAdvice(f.advices[0], 0, Known(bn254.NewElement(1)))
		return err
	}))
	assert.NoError(l.AssignRegion("second", func(r *Region[elt]) error {
		var err error
		second, err = r.AssignAdvice(f.advices[0], 0, Known(bn254.NewElement(2)))
		return err
	}))

	// same column, same local row, different absolute rows
	assert.Equal(0, first.Row)
	assert.Equal(1, second.Row)
	assert.Equal(2, l.Assignment().Rows())
}

func TestWriteOnce(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	l := newTestLayouter(t, f)

	err := l.AssignRegion("dup", func(r *Region[elt]) error {
		if _, err := r.AssignAdvice(f.advices[0], 0, Known(bn254.NewElement(1))); err != nil {
			return err
		}
		_, err := r.AssignAdvice(f.advices[0], 0, Known(bn254.NewElement(2)))
		return err
	})
	assert.ErrorIs(err, ErrCellAssigned)
}

func TestRegionRollback(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	l := newTestLayouter(t, f)

	boom := errors.New("boom")
	err := l.AssignRegion("failing", func(r *Region[elt]) error {
		if _, err := r.AssignAdvice(f.advices[0], 3, Known(bn254.NewElement(1))); err != nil {
			return err
		}
		if err := r.EnableSelector(f.sel, 0); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(err, boom)

	// nothing from the failed region is visible and no rows were consumed
	asg := l.Assignment()
	assert.Equal(0, asg.Rows())
	_, ok := asg.Cell(Cell{Column: f.advices[0], Row: 3})
	assert.False(ok)
	assert.False(asg.SelectorEnabled(f.sel, 0))

	// the next region starts where the failed one would have
	assert.NoError(l.AssignRegion("next", func(r *Region[elt]) error {
		c, err := r.AssignAdvice(f.advices[0], 0, Known(bn254.NewElement(7)))
		assert.Equal(0, c.Row)
		return err
	}))
}

func TestInstanceOutOfBounds(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	l := newTestLayouter(t, f, 4)

	err := l.AssignRegion("load", func(r *Region[elt]) error {
		_, err := r.AssignAdviceFromInstance(f.instance, 3, f.advices[0], 0)
		return err
	})
	assert.ErrorIs(err, ErrInstanceOutOfBounds)
}

func TestInstanceCopyRecordsEquality(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	l := newTestLayouter(t, f, 4)

	var dst Cell
	assert.NoError(l.AssignRegion("load", func(r *Region[elt]) error {
		var err error
		dst, err = r.AssignAdviceFromInstance(f.instance, 0, f.advices[0], 0)
		return err
	}))

	asg := l.Assignment()
	v, ok := asg.Cell(dst)
	assert.True(ok)
	got, known := v.Get()
	assert.True(known)
	assert.True(got.Equal(bn254.NewElement(4)))
	assert.Equal([]Equality{{A: Cell{Column: f.instance, Row: 0}, B: dst}}, asg.Equalities())
}

func TestConstrainEqualRequiresFlag(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	l := newTestLayouter(t, f)

	err := l.AssignRegion("eq", func(r *Region[elt]) error {
		a, err := r.AssignAdvice(f.advices[0], 0, Known(bn254.NewElement(1)))
		if err != nil {
			return err
		}
		// advices[1] is not equality-enabled in this fixture
		b, err := r.AssignAdvice(f.advices[1], 0, Known(bn254.NewElement(1)))
		if err != nil {
			return err
		}
		return r.ConstrainEqual(a, b)
	})
	assert.ErrorIs(err, ErrEqualityNotEnabled)
}

func TestAssignConstant(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	l := newTestLayouter(t, f)

	var dst Cell
	assert.NoError(l.AssignRegion("const", func(r *Region[elt]) error {
		var err error
		dst, err = r.AssignAdviceFromConstant(f.advices[0], 0, bn254.NewElement(9))
		return err
	}))

	asg := l.Assignment()
	src := Cell{Column: f.fixed, Row: 0}
	for _, c := range []Cell{src, dst} {
		v, ok := asg.Cell(c)
		assert.True(ok)
		got, _ := v.Get()
		assert.True(got.Equal(bn254.NewElement(9)))
	}
	assert.Equal([]Equality{{A: src, B: dst}}, asg.Equalities())
}

func TestTableAssignment(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	l := newTestLayouter(t, f)

	assert.NoError(l.AssignTable("squares", func(tl *TableLayouter[elt]) error {
		for i := uint64(0); i < 4; i++ {
			if err := tl.AssignCell(f.table, int(i), bn254.NewElement(i*i)); err != nil {
				return err
			}
		}
		return nil
	}))

	rows := l.Assignment().Table(f.table)
	assert.Len(rows, 4)
	assert.True(rows[3].Equal(bn254.NewElement(9)))

	// gaps and rewrites are rejected
	err := l.AssignTable("bad", func(tl *TableLayouter[elt]) error {
		return tl.AssignCell(f.table, 10, bn254.NewElement(1))
	})
	assert.ErrorIs(err, ErrTableRowGap)
	err = l.AssignTable("bad", func(tl *TableLayouter[elt]) error {
		return tl.AssignCell(f.table, 0, bn254.NewElement(1))
	})
	assert.ErrorIs(err, ErrCellAssigned)
}

func TestSnapshotRejectsForeignSystem(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	l := newTestLayouter(t, f)

	assert.NoError(l.AssignRegion("r", func(r *Region[elt]) error {
		_, err := r.AssignAdvice(f.advices[0], 0, Known(bn254.NewElement(1)))
		return err
	}))
	data, err := l.Assignment().ToBytes()
	assert.NoError(err)

	other := constraint.NewBuilder[elt]()
	other.AddAdviceColumn()
	otherSys, err := other.Compile()
	assert.NoError(err)

	_, err = AssignmentFromBytes(otherSys, data)
	assert.ErrorContains(err, "does not match")
}

func TestSnapshotRejectsUnknownValues(t *testing.T) {
	assert := require.New(t)
	f := newFixture(t)
	l := newTestLayouter(t, f)

	assert.NoError(l.AssignRegion("r", func(r *Region[elt]) error {
		_, err := r.AssignAdvice(f.advices[0], 0, Unknown[elt]())
		return err
	}))
	_, err := l.Assignment().ToBytes()
	assert.ErrorIs(err, ErrValueUnknown)
}
