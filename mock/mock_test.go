package mock

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/zkmock/plonkish/circuit"
	"github.com/zkmock/plonkish/constraint"
	"github.com/zkmock/plonkish/field/bn254"
)

type elt = bn254.Element

// addSystem is a minimal shape with one gate s * (a + b - out), out on the
// next row of the first advice column.
type addSystem struct {
	sys     *constraint.System[elt]
	advices [2]constraint.Column
	sel     constraint.Selector
}

func newAddSystem(t *testing.T) addSystem {
	t.Helper()
	b := constraint.NewBuilder[elt]()
	var s addSystem
	s.advices = [2]constraint.Column{b.AddAdviceColumn(), b.AddAdviceColumn()}
	s.sel = b.AddSelector()
	require.NoError(t, b.EnableEquality(s.advices[0]))
	require.NoError(t, b.AddGate("add", func(q *constraint.Queries[elt]) []constraint.Expression[elt] {
		lhs := q.Advice(s.advices[0], constraint.Cur)
		rhs := q.Advice(s.advices[1], constraint.Cur)
		out := q.Advice(s.advices[0], constraint.Next)
		return []constraint.Expression[elt]{q.Selector(s.sel).Mul(lhs.Add(rhs).Sub(out))}
	}))
	sys, err := b.Compile()
	require.NoError(t, err)
	s.sys = sys
	return s
}

func (s addSystem) synthesize(t *testing.T, a, b, out uint64) *circuit.Assignment[elt] {
	t.Helper()
	l, err := circuit.NewLayouter(s.sys, nil)
	require.NoError(t, err)
	require.NoError(t, l.AssignRegion("add", func(r *circuit.Region[elt]) error {
		if err := r.EnableSelector(s.sel, 0); err != nil {
			return err
		}
		if _, err := r.AssignAdvice(s.advices[0], 0, circuit.Known(bn254.NewElement(a))); err != nil {
			return err
		}
		if _, err := r.AssignAdvice(s.advices[1], 0, circuit.Known(bn254.NewElement(b))); err != nil {
			return err
		}
		_, err := r.AssignAdvice(s.advices[0], 1, circuit.Known(bn254.NewElement(out)))
		return err
	}))
	return l.Assignment()
}

func TestGateSatisfied(t *testing.T) {
	assert := require.New(t)
	s := newAddSystem(t)

	asg := s.synthesize(t, 2, 3, 5)
	assert.Empty(Verify(s.sys, asg))
}

func TestGateViolation(t *testing.T) {
	assert := require.New(t)
	s := newAddSystem(t)

	asg := s.synthesize(t, 2, 3, 6)
	violations := Verify(s.sys, asg)
	assert.Len(violations, 1)
	assert.Equal(KindGate, violations[0].Kind)
	assert.Equal("add", violations[0].Name)
	assert.Equal(0, violations[0].Row)
}

// rows the selector does not govern must not be checked, even though the
// gate queries the next row past the assigned window
func TestInactiveSelectorRows(t *testing.T) {
	assert := require.New(t)
	s := newAddSystem(t)

	l, err := circuit.NewLayouter(s.sys, nil)
	assert.NoError(err)
	assert.NoError(l.AssignRegion("bare", func(r *circuit.Region[elt]) error {
		_, err := r.AssignAdvice(s.advices[0], 0, circuit.Known(bn254.NewElement(1)))
		return err
	}))
	assert.Empty(Verify(s.sys, l.Assignment()))
}

func TestSynthesisViolation(t *testing.T) {
	assert := require.New(t)
	s := newAddSystem(t)

	// selector active but the out cell is never assigned
	l, err := circuit.NewLayouter(s.sys, nil)
	assert.NoError(err)
	assert.NoError(l.AssignRegion("partial", func(r *circuit.Region[elt]) error {
		if err := r.EnableSelector(s.sel, 0); err != nil {
			return err
		}
		if _, err := r.AssignAdvice(s.advices[0], 0, circuit.Known(bn254.NewElement(2))); err != nil {
			return err
		}
		_, err := r.AssignAdvice(s.advices[1], 0, circuit.Known(bn254.NewElement(3)))
		return err
	}))

	violations := Verify(s.sys, l.Assignment())
	assert.Len(violations, 1)
	assert.Equal(KindSynthesis, violations[0].Kind)
	assert.Equal([]circuit.Cell{{Column: s.advices[0], Row: 1}}, violations[0].Cells)
}

func TestEqualityTransitivity(t *testing.T) {
	assert := require.New(t)
	s := newAddSystem(t)

	synthesize := func(values [3]uint64) *circuit.Assignment[elt] {
		l, err := circuit.NewLayouter(s.sys, nil)
		require.NoError(t, err)
		var cells [3]circuit.Cell
		require.NoError(t, l.AssignRegion("chain", func(r *circuit.Region[elt]) error {
			for i, v := range values {
				var err error
				cells[i], err = r.AssignAdvice(s.advices[0], i, circuit.Known(bn254.NewElement(v)))
				if err != nil {
					return err
				}
			}
			// x == y and y == z, no direct x/z constraint
			if err := r.ConstrainEqual(cells[0], cells[1]); err != nil {
				return err
			}
			return r.ConstrainEqual(cells[1], cells[2])
		}))
		return l.Assignment()
	}

	assert.Empty(Verify(s.sys, synthesize([3]uint64{7, 7, 7})))

	violations := Verify(s.sys, synthesize([3]uint64{7, 7, 8}))
	assert.Len(violations, 1)
	assert.Equal(KindEquality, violations[0].Kind)
	assert.Len(violations[0].Cells, 3)
}

func TestVerifyIdempotent(t *testing.T) {
	assert := require.New(t)
	s := newAddSystem(t)

	asg := s.synthesize(t, 2, 3, 6)
	assert.Empty(cmp.Diff(Verify(s.sys, asg), Verify(s.sys, asg)))
}

func TestLookupViolation(t *testing.T) {
	assert := require.New(t)

	b := constraint.NewBuilder[elt]()
	advice := b.AddAdviceColumn()
	tc := b.AddLookupTableColumn()
	sel := b.AddComplexSelector()
	assert.NoError(b.AddLookup("range4", sel, func(q *constraint.Queries[elt]) []constraint.LookupPair[elt] {
		return []constraint.LookupPair[elt]{{Input: q.Advice(advice, constraint.Cur), Table: tc}}
	}))
	sys, err := b.Compile()
	assert.NoError(err)

	synthesize := func(v uint64) *circuit.Assignment[elt] {
		l, err := circuit.NewLayouter(sys, nil)
		require.NoError(t, err)
		require.NoError(t, l.AssignTable("range", func(tl *circuit.TableLayouter[elt]) error {
			for i := uint64(0); i < 4; i++ {
				if err := tl.AssignCell(tc, int(i), bn254.NewElement(i)); err != nil {
					return err
				}
			}
			return nil
		}))
		require.NoError(t, l.AssignRegion("input", func(r *circuit.Region[elt]) error {
			if err := r.EnableSelector(sel, 0); err != nil {
				return err
			}
			_, err := r.AssignAdvice(advice, 0, circuit.Known(bn254.NewElement(v)))
			return err
		}))
		return l.Assignment()
	}

	assert.Empty(Verify(sys, synthesize(3)))

	violations := Verify(sys, synthesize(4))
	assert.Len(violations, 1)
	assert.Equal(KindLookup, violations[0].Kind)
	assert.Equal("range4", violations[0].Name)
	assert.Equal(0, violations[0].Row)
}
