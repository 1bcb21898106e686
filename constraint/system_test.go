package constraint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkmock/plonkish/field/bn254"
)

type elt = bn254.Element

func testBuilder(t *testing.T) (*Builder[elt], [2]Column, Selector) {
	t.Helper()
	b := NewBuilder[elt]()
	advices := [2]Column{b.AddAdviceColumn(), b.AddAdviceColumn()}
	sel := b.AddSelector()
	return b, advices, sel
}

func addGate(t *testing.T, b *Builder[elt], name string, advices [2]Column, sel Selector) {
	t.Helper()
	err := b.AddGate(name, func(q *Queries[elt]) []Expression[elt] {
		lhs := q.Advice(advices[0], Cur)
		rhs := q.Advice(advices[1], Cur)
		out := q.Advice(advices[0], Next)
		return []Expression[elt]{q.Selector(sel).Mul(lhs.Add(rhs).Sub(out))}
	})
	require.NoError(t, err)
}

func TestCompile(t *testing.T) {
	assert := require.New(t)

	b, advices, sel := testBuilder(t)
	instance := b.AddInstanceColumn()
	fixed := b.AddFixedColumn()
	assert.NoError(b.EnableEquality(advices[0]))
	assert.NoError(b.EnableEquality(instance))
	assert.NoError(b.EnableConstant(fixed))
	addGate(t, b, "add", advices, sel)

	sys, err := b.Compile()
	assert.NoError(err)
	assert.Equal(2, sys.NbAdvice)
	assert.Equal(1, sys.NbFixed)
	assert.Equal(1, sys.NbInstance)
	assert.Equal(1, sys.NbSelectors())
	assert.True(sys.EqualityEnabled(advices[0]))
	assert.False(sys.EqualityEnabled(advices[1]))
	// EnableConstant implies equality on the constants column
	assert.True(sys.EqualityEnabled(fixed))
	constants, ok := sys.ConstantsColumn()
	assert.True(ok)
	assert.Equal(fixed, constants)
}

func TestFrozenAfterCompile(t *testing.T) {
	assert := require.New(t)

	b, advices, sel := testBuilder(t)
	addGate(t, b, "add", advices, sel)
	_, err := b.Compile()
	assert.NoError(err)

	assert.ErrorIs(b.EnableEquality(advices[0]), ErrFrozen)
	assert.ErrorIs(b.AddGate("late", func(q *Queries[elt]) []Expression[elt] { return nil }), ErrFrozen)

	// value-returning declarations record the error for the next Compile
	b.AddAdviceColumn()
	_, err = b.Compile()
	assert.ErrorIs(err, ErrFrozen)
}

func TestDuplicateEquality(t *testing.T) {
	assert := require.New(t)

	b, advices, _ := testBuilder(t)
	assert.NoError(b.EnableEquality(advices[0]))
	assert.ErrorIs(b.EnableEquality(advices[0]), ErrEqualityAlreadyEnabled)
}

func TestUnknownColumnQuery(t *testing.T) {
	assert := require.New(t)

	b, _, sel := testBuilder(t)
	err := b.AddGate("bad", func(q *Queries[elt]) []Expression[elt] {
		ghost := Column{Kind: Advice, Index: 9}
		return []Expression[elt]{q.Selector(sel).Mul(q.Advice(ghost, Cur))}
	})
	assert.ErrorIs(err, ErrUnknownColumn)
}

func TestSimpleSelectorReuse(t *testing.T) {
	assert := require.New(t)

	b, advices, sel := testBuilder(t)
	addGate(t, b, "first", advices, sel)
	addGate(t, b, "second", advices, sel)
	_, err := b.Compile()
	assert.ErrorIs(err, ErrSimpleSelectorReuse)
}

func TestLookupRequiresComplexSelector(t *testing.T) {
	assert := require.New(t)

	b, advices, sel := testBuilder(t)
	tc := b.AddLookupTableColumn()
	err := b.AddLookup("range", sel, func(q *Queries[elt]) []LookupPair[elt] {
		return []LookupPair[elt]{{Input: q.Advice(advices[0], Cur), Table: tc}}
	})
	assert.ErrorIs(err, ErrComplexSelectorRequired)

	complexSel := b.AddComplexSelector()
	err = b.AddLookup("range", complexSel, func(q *Queries[elt]) []LookupPair[elt] {
		return []LookupPair[elt]{{Input: q.Advice(advices[0], Cur), Table: tc}}
	})
	assert.NoError(err)
}

func TestListGates(t *testing.T) {
	assert := require.New(t)

	b, advices, sel := testBuilder(t)
	addGate(t, b, "add", advices, sel)
	sys, err := b.Compile()
	assert.NoError(err)

	listing := sys.ListGates()
	assert.Contains(listing, "add:")
	assert.Contains(listing, "s[0] * (advice[0] + advice[1] - advice[0]@next)")
}

func TestMarshalRoundTrip(t *testing.T) {
	assert := require.New(t)

	b, advices, sel := testBuilder(t)
	assert.NoError(b.EnableEquality(advices[0]))
	addGate(t, b, "add", advices, sel)
	sys, err := b.Compile()
	assert.NoError(err)

	data, err := sys.ToBytes()
	assert.NoError(err)

	var restored System[elt]
	assert.NoError(restored.FromBytes(data))
	assert.Equal(sys.NbAdvice, restored.NbAdvice)
	assert.Equal(sys.Equality, restored.Equality)
	assert.Equal(sys.ListGates(), restored.ListGates())

	fp1, err := sys.Fingerprint()
	assert.NoError(err)
	fp2, err := restored.Fingerprint()
	assert.NoError(err)
	assert.Equal(fp1, fp2)
}

func TestSerializationHeader(t *testing.T) {
	assert := require.New(t)

	b, advices, sel := testBuilder(t)
	addGate(t, b, "add", advices, sel)
	sys, err := b.Compile()
	assert.NoError(err)

	sys.Version = "not-a-version"
	data, err := sys.ToBytes()
	assert.NoError(err)

	var restored System[elt]
	assert.Error(restored.FromBytes(data))
}
