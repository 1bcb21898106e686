// Package arith is a gate library exposing basic numeric operations over a
// pair of advice columns: private/constant/public loads, addition,
// multiplication and a lookup-backed bitwise XOR.
package arith

import (
	"fmt"

	"github.com/zkmock/plonkish/circuit"
	"github.com/zkmock/plonkish/constraint"
	"github.com/zkmock/plonkish/field"
)

// Number is a value produced by the chip: the cell holding it and its
// (possibly unknown) witness value.
type Number[F field.Element[F]] struct {
	Cell  circuit.Cell
	Value circuit.Value[F]
}

// NumericInstructions is the capability set implemented by the chip.
type NumericInstructions[F field.Element[F]] interface {
	LoadPrivate(l *circuit.Layouter[F], v circuit.Value[F]) (Number[F], error)
	LoadConstant(l *circuit.Layouter[F], c F) (Number[F], error)
	LoadPublic(l *circuit.Layouter[F], row int) (Number[F], error)
	LoadXorTable(l *circuit.Layouter[F]) error

	ExposePublic(l *circuit.Layouter[F], n Number[F], row int) error

	Add(l *circuit.Layouter[F], a, b Number[F]) (Number[F], error)
	Mul(l *circuit.Layouter[F], a, b Number[F]) (Number[F], error)
	Xor(l *circuit.Layouter[F], a, b Number[F]) (Number[F], error)
}

// Config holds the columns and selectors the chip operates on.
type Config struct {
	// witness columns: operands left and right
	Advices [2]constraint.Column
	// public inputs
	Instance constraint.Column
	// circuit constants
	Constant constraint.Column

	SMul constraint.Selector
	SAdd constraint.Selector

	// the lookup argument is only relevant where this selector is set
	STable constraint.Selector
	// operand bit width; the table size is quadratic in it
	XorBits uint
	// XOR table columns: a, b, a^b
	XorTable [3]constraint.TableColumn
	// dedicated advice column for the XOR'd witness
	Xord constraint.Column
}

// Chip implements NumericInstructions over a compiled Config.
type Chip[F field.Element[F]] struct {
	cfg Config
}

// New returns a chip over a configuration produced by Configure.
func New[F field.Element[F]](cfg Config) *Chip[F] {
	return &Chip[F]{cfg: cfg}
}

// Config returns the chip configuration.
func (c *Chip[F]) Config() Config {
	return c.cfg
}

// Configure declares the chip's gates and lookup argument against the
// builder. The caller declares the columns; Configure enables equality
// where copies are needed and wires the mul/add gates and the XOR lookup.
func Configure[F field.Element[F]](
	b *constraint.Builder[F],
	advices [2]constraint.Column,
	instance constraint.Column,
	constant constraint.Column,
	xorBits uint,
	xorTable [3]constraint.TableColumn,
	xord constraint.Column,
) (Config, error) {
	// cells of these columns get copy-constrained later on
	if err := b.EnableEquality(instance); err != nil {
		return Config{}, err
	}
	if err := b.EnableConstant(constant); err != nil {
		return Config{}, err
	}
	for _, col := range advices {
		if err := b.EnableEquality(col); err != nil {
			return Config{}, err
		}
	}
	if err := b.EnableEquality(xord); err != nil {
		return Config{}, err
	}

	smul := b.AddSelector()
	sadd := b.AddSelector()
	stable := b.AddComplexSelector()

	err := b.AddGate("mul", func(q *constraint.Queries[F]) []constraint.Expression[F] {
		lhs := q.Advice(advices[0], constraint.Cur)
		rhs := q.Advice(advices[1], constraint.Cur)
		out := q.Advice(advices[0], constraint.Next)
		sel := q.Selector(smul)
		return []constraint.Expression[F]{sel.Mul(lhs.Mul(rhs).Sub(out))}
	})
	if err != nil {
		return Config{}, err
	}

	err = b.AddGate("add", func(q *constraint.Queries[F]) []constraint.Expression[F] {
		lhs := q.Advice(advices[0], constraint.Cur)
		rhs := q.Advice(advices[1], constraint.Cur)
		out := q.Advice(advices[0], constraint.Next)
		sel := q.Selector(sadd)
		return []constraint.Expression[F]{sel.Mul(lhs.Add(rhs).Sub(out))}
	})
	if err != nil {
		return Config{}, err
	}

	err = b.AddLookup("xor", stable, func(q *constraint.Queries[F]) []constraint.LookupPair[F] {
		a := q.Advice(advices[0], constraint.Cur)
		bb := q.Advice(advices[1], constraint.Cur)
		xored := q.Advice(xord, constraint.Cur)
		return []constraint.LookupPair[F]{
			{Input: a, Table: xorTable[0]},
			{Input: bb, Table: xorTable[1]},
			{Input: xored, Table: xorTable[2]},
		}
	})
	if err != nil {
		return Config{}, err
	}

	return Config{
		Advices:  advices,
		Instance: instance,
		Constant: constant,
		SMul:     smul,
		SAdd:     sadd,
		STable:   stable,
		XorBits:  xorBits,
		XorTable: xorTable,
		Xord:     xord,
	}, nil
}

// LoadPrivate allocates one fresh cell in the first advice column and
// assigns the given value. An unknown value is permitted for shape-only
// passes; the checker reports it if a constraint ends up needing it.
func (c *Chip[F]) LoadPrivate(l *circuit.Layouter[F], v circuit.Value[F]) (Number[F], error) {
	var num Number[F]
	err := l.AssignRegion("load private", func(r *circuit.Region[F]) error {
		cell, err := r.AssignAdvice(c.cfg.Advices[0], 0, v)
		if err != nil {
			return err
		}
		num = Number[F]{Cell: cell, Value: v}
		return nil
	})
	return num, err
}

// LoadConstant assigns a circuit constant into the advice column through the
// constants fixed column, recording the implicit equality between the two.
func (c *Chip[F]) LoadConstant(l *circuit.Layouter[F], constant F) (Number[F], error) {
	var num Number[F]
	err := l.AssignRegion("load constant", func(r *circuit.Region[F]) error {
		cell, err := r.AssignAdviceFromConstant(c.cfg.Advices[0], 0, constant)
		if err != nil {
			return err
		}
		num = Number[F]{Cell: cell, Value: circuit.Known(constant)}
		return nil
	})
	return num, err
}

// LoadPublic copies the public input at the given instance row into an
// advice cell.
func (c *Chip[F]) LoadPublic(l *circuit.Layouter[F], row int) (Number[F], error) {
	var num Number[F]
	err := l.AssignRegion("load public", func(r *circuit.Region[F]) error {
		cell, err := r.AssignAdviceFromInstance(c.cfg.Instance, row, c.cfg.Advices[0], 0)
		if err != nil {
			return err
		}
		v, err := l.Assignment().Instance(c.cfg.Instance, row)
		if err != nil {
			return err
		}
		num = Number[F]{Cell: cell, Value: circuit.Known(v)}
		return nil
	})
	return num, err
}

// ExposePublic constrains n's cell to equal the instance column at row.
func (c *Chip[F]) ExposePublic(l *circuit.Layouter[F], n Number[F], row int) error {
	return l.ConstrainInstance(n.Cell, c.cfg.Instance, row)
}

// Add allocates a 2-row region computing a + b: row 0 holds copies of the
// operands with the add selector enabled, row 1 holds the sum.
func (c *Chip[F]) Add(l *circuit.Layouter[F], a, b Number[F]) (Number[F], error) {
	return c.binaryOp(l, "add", c.cfg.SAdd, a, b, func(x, y F) F { return x.Add(y) })
}

// Mul allocates a 2-row region computing a * b, laid out like Add.
func (c *Chip[F]) Mul(l *circuit.Layouter[F], a, b Number[F]) (Number[F], error) {
	return c.binaryOp(l, "mul", c.cfg.SMul, a, b, func(x, y F) F { return x.Mul(y) })
}

func (c *Chip[F]) binaryOp(l *circuit.Layouter[F], name string, sel constraint.Selector, a, b Number[F], op func(F, F) F) (Number[F], error) {
	var out Number[F]
	err := l.AssignRegion(name, func(r *circuit.Region[F]) error {
		if err := r.EnableSelector(sel, 0); err != nil {
			return err
		}
		lhs, err := r.AssignAdvice(c.cfg.Advices[0], 0, a.Value)
		if err != nil {
			return err
		}
		rhs, err := r.AssignAdvice(c.cfg.Advices[1], 0, b.Value)
		if err != nil {
			return err
		}
		// wire the copies back into the operands' equivalence classes
		if err := r.ConstrainEqual(a.Cell, lhs); err != nil {
			return err
		}
		if err := r.ConstrainEqual(b.Cell, rhs); err != nil {
			return err
		}
		res := circuit.Combine(a.Value, b.Value, op)
		cell, err := r.AssignAdvice(c.cfg.Advices[0], 1, res) // offset "next"
		if err != nil {
			return err
		}
		out = Number[F]{Cell: cell, Value: res}
		return nil
	})
	return out, err
}

// Xor allocates a 1-row region copying a and b, enables the lookup selector
// and assigns a XOR b into the dedicated advice column. Operands must fit
// the configured bit width; out-of-range operands surface as a lookup
// violation at checking time, not as a distinct error.
func (c *Chip[F]) Xor(l *circuit.Layouter[F], a, b Number[F]) (Number[F], error) {
	var out Number[F]
	err := l.AssignRegion("xor", func(r *circuit.Region[F]) error {
		if err := r.EnableSelector(c.cfg.STable, 0); err != nil {
			return err
		}
		lhs, err := r.AssignAdvice(c.cfg.Advices[0], 0, a.Value)
		if err != nil {
			return err
		}
		rhs, err := r.AssignAdvice(c.cfg.Advices[1], 0, b.Value)
		if err != nil {
			return err
		}
		if err := r.ConstrainEqual(a.Cell, lhs); err != nil {
			return err
		}
		if err := r.ConstrainEqual(b.Cell, rhs); err != nil {
			return err
		}
		res, err := xorValues(a.Value, b.Value)
		if err != nil {
			return err
		}
		cell, err := r.AssignAdvice(c.cfg.Xord, 0, res)
		if err != nil {
			return err
		}
		out = Number[F]{Cell: cell, Value: res}
		return nil
	})
	return out, err
}

func xorValues[F field.Element[F]](a, b circuit.Value[F]) (circuit.Value[F], error) {
	av, ok := a.Get()
	if !ok {
		return circuit.Unknown[F](), nil
	}
	bv, ok := b.Get()
	if !ok {
		return circuit.Unknown[F](), nil
	}
	ai, ok := av.Uint64()
	if !ok {
		return circuit.Unknown[F](), fmt.Errorf("xor operand %s has no small-integer representation", av)
	}
	bi, ok := bv.Uint64()
	if !ok {
		return circuit.Unknown[F](), fmt.Errorf("xor operand %s has no small-integer representation", bv)
	}
	return circuit.Known(field.FromUint64[F](ai ^ bi)), nil
}

// LoadXorTable materializes the full XOR table for the configured bit
// width: one row per operand pair (i, j), in row-major order over i then j.
// It must run before the first Xor call is checked.
func (c *Chip[F]) LoadXorTable(l *circuit.Layouter[F]) error {
	max := uint64(1) << c.cfg.XorBits
	return l.AssignTable("xor table", func(t *circuit.TableLayouter[F]) error {
		row := 0
		for i := uint64(0); i < max; i++ {
			for j := uint64(0); j < max; j++ {
				if err := t.AssignCell(c.cfg.XorTable[0], row, field.FromUint64[F](i)); err != nil {
					return err
				}
				if err := t.AssignCell(c.cfg.XorTable[1], row, field.FromUint64[F](j)); err != nil {
					return err
				}
				if err := t.AssignCell(c.cfg.XorTable[2], row, field.FromUint64[F](i^j)); err != nil {
					return err
				}
				row++
			}
		}
		return nil
	})
}
