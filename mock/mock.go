// Package mock checks that a populated assignment satisfies every gate,
// lookup and equality constraint of its constraint system.
//
// It is the satisfiability debugger run before handing the circuit to a
// real proving backend: instead of failing fast it locates and reports every
// violation of a run.
package mock

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zkmock/plonkish/circuit"
	"github.com/zkmock/plonkish/constraint"
	"github.com/zkmock/plonkish/field"
	"github.com/zkmock/plonkish/logger"
)

// rows per evaluation task; checking is embarrassingly parallel across rows
// since every task only reads the completed matrix.
const chunkSize = 1024

// Verify evaluates every constraint of sys against asg and returns the
// located violations, deterministically ordered (gates, then lookups, then
// equality classes, each in declaration order). A nil result means the
// circuit is satisfied. Verify only reads its inputs; running it twice
// yields identical lists.
func Verify[F field.Element[F]](sys *constraint.System[F], asg *circuit.Assignment[F]) []Violation {
	var violations []Violation
	violations = append(violations, checkGates(sys, asg)...)
	violations = append(violations, checkLookups(sys, asg)...)
	violations = append(violations, checkEqualities(sys, asg)...)

	log := logger.Logger().With().Str("component", "mock").Logger()
	log.Debug().
		Int("rows", asg.Rows()).
		Int("nbGates", len(sys.Gates)).
		Int("nbLookups", len(sys.Lookups)).
		Int("nbViolations", len(violations)).
		Msg("verified assignment")

	return violations
}

// Check is Verify with an error-shaped result for callers that only care
// about pass/fail.
func Check[F field.Element[F]](sys *constraint.System[F], asg *circuit.Assignment[F]) error {
	if violations := Verify(sys, asg); len(violations) > 0 {
		return &Error{Violations: violations}
	}
	return nil
}

// cellError carries the cell a gate or lookup evaluation failed on.
type cellError struct {
	cell    circuit.Cell
	unknown bool // assigned but value unknown, vs never assigned
}

func (e *cellError) Error() string {
	if e.unknown {
		return fmt.Sprintf("%s: value unknown", e.cell)
	}
	return fmt.Sprintf("%s: never assigned", e.cell)
}

func readers[F field.Element[F]](asg *circuit.Assignment[F]) (constraint.CellReader[F], constraint.SelectorReader) {
	cells := func(col constraint.Column, row int) (F, error) {
		var zero F
		c := circuit.Cell{Column: col, Row: row}
		v, ok := asg.Cell(c)
		if !ok {
			return zero, &cellError{cell: c}
		}
		val, known := v.Get()
		if !known {
			return zero, &cellError{cell: c, unknown: true}
		}
		return val, nil
	}
	selectors := func(sel constraint.Selector, row int) bool {
		return asg.SelectorEnabled(sel, row)
	}
	return cells, selectors
}

func checkGates[F field.Element[F]](sys *constraint.System[F], asg *circuit.Assignment[F]) []Violation {
	rows := asg.Rows()
	nbChunks := (rows + chunkSize - 1) / chunkSize
	results := make([][]Violation, len(sys.Gates)*nbChunks)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for gi := range sys.Gates {
		for ci := 0; ci < nbChunks; ci++ {
			g.Go(func() error {
				from := ci * chunkSize
				to := min(from+chunkSize, rows)
				results[gi*nbChunks+ci] = checkGateRows(sys, asg, gi, from, to)
				return nil
			})
		}
	}
	_ = g.Wait() // tasks never return errors; failures surface as violations

	var violations []Violation
	for _, r := range results {
		violations = append(violations, r...)
	}
	return violations
}

func checkGateRows[F field.Element[F]](sys *constraint.System[F], asg *circuit.Assignment[F], gi, from, to int) []Violation {
	gate := sys.Gates[gi]
	cells, selectors := readers(asg)

	var violations []Violation
	for row := from; row < to; row++ {
		for _, poly := range gate.Polys {
			v, err := poly.Eval(row, cells, selectors)
			if err != nil {
				violations = append(violations, synthesisViolation(gate.Name, row, err))
				continue
			}
			if !v.IsZero() {
				violations = append(violations, Violation{
					Kind:   KindGate,
					Name:   gate.Name,
					Row:    row,
					Detail: fmt.Sprintf("%s = %s", poly.String(), v.String()),
				})
			}
		}
	}
	return violations
}

func checkLookups[F field.Element[F]](sys *constraint.System[F], asg *circuit.Assignment[F]) []Violation {
	var violations []Violation
	cells, selectors := readers(asg)

	for _, lookup := range sys.Lookups {
		// table columns must be fully and uniformly populated
		tableRows := -1
		bad := false
		for _, pair := range lookup.Pairs {
			col := asg.Table(pair.Table)
			if tableRows >= 0 && len(col) != tableRows {
				violations = append(violations, Violation{
					Kind:   KindSynthesis,
					Name:   lookup.Name,
					Row:    -1,
					Detail: fmt.Sprintf("table columns have differing lengths (%d vs %d)", tableRows, len(col)),
				})
				bad = true
				break
			}
			tableRows = len(col)
		}
		if bad {
			continue
		}

		// hashed tuple index: membership is O(1) per row instead of a scan
		// over a table that is quadratic in the lookup bit width
		index := make(map[string]struct{}, tableRows)
		var key []byte
		for row := 0; row < tableRows; row++ {
			key = key[:0]
			for _, pair := range lookup.Pairs {
				key = append(key, asg.Table(pair.Table)[row].Bytes()...)
			}
			index[string(key)] = struct{}{}
		}

		for row := 0; row < asg.Rows(); row++ {
			if !asg.SelectorEnabled(lookup.Selector, row) {
				continue
			}
			key = key[:0]
			missing := false
			for _, pair := range lookup.Pairs {
				v, err := pair.Input.Eval(row, cells, selectors)
				if err != nil {
					violations = append(violations, synthesisViolation(lookup.Name, row, err))
					missing = true
					break
				}
				key = append(key, v.Bytes()...)
			}
			if missing {
				continue
			}
			if _, ok := index[string(key)]; !ok {
				violations = append(violations, Violation{
					Kind:   KindLookup,
					Name:   lookup.Name,
					Row:    row,
					Detail: "input tuple not found in table",
				})
			}
		}
	}
	return violations
}

func checkEqualities[F field.Element[F]](sys *constraint.System[F], asg *circuit.Assignment[F]) []Violation {
	equalities := asg.Equalities()
	if len(equalities) == 0 {
		return nil
	}

	// union-find over the constrained cells; copy constraints are grouped
	// transitively into equivalence classes
	parent := make(map[circuit.Cell]circuit.Cell)
	var find func(circuit.Cell) circuit.Cell
	find = func(c circuit.Cell) circuit.Cell {
		p, ok := parent[c]
		if !ok || p == c {
			return c
		}
		root := find(p)
		parent[c] = root
		return root
	}
	union := func(a, b circuit.Cell) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	// discovery order drives the class and member ordering, keeping the
	// violation list deterministic
	var order []circuit.Cell
	seen := make(map[circuit.Cell]struct{})
	for _, eq := range equalities {
		for _, c := range []circuit.Cell{eq.A, eq.B} {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				order = append(order, c)
			}
		}
		union(eq.A, eq.B)
	}

	classes := make(map[circuit.Cell][]circuit.Cell)
	var roots []circuit.Cell
	for _, c := range order {
		root := find(c)
		if _, ok := classes[root]; !ok {
			roots = append(roots, root)
		}
		classes[root] = append(classes[root], c)
	}

	var violations []Violation
	for _, root := range roots {
		class := classes[root]
		var ref F
		hasRef := false
		mismatch := false
		var details []string
		for _, c := range class {
			v, ok := asg.Cell(c)
			if !ok {
				violations = append(violations, Violation{
					Kind:   KindSynthesis,
					Row:    c.Row,
					Cells:  []circuit.Cell{c},
					Detail: "equality-constrained cell was never assigned",
				})
				continue
			}
			val, known := v.Get()
			if !known {
				violations = append(violations, Violation{
					Kind:   KindSynthesis,
					Row:    c.Row,
					Cells:  []circuit.Cell{c},
					Detail: "equality-constrained cell has unknown value",
				})
				continue
			}
			details = append(details, fmt.Sprintf("%s = %s", c, val.String()))
			if !hasRef {
				ref = val
				hasRef = true
				continue
			}
			if !ref.Equal(val) {
				mismatch = true
			}
		}
		if mismatch {
			violations = append(violations, Violation{
				Kind:   KindEquality,
				Row:    -1,
				Cells:  class,
				Detail: strings.Join(details, ", "),
			})
		}
	}
	return violations
}

func synthesisViolation(name string, row int, err error) Violation {
	v := Violation{
		Kind:   KindSynthesis,
		Name:   name,
		Row:    row,
		Detail: err.Error(),
	}
	if ce, ok := err.(*cellError); ok {
		v.Cells = []circuit.Cell{ce.cell}
	}
	return v
}
