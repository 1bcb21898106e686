package constraint

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zkmock/plonkish"
	"github.com/zkmock/plonkish/field"
	"github.com/zkmock/plonkish/logger"
)

// Gate is a named set of polynomial expressions. For every row, each
// expression must evaluate to zero; selector factors inside the expressions
// restrict which rows a gate governs.
type Gate[F field.Element[F]] struct {
	Name      string
	Polys     []Expression[F]
	Selectors []Selector
}

// LookupPair maps an input expression to the table column its per-row value
// must be found in.
type LookupPair[F field.Element[F]] struct {
	Input Expression[F]
	Table TableColumn
}

// Lookup is a table-membership argument: at every row where Selector is
// enabled, the tuple of input values must equal some row of the table.
type Lookup[F field.Element[F]] struct {
	Name     string
	Selector Selector
	Pairs    []LookupPair[F]
}

// Builder accumulates the shape of a circuit during configuration. It is not
// safe for concurrent use. Compile freezes it into a System; every mutator
// fails with ErrFrozen afterwards.
type Builder[F field.Element[F]] struct {
	nbAdvice   int
	nbFixed    int
	nbInstance int
	nbTable    int

	equality  map[Column]struct{}
	constants []Column
	selectors []Selector

	gates   []Gate[F]
	lookups []Lookup[F]

	frozen bool
	err    error // first configuration error, surfaced by Compile
}

// NewBuilder returns an empty circuit shape builder.
func NewBuilder[F field.Element[F]]() *Builder[F] {
	return &Builder[F]{equality: make(map[Column]struct{})}
}

func (b *Builder[F]) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// AddAdviceColumn declares a new witness column.
func (b *Builder[F]) AddAdviceColumn() Column {
	if b.frozen {
		b.setErr(fmt.Errorf("add advice column: %w", ErrFrozen))
	}
	c := Column{Kind: Advice, Index: b.nbAdvice}
	b.nbAdvice++
	return c
}

// AddFixedColumn declares a new constant column.
func (b *Builder[F]) AddFixedColumn() Column {
	if b.frozen {
		b.setErr(fmt.Errorf("add fixed column: %w", ErrFrozen))
	}
	c := Column{Kind: Fixed, Index: b.nbFixed}
	b.nbFixed++
	return c
}

// AddInstanceColumn declares a new public input column.
func (b *Builder[F]) AddInstanceColumn() Column {
	if b.frozen {
		b.setErr(fmt.Errorf("add instance column: %w", ErrFrozen))
	}
	c := Column{Kind: Instance, Index: b.nbInstance}
	b.nbInstance++
	return c
}

// AddLookupTableColumn declares a new lookup table column.
func (b *Builder[F]) AddLookupTableColumn() TableColumn {
	if b.frozen {
		b.setErr(fmt.Errorf("add table column: %w", ErrFrozen))
	}
	c := TableColumn{Index: b.nbTable}
	b.nbTable++
	return c
}

// AddSelector declares a simple selector, referenced by at most one gate.
func (b *Builder[F]) AddSelector() Selector {
	return b.addSelector(false)
}

// AddComplexSelector declares a selector that may also gate lookup arguments.
func (b *Builder[F]) AddComplexSelector() Selector {
	return b.addSelector(true)
}

func (b *Builder[F]) addSelector(complex bool) Selector {
	if b.frozen {
		b.setErr(fmt.Errorf("add selector: %w", ErrFrozen))
	}
	s := Selector{Index: len(b.selectors), Complex: complex}
	b.selectors = append(b.selectors, s)
	return s
}

// EnableEquality allows cells of col to participate in copy constraints.
// The flag is set once; enabling it twice is a configuration error.
func (b *Builder[F]) EnableEquality(col Column) error {
	if b.frozen {
		return fmt.Errorf("enable equality on %s: %w", col, ErrFrozen)
	}
	if !b.hasColumn(col) {
		return fmt.Errorf("enable equality on %s: %w", col, ErrUnknownColumn)
	}
	if _, ok := b.equality[col]; ok {
		return fmt.Errorf("%s: %w", col, ErrEqualityAlreadyEnabled)
	}
	b.equality[col] = struct{}{}
	return nil
}

// EnableConstant marks a fixed column as the source of circuit constants and
// enables equality on it, so constants can be copied into advice cells.
func (b *Builder[F]) EnableConstant(col Column) error {
	if b.frozen {
		return fmt.Errorf("enable constant on %s: %w", col, ErrFrozen)
	}
	if col.Kind != Fixed {
		return fmt.Errorf("enable constant on %s: only fixed columns can hold constants", col)
	}
	if !b.hasColumn(col) {
		return fmt.Errorf("enable constant on %s: %w", col, ErrUnknownColumn)
	}
	if _, ok := b.equality[col]; !ok {
		b.equality[col] = struct{}{}
	}
	b.constants = append(b.constants, col)
	return nil
}

// AddGate declares a named gate. The closure queries columns and selectors
// through q and returns the gate polynomials; it runs once, at declaration
// time, and the resulting expression trees are stored as data.
func (b *Builder[F]) AddGate(name string, fn func(q *Queries[F]) []Expression[F]) error {
	if b.frozen {
		return fmt.Errorf("gate %q: %w", name, ErrFrozen)
	}
	q := &Queries[F]{b: b}
	polys := fn(q)
	if q.err != nil {
		return fmt.Errorf("gate %q: %w", name, q.err)
	}
	b.gates = append(b.gates, Gate[F]{Name: name, Polys: polys, Selectors: q.selectors})
	return nil
}

// AddLookup declares a named lookup argument gated by a complex selector.
func (b *Builder[F]) AddLookup(name string, sel Selector, fn func(q *Queries[F]) []LookupPair[F]) error {
	if b.frozen {
		return fmt.Errorf("lookup %q: %w", name, ErrFrozen)
	}
	if !b.hasSelector(sel) {
		return fmt.Errorf("lookup %q: %w", name, ErrUnknownSelector)
	}
	if !sel.Complex {
		return fmt.Errorf("lookup %q: %w", name, ErrComplexSelectorRequired)
	}
	q := &Queries[F]{b: b}
	pairs := fn(q)
	if q.err != nil {
		return fmt.Errorf("lookup %q: %w", name, q.err)
	}
	for _, p := range pairs {
		if p.Table.Index < 0 || p.Table.Index >= b.nbTable {
			return fmt.Errorf("lookup %q: %s: %w", name, p.Table, ErrUnknownColumn)
		}
	}
	b.lookups = append(b.lookups, Lookup[F]{Name: name, Selector: sel, Pairs: pairs})
	return nil
}

func (b *Builder[F]) hasColumn(col Column) bool {
	switch col.Kind {
	case Advice:
		return col.Index >= 0 && col.Index < b.nbAdvice
	case Fixed:
		return col.Index >= 0 && col.Index < b.nbFixed
	case Instance:
		return col.Index >= 0 && col.Index < b.nbInstance
	default:
		return false
	}
}

func (b *Builder[F]) hasSelector(sel Selector) bool {
	return sel.Index >= 0 && sel.Index < len(b.selectors) &&
		b.selectors[sel.Index].Complex == sel.Complex
}

// Compile freezes the builder and returns the immutable System. It fails on
// any configuration error recorded during declaration and on a simple
// selector referenced by more than one gate.
func (b *Builder[F]) Compile() (*System[F], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.frozen {
		return nil, ErrFrozen
	}

	gatesPerSelector := make(map[int]int)
	for _, g := range b.gates {
		for _, s := range g.Selectors {
			gatesPerSelector[s.Index]++
			if !s.Complex && gatesPerSelector[s.Index] > 1 {
				return nil, fmt.Errorf("gate %q: %s: %w", g.Name, s, ErrSimpleSelectorReuse)
			}
		}
	}

	b.frozen = true

	equality := make([]Column, 0, len(b.equality))
	for col := range b.equality {
		equality = append(equality, col)
	}
	sortColumns(equality)

	sys := &System[F]{
		Version:    plonkish.Version.String(),
		NbAdvice:   b.nbAdvice,
		NbFixed:    b.nbFixed,
		NbInstance: b.nbInstance,
		NbTable:    b.nbTable,
		Equality:   equality,
		Constants:  append([]Column(nil), b.constants...),
		Selectors:  append([]Selector(nil), b.selectors...),
		Gates:      append([]Gate[F](nil), b.gates...),
		Lookups:    append([]Lookup[F](nil), b.lookups...),
	}

	log := logger.Logger().With().Str("component", "constraint").Logger()
	log.Debug().
		Int("nbAdvice", sys.NbAdvice).
		Int("nbFixed", sys.NbFixed).
		Int("nbInstance", sys.NbInstance).
		Int("nbGates", len(sys.Gates)).
		Int("nbLookups", len(sys.Lookups)).
		Msg("compiled constraint system")

	return sys, nil
}

// Queries is the context handed to gate and lookup closures; it validates
// every column and selector reference against the builder.
type Queries[F field.Element[F]] struct {
	b         *Builder[F]
	selectors []Selector
	err       error
}

func (q *Queries[F]) setErr(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Advice queries a witness column at the given rotation.
func (q *Queries[F]) Advice(col Column, rot Rotation) Expression[F] {
	if col.Kind != Advice || !q.b.hasColumn(col) {
		q.setErr(fmt.Errorf("query %s: %w", col, ErrUnknownColumn))
	}
	return newQuery[F](col, rot)
}

// Fixed queries a constant column at the given rotation.
func (q *Queries[F]) Fixed(col Column, rot Rotation) Expression[F] {
	if col.Kind != Fixed || !q.b.hasColumn(col) {
		q.setErr(fmt.Errorf("query %s: %w", col, ErrUnknownColumn))
	}
	return newQuery[F](col, rot)
}

// Instance queries a public input column at the given rotation.
func (q *Queries[F]) Instance(col Column, rot Rotation) Expression[F] {
	if col.Kind != Instance || !q.b.hasColumn(col) {
		q.setErr(fmt.Errorf("query %s: %w", col, ErrUnknownColumn))
	}
	return newQuery[F](col, rot)
}

// Selector queries a selector; the result is 1 on enabled rows, 0 elsewhere.
func (q *Queries[F]) Selector(sel Selector) Expression[F] {
	if !q.b.hasSelector(sel) {
		q.setErr(fmt.Errorf("query %s: %w", sel, ErrUnknownSelector))
	}
	q.selectors = append(q.selectors, sel)
	return newSelectorQuery[F](sel)
}

// Constant lifts a field element into an expression.
func (q *Queries[F]) Constant(v F) Expression[F] {
	return NewConstant(v)
}

// System is the immutable shape of a circuit. Fields are exported for
// serialization; do not mutate.
type System[F field.Element[F]] struct {
	// serialization header
	Version string

	NbAdvice   int
	NbFixed    int
	NbInstance int
	NbTable    int

	Equality  []Column
	Constants []Column
	Selectors []Selector

	Gates   []Gate[F]
	Lookups []Lookup[F]
}

// HasColumn reports whether col was declared.
func (s *System[F]) HasColumn(col Column) bool {
	switch col.Kind {
	case Advice:
		return col.Index >= 0 && col.Index < s.NbAdvice
	case Fixed:
		return col.Index >= 0 && col.Index < s.NbFixed
	case Instance:
		return col.Index >= 0 && col.Index < s.NbInstance
	default:
		return false
	}
}

// EqualityEnabled reports whether col may participate in copy constraints.
func (s *System[F]) EqualityEnabled(col Column) bool {
	for _, c := range s.Equality {
		if c == col {
			return true
		}
	}
	return false
}

// ConstantsColumn returns the fixed column designated to hold circuit
// constants, if any.
func (s *System[F]) ConstantsColumn() (Column, bool) {
	if len(s.Constants) == 0 {
		return Column{}, false
	}
	return s.Constants[0], true
}

// NbSelectors returns the number of declared selectors.
func (s *System[F]) NbSelectors() int {
	return len(s.Selectors)
}

// ListGates renders the declared gates and lookup arguments, one polynomial
// per line. It is a debugging aid, not part of the checked semantics.
func (s *System[F]) ListGates() string {
	var sb strings.Builder
	for _, g := range s.Gates {
		fmt.Fprintf(&sb, "%s:\n", g.Name)
		for _, p := range g.Polys {
			fmt.Fprintf(&sb, "  %s\n", p.String())
		}
	}
	for _, l := range s.Lookups {
		fmt.Fprintf(&sb, "%s (lookup, %s):\n", l.Name, l.Selector)
		for _, p := range l.Pairs {
			fmt.Fprintf(&sb, "  %s in %s\n", p.Input.String(), p.Table)
		}
	}
	return sb.String()
}

func sortColumns(cols []Column) {
	slices.SortFunc(cols, func(a, b Column) int {
		if a.Kind != b.Kind {
			return int(a.Kind) - int(b.Kind)
		}
		return a.Index - b.Index
	})
}
