package circuit

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zkmock/plonkish/constraint"
	"github.com/zkmock/plonkish/field"
	"github.com/zkmock/plonkish/logger"
)

// Layouter allocates regions against a compiled constraint system. Rows are
// handed out append-only: each region gets a contiguous window starting at
// the current cursor, and the cursor advances by the region height on
// commit. Not safe for concurrent use.
type Layouter[F field.Element[F]] struct {
	sys    *constraint.System[F]
	asg    *Assignment[F]
	cursor int
	log    zerolog.Logger
}

// NewLayouter returns a layouter over sys with the given public input
// vectors, one per instance column.
func NewLayouter[F field.Element[F]](sys *constraint.System[F], instances [][]F) (*Layouter[F], error) {
	if len(instances) != sys.NbInstance {
		return nil, fmt.Errorf("expected %d instance vectors, got %d", sys.NbInstance, len(instances))
	}
	return &Layouter[F]{
		sys: sys,
		asg: newAssignment(sys, instances),
		log: logger.Logger().With().Str("component", "layouter").Logger(),
	}, nil
}

// Assignment returns the matrix being populated. Callers must not read it
// concurrently with synthesis.
func (l *Layouter[F]) Assignment() *Assignment[F] {
	return l.asg
}

// AssignRegion opens a named region with a fresh local row space, runs body,
// and commits the staged writes on success. On any error the region's
// writes, selector enables and equalities are all discarded; no partial
// region is ever visible.
func (l *Layouter[F]) AssignRegion(name string, body func(*Region[F]) error) error {
	r := &Region[F]{
		name:    name,
		l:       l,
		start:   l.cursor,
		pending: make(map[Cell]Value[F]),
	}
	if err := body(r); err != nil {
		return fmt.Errorf("region %q: %w", name, err)
	}
	r.commit()
	l.log.Debug().Str("region", name).Int("start", r.start).Int("height", r.height).Msg("committed region")
	return nil
}

// AssignTable materializes lookup table rows. Table cells must be assigned
// densely, in row order, and are immutable afterwards.
func (l *Layouter[F]) AssignTable(name string, body func(*TableLayouter[F]) error) error {
	t := &TableLayouter[F]{
		l:       l,
		pending: make([][]F, l.sys.NbTable),
	}
	if err := body(t); err != nil {
		return fmt.Errorf("table %q: %w", name, err)
	}
	for i, rows := range t.pending {
		l.asg.tables[i] = append(l.asg.tables[i], rows...)
	}
	l.log.Debug().Str("table", name).Msg("committed table")
	return nil
}

// ConstrainInstance registers an equality between an assigned cell and a
// public input cell at an absolute instance row.
func (l *Layouter[F]) ConstrainInstance(c Cell, col constraint.Column, row int) error {
	if col.Kind != constraint.Instance || !l.sys.HasColumn(col) {
		return fmt.Errorf("constrain instance: %s: %w", col, ErrColumnKind)
	}
	if _, err := l.asg.Instance(col, row); err != nil {
		return fmt.Errorf("constrain instance: %w", err)
	}
	for _, cc := range []constraint.Column{c.Column, col} {
		if !l.sys.EqualityEnabled(cc) {
			return fmt.Errorf("constrain instance: %s: %w", cc, ErrEqualityNotEnabled)
		}
	}
	l.asg.equal = append(l.asg.equal, Equality{A: c, B: Cell{Column: col, Row: row}})
	return nil
}

type selectorEnable struct {
	sel constraint.Selector
	row int // absolute
}

// Region is a name-scoped block of rows with local numbering starting at 0.
// All writes are staged until the enclosing AssignRegion body returns nil.
type Region[F field.Element[F]] struct {
	name   string
	l      *Layouter[F]
	start  int
	height int

	pending    map[Cell]Value[F]
	pendingSel []selectorEnable
	pendingEq  []Equality
}

func (r *Region[F]) touch(localRow int) {
	if localRow+1 > r.height {
		r.height = localRow + 1
	}
}

func (r *Region[F]) stage(col constraint.Column, localRow int, v Value[F]) (Cell, error) {
	c := Cell{Column: col, Row: r.start + localRow}
	if _, ok := r.pending[c]; ok {
		return Cell{}, fmt.Errorf("%s: %w", c, ErrCellAssigned)
	}
	if _, ok := r.l.asg.cells[c]; ok {
		return Cell{}, fmt.Errorf("%s: %w", c, ErrCellAssigned)
	}
	r.pending[c] = v
	r.touch(localRow)
	return c, nil
}

// AssignAdvice writes a witness value (possibly unknown, for shape-only
// passes) into an advice cell and returns its absolute address.
func (r *Region[F]) AssignAdvice(col constraint.Column, localRow int, v Value[F]) (Cell, error) {
	if col.Kind != constraint.Advice || !r.l.sys.HasColumn(col) {
		return Cell{}, fmt.Errorf("assign advice: %s: %w", col, ErrColumnKind)
	}
	return r.stage(col, localRow, v)
}

// AssignFixed writes a constant into a fixed cell.
func (r *Region[F]) AssignFixed(col constraint.Column, localRow int, v F) (Cell, error) {
	if col.Kind != constraint.Fixed || !r.l.sys.HasColumn(col) {
		return Cell{}, fmt.Errorf("assign fixed: %s: %w", col, ErrColumnKind)
	}
	return r.stage(col, localRow, Known(v))
}

// AssignAdviceFromConstant writes v into the constants fixed column and
// copies it into an advice cell, wiring the two with an implicit equality.
func (r *Region[F]) AssignAdviceFromConstant(col constraint.Column, localRow int, v F) (Cell, error) {
	constants, ok := r.l.sys.ConstantsColumn()
	if !ok {
		return Cell{}, fmt.Errorf("assign constant: %w", ErrNoConstantsColumn)
	}
	src, err := r.AssignFixed(constants, localRow, v)
	if err != nil {
		return Cell{}, err
	}
	dst, err := r.AssignAdvice(col, localRow, Known(v))
	if err != nil {
		return Cell{}, err
	}
	if err := r.ConstrainEqual(src, dst); err != nil {
		return Cell{}, err
	}
	return dst, nil
}

// AssignAdviceFromInstance reads the public input at (instCol, instRow) and
// copies it into an advice cell, recording an implicit equality to the
// instance cell.
func (r *Region[F]) AssignAdviceFromInstance(instCol constraint.Column, instRow int, col constraint.Column, localRow int) (Cell, error) {
	v, err := r.l.asg.Instance(instCol, instRow)
	if err != nil {
		return Cell{}, err
	}
	dst, err := r.AssignAdvice(col, localRow, Known(v))
	if err != nil {
		return Cell{}, err
	}
	if err := r.ConstrainEqual(Cell{Column: instCol, Row: instRow}, dst); err != nil {
		return Cell{}, err
	}
	return dst, nil
}

// EnableSelector activates sel on a local row.
func (r *Region[F]) EnableSelector(sel constraint.Selector, localRow int) error {
	if sel.Index < 0 || sel.Index >= r.l.sys.NbSelectors() {
		return fmt.Errorf("enable %s: %w", sel, constraint.ErrUnknownSelector)
	}
	r.pendingSel = append(r.pendingSel, selectorEnable{sel: sel, row: r.start + localRow})
	r.touch(localRow)
	return nil
}

// ConstrainEqual registers a copy constraint between two cells; both columns
// must be equality-enabled.
func (r *Region[F]) ConstrainEqual(a, b Cell) error {
	for _, c := range []Cell{a, b} {
		if !r.l.sys.EqualityEnabled(c.Column) {
			return fmt.Errorf("constrain equal: %s: %w", c.Column, ErrEqualityNotEnabled)
		}
	}
	r.pendingEq = append(r.pendingEq, Equality{A: a, B: b})
	return nil
}

func (r *Region[F]) commit() {
	asg := r.l.asg
	for c, v := range r.pending {
		asg.cells[c] = v
	}
	for _, se := range r.pendingSel {
		asg.selectors[se.sel.Index].Set(uint(se.row))
	}
	asg.equal = append(asg.equal, r.pendingEq...)
	r.l.cursor += r.height
	asg.rows = r.l.cursor
}

// TableLayouter stages lookup table rows during AssignTable.
type TableLayouter[F field.Element[F]] struct {
	l       *Layouter[F]
	pending [][]F
}

// AssignCell writes v at (col, row) of a lookup table. Rows must be
// assigned in order: row n can only be written once rows 0..n-1 exist.
func (t *TableLayouter[F]) AssignCell(col constraint.TableColumn, row int, v F) error {
	if col.Index < 0 || col.Index >= len(t.pending) {
		return fmt.Errorf("assign table cell: %s: %w", col, ErrColumnKind)
	}
	have := len(t.l.asg.tables[col.Index]) + len(t.pending[col.Index])
	switch {
	case row < have:
		return fmt.Errorf("%s row %d: %w", col, row, ErrCellAssigned)
	case row > have:
		return fmt.Errorf("%s row %d: %w", col, row, ErrTableRowGap)
	}
	t.pending[col.Index] = append(t.pending[col.Index], v)
	return nil
}
