package circuit

import "errors"

var (
	// ErrCellAssigned is returned when a (column, row) cell is written twice.
	ErrCellAssigned = errors.New("cell already assigned")

	// ErrValueUnknown is returned when an operation needs a concrete value
	// and the witness only carries an unknown placeholder.
	ErrValueUnknown = errors.New("witness value is unknown")

	// ErrInstanceOutOfBounds is returned when a public input row exceeds the
	// supplied instance vector.
	ErrInstanceOutOfBounds = errors.New("instance row out of bounds")

	// ErrEqualityNotEnabled is returned when a copy constraint references a
	// column without the equality flag.
	ErrEqualityNotEnabled = errors.New("equality not enabled on column")

	// ErrColumnKind is returned when an assignment targets a column of the
	// wrong kind.
	ErrColumnKind = errors.New("unexpected column kind")

	// ErrNoConstantsColumn is returned when a constant assignment is
	// requested but no fixed column was marked with EnableConstant.
	ErrNoConstantsColumn = errors.New("no constants column enabled")

	// ErrTableRowGap is returned when table rows are not assigned densely in
	// order.
	ErrTableRowGap = errors.New("table rows must be assigned in order without gaps")
)
