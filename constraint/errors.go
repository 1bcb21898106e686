package constraint

import "errors"

var (
	// ErrFrozen is returned when a declaration is attempted after Compile.
	ErrFrozen = errors.New("constraint system is frozen")

	// ErrUnknownColumn is returned when a query or declaration references a
	// column that was never declared.
	ErrUnknownColumn = errors.New("column was not declared in this constraint system")

	// ErrUnknownSelector is returned when a query references a selector that
	// was never declared.
	ErrUnknownSelector = errors.New("selector was not declared in this constraint system")

	// ErrEqualityAlreadyEnabled is returned on a duplicate EnableEquality.
	ErrEqualityAlreadyEnabled = errors.New("equality already enabled on column")

	// ErrSimpleSelectorReuse is returned when a simple selector is referenced
	// by more than one gate.
	ErrSimpleSelectorReuse = errors.New("simple selector referenced by more than one gate")

	// ErrComplexSelectorRequired is returned when a lookup argument
	// references a simple selector.
	ErrComplexSelectorRequired = errors.New("lookup arguments require a complex selector")

	errInvalidExpression = errors.New("malformed expression node")
)
