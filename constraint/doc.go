// Package constraint describes the shape of a PLONKish circuit: typed
// columns, selectors, polynomial gates and lookup arguments.
//
// The shape is built once through a Builder and frozen by Compile into an
// immutable System before any witness is assigned. Gates and lookups are
// stored as data (expression trees), not closures; they are evaluated row by
// row at checking time by package mock.
package constraint
