// Package circuit populates the assignment matrix of a compiled constraint
// system.
//
// Synthesis walks a fixed sequence of region allocations through a Layouter;
// each region stages its writes against a fresh local row space and commits
// them to disjoint absolute rows, so unrelated regions never collide on a
// shared column. Synthesis is strictly single-threaded and order-dependent:
// the absolute window a region receives depends on the regions laid out
// before it.
package circuit
