// Package plonkish provides a PLONKish arithmetization engine and a mock
// satisfiability checker for arithmetic circuits.
//
// A circuit is described as a fixed-width matrix of finite-field cells,
// constrained by polynomial gates, copy (equality) constraints and
// table-membership (lookup) arguments. The engine covers:
//   - declaring the circuit shape: columns, selectors, gates and lookups
//     (package constraint)
//   - populating the matrix with a witness through regions and a layouter
//     (package circuit)
//   - checking that every declared constraint holds on the populated matrix
//     (package mock)
//
// Actual zero-knowledge proof generation is out of scope: the finalized
// shape and assignment are exposed as read-only, serializable views for an
// external proving backend to consume.
package plonkish

import (
	"github.com/blang/semver/v4"
)

var Version = semver.MustParse("0.1.0")
