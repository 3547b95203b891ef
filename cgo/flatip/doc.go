// Package flatip provides an exact flat inner-product vector index whose
// scan runs in C. It implements the driven.VectorIndex interface.
//
// Vectors are kept row-major in one contiguous Go slice and passed to C for
// each search; C never retains the pointer. Builds without CGO get a stub
// whose Available reports false.
package flatip
