// Package cgo provides CGO bindings for native code.
// This package isolates all CGO code from the pure Go core.
//
// Sub-packages:
//   - flatip: exact flat inner-product vector index
package cgo
