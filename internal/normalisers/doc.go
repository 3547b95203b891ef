// Package normalisers extracts plain text from uploaded files.
//
// Each sub-package implements driven.Normaliser for one family of formats
// and is registered with a Registry at startup. The registry dispatches on
// the lower-cased filename extension. External tools (poppler, tesseract)
// run through a CommandRunner so tests can substitute fakes.
package normalisers
