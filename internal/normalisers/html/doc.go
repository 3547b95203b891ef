// Package html provides a Normaliser implementation for HTML documents.
// It walks the token stream with golang.org/x/net/html, dropping scripts,
// styles and document heads, and breaks lines at block elements.
package html
