// Package domain re-exports the plain types and contracts of the matching
// engine for compact imports elsewhere in the tree. It contains no
// behavior of its own.
package domain
