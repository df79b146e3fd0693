// Package store provides the Store union and the errs.ErrNotFound-style
// sentinel behavior shared by both backends: memory, for tests and single-
// instance deployments, and postgres, for durable multi-instance operation.
//
// Both backends implement the interfaces.Store contract defined in
// internal/domain/interfaces; neither package imports the other.
package store
