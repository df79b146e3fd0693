// Package gate evaluates the eligibility predicate tree: who may register
// for or submit to a pool.
package gate
