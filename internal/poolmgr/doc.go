// Package poolmgr implements the pool lifecycle manager: creation,
// lookup, and the status-transition logic driven purely by stored state,
// deadlines, and the current time.
package poolmgr
