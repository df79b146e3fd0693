// Package psi implements the owner-held-key private-set-intersection
// queue: setup storage, a pending-request queue the server can see only
// as opaque bytes, and an expiring response store. The actual ECDH-PSI
// math lives in internal/ecdhpsi and runs in the owner's and the client's
// own processes, never inside this package.
package psi
