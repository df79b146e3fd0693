// Package attest provides a local reference implementation of the
// timestamp-attestation adapter: a small fixed set of witnesses, each
// holding an Ed25519 keypair, independently sign every attested hash. A
// production deployment swaps this for a real transparency-log gateway
// without touching any caller, since every caller depends only on
// interfaces.AttestationAdapter.
package attest
