// Package tokenauth provides a local reference implementation of the
// unlinkable-token issuer/verifier adapter, backed by signed JWTs. A
// production deployment swaps this for a real issuer without touching any
// caller, since every caller depends only on interfaces.TokenIssuerVerifier.
package tokenauth
