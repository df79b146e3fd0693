// Package crypto implements the cryptographic primitives underlying
// Rendezvous: key generation, match-token derivation, commitments,
// nullifiers, authenticated encryption to a recipient's public key, a
// match-token-keyed AEAD envelope for reveal payloads, and Ed25519 signing
// with a domain-separated signed request envelope.
//
// All inputs and outputs at the package boundary are opaque byte strings
// or the fixed-width array types in domain/types; there is no ASN.1 or
// PEM framing anywhere in this package.
package crypto
