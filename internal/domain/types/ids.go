// Package types defines the plain data shapes shared across the matching
// engine. It contains types only, no behavior beyond simple accessors.
package types

import "encoding/hex"

// PoolID uniquely identifies a pool.
type PoolID [16]byte

// String returns the hex form of the id.
func (id PoolID) String() string { return hex.EncodeToString(id[:]) }

// IsZero reports whether id is the zero value.
func (id PoolID) IsZero() bool { return id == PoolID{} }

// InstanceID identifies a federation peer instance.
type InstanceID [16]byte

// String returns the hex form of the id.
func (id InstanceID) String() string { return hex.EncodeToString(id[:]) }

// AgreementPublic is an X25519 Diffie-Hellman public key.
type AgreementPublic [32]byte

func (k AgreementPublic) Slice() []byte { return k[:] }
func (k AgreementPublic) String() string { return hex.EncodeToString(k[:]) }

// AgreementPrivate is an X25519 Diffie-Hellman private scalar.
type AgreementPrivate [32]byte

func (k AgreementPrivate) Slice() []byte { return k[:] }

// SigningPublic is an Ed25519 verification key.
type SigningPublic [32]byte

func (k SigningPublic) Slice() []byte { return k[:] }
func (k SigningPublic) String() string { return hex.EncodeToString(k[:]) }

// SigningPrivate is an Ed25519 signing key (seed||pub layout).
type SigningPrivate [64]byte

func (k SigningPrivate) Slice() []byte { return k[:] }

// MatchToken is the 32-byte value two mutually-selecting parties derive
// identically.
type MatchToken [32]byte

func (t MatchToken) Slice() []byte  { return t[:] }
func (t MatchToken) String() string { return hex.EncodeToString(t[:]) }

// Nullifier is a deterministic per-participant, per-pool value used to
// detect duplicate submissions.
type Nullifier [32]byte

func (n Nullifier) Slice() []byte  { return n[:] }
func (n Nullifier) String() string { return hex.EncodeToString(n[:]) }

// Commitment is H(token), posted during the commit phase.
type Commitment [32]byte

func (c Commitment) Slice() []byte { return c[:] }

// ParsePoolID decodes a hex string into a PoolID.
func ParsePoolID(s string) (PoolID, error) {
	var id PoolID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(id) {
		return id, errBadLength
	}
	copy(id[:], b)
	return id, nil
}

// ParseAgreementPublic decodes a hex or raw 32-byte key.
func ParseAgreementPublic(s string) (AgreementPublic, error) {
	var k AgreementPublic
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(k) {
		return k, errBadLength
	}
	copy(k[:], b)
	return k, nil
}

// ParseMatchToken decodes a hex 32-byte token.
func ParseMatchToken(s string) (MatchToken, error) {
	var t MatchToken
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(t) {
		return t, errBadLength
	}
	copy(t[:], b)
	return t, nil
}

type errString string

func (e errString) Error() string { return string(e) }

const errBadLength = errString("value must decode to exactly the expected byte length")
