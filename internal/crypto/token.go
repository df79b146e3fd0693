package crypto

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/curve25519"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

// DeriveMatchToken computes H(DH(mySecret, theirPublic) ‖ poolID ‖
// sepMatchToken). The shared-secret equality from either side is the
// critical property: if A selects B and B selects A, both derive the same
// 32-byte token.
func DeriveMatchToken(mySecret types.AgreementPrivate, theirPublic types.AgreementPublic, poolID types.PoolID) (types.MatchToken, error) {
	shared, err := curve25519.X25519(mySecret.Slice(), theirPublic.Slice())
	var tok types.MatchToken
	if err != nil {
		return tok, err
	}
	defer Zero(shared)

	h := sha256.New()
	h.Write(shared)
	h.Write(poolID[:])
	h.Write([]byte(sepMatchToken))
	copy(tok[:], h.Sum(nil))
	return tok, nil
}

// DeriveNullifier computes H(mySecret ‖ poolID ‖ sepNullifier). Deterministic
// per (participant, pool); different across pools or secrets.
func DeriveNullifier(mySecret types.AgreementPrivate, poolID types.PoolID) types.Nullifier {
	h := sha256.New()
	h.Write(mySecret.Slice())
	h.Write(poolID[:])
	h.Write([]byte(sepNullifier))
	var n types.Nullifier
	copy(n[:], h.Sum(nil))
	return n
}

// Commit computes H(token).
func Commit(token types.MatchToken) types.Commitment {
	sum := sha256.Sum256(token[:])
	var c types.Commitment
	copy(c[:], sum[:])
	return c
}

// VerifyCommitment constant-time-compares H(token) against commit.
func VerifyCommitment(token types.MatchToken, commit types.Commitment) bool {
	got := Commit(token)
	return subtle.ConstantTimeCompare(got[:], commit[:]) == 1
}

// ContentHash computes the deterministic hash used both for the match
// result's attestation subject and for integrity display: H(JSON-ish
// canonical encoding of {poolID, sorted matched tokens, participantCount,
// version}). Encoding is delegated to the caller via encoded, which must
// already be in canonical form — this function only appends the version
// separator and hashes.
func ContentHash(encoded []byte) [32]byte {
	h := sha256.New()
	h.Write(encoded)
	h.Write([]byte(sepContentHash))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
