package types

import "time"

// Participant is a registration in a pool, keyed by (pool, agreement
// public key). Participants are never linked to preferences — preferences
// are keyed by nullifier instead, deliberately breaking that link.
type Participant struct {
	PoolID          PoolID
	AgreementKey    AgreementPublic
	DisplayName     string
	Bio             string
	ProfileFields   map[string]string
	RegisteredAt    time.Time

	// IssuanceProofHash is the hash of the unlinkable-token proof presented
	// at registration, retained only to reject a replayed proof against the
	// same pool without storing the proof itself.
	IssuanceProofHash *[32]byte
}
