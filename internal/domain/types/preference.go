package types

import "time"

// Preference is one selection posted under a (pool, nullifier) tuple. It is
// never mutated except to flip Revealed and, for commit-phase entries, to
// overwrite Token once the underlying value is known.
type Preference struct {
	PoolID     PoolID
	Nullifier  Nullifier
	Token      MatchToken
	Commitment *Commitment
	Revealed   bool
	SubmittedAt time.Time

	// IssuanceProofHash mirrors Participant.IssuanceProofHash for pools that
	// gate submission (not just registration) behind a token proof.
	IssuanceProofHash *[32]byte

	// EncryptedReveal is the optional AES-256-GCM "reveal-on-match" payload,
	// keyed by Token, set when the submitter attached reveal data for this
	// token.
	EncryptedReveal []byte

	// Decoy is never persisted to the store's wire representation and never
	// returned to a caller; it exists only so in-process code constructing a
	// Preference can tell decoys apart from real entries before they're
	// written.
	Decoy bool
}
