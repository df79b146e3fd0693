package types

import "time"

// WitnessSignature is one signer's contribution to a multi-witness
// attestation.
type WitnessSignature struct {
	WitnessID string
	Signature []byte
}

// Attestation binds a content hash to a timestamp and a signer set,
// produced by the external timestamp-attestation adapter.
type Attestation struct {
	Hash           [32]byte
	TimestampUnix  int64
	NetworkID      string
	Sequence       uint64
	Witnesses      []WitnessSignature
	AggregateSig   []byte   // alternative to Witnesses: a single aggregate signature
	AggregateSigners []string
}

// MatchResult is the append-once outcome of detect() for a pool.
type MatchResult struct {
	PoolID            PoolID
	MatchedTokens     []MatchToken
	TotalSubmissions  int
	ParticipantCount  int
	DetectedAt        time.Time
	Attestation       *Attestation
}
