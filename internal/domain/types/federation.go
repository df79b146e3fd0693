package types

import "time"

// InstanceRecord describes one federation peer.
type InstanceRecord struct {
	ID        InstanceID
	Name      string
	Endpoint  string
	PublicKey AgreementPublic
}

// FederatedPoolMetadata is the replicated summary of a pool owned by some
// instance, carrying enough to let any peer encrypt payloads to the owner.
type FederatedPoolMetadata struct {
	PoolID            PoolID
	Name              string
	Description       string
	RevealDeadline    time.Time
	CommitDeadline    *time.Time
	Status            PoolStatus
	OwnerInstance     InstanceID
	OwnerAgreementKey AgreementPublic
	RequiresInvite    bool

	// UpdatedAt is the last-writer-wins timestamp for the whole record; see
	// FieldClock for the per-field variant used by the CRDT merge.
	UpdatedAt time.Time
}

// FieldClock carries one last-writer timestamp per independently mergeable
// field of a FederatedPoolMetadata. A CRDT merge keeps, field by field,
// whichever side's clock entry is newer; the rest of the record travels
// alongside for writers that update several fields in one local mutation.
type FieldClock struct {
	Name           time.Time
	Description    time.Time
	RevealDeadline time.Time
	CommitDeadline time.Time
	Status         time.Time
	RequiresInvite time.Time
}

// FederatedPoolRecord pairs a pool's replicated metadata with the per-field
// clock the CRDT merge needs; this is what travels over the wire and what
// the document keeps in memory, as opposed to FederatedPoolMetadata alone
// which is what the store persists.
type FederatedPoolRecord struct {
	Meta  FederatedPoolMetadata
	Clock FieldClock
}
