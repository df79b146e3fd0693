// Package interfaces defines the contracts the matching engine programs
// against: storage, per-component services, and external adapters. Each
// interface takes its receiver by shared reference and exposes only the
// operations the rest of the engine needs — callers never see the
// underlying handle.
package interfaces

import (
	"context"
	"time"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

// PoolStore persists Pool records.
type PoolStore interface {
	InsertPool(ctx context.Context, p types.Pool) error
	GetPool(ctx context.Context, id types.PoolID) (types.Pool, bool, error)
	UpdatePool(ctx context.Context, p types.Pool) error
	ListPoolsByStatus(ctx context.Context, status types.PoolStatus) ([]types.Pool, error)
	ListPoolsByCreator(ctx context.Context, key types.AgreementPublic) ([]types.Pool, error)
	ListAllPools(ctx context.Context) ([]types.Pool, error)
}

// ParticipantStore persists Participant records.
type ParticipantStore interface {
	InsertParticipant(ctx context.Context, p types.Participant) error
	GetParticipant(ctx context.Context, poolID types.PoolID, key types.AgreementPublic) (types.Participant, bool, error)
	ListParticipants(ctx context.Context, poolID types.PoolID) ([]types.Participant, error)
	DeleteParticipantsByPool(ctx context.Context, poolID types.PoolID) error
}

// PreferenceStore persists Preference records and aggregates over them.
//
// InsertPreferences must enforce, atomically across the whole batch, that
// (pool_id, nullifier) has no existing preferences — it is the single
// serialization point guaranteeing the first accepted submission for a
// nullifier serializes ahead of any subsequent submission for the same
// nullifier.
type PreferenceStore interface {
	InsertPreferences(ctx context.Context, poolID types.PoolID, nullifier types.Nullifier, prefs []types.Preference) error
	HasNullifier(ctx context.Context, poolID types.PoolID, nullifier types.Nullifier) (bool, error)
	ListByNullifier(ctx context.Context, poolID types.PoolID, nullifier types.Nullifier) ([]types.Preference, error)
	ListByPool(ctx context.Context, poolID types.PoolID, revealedOnly bool) ([]types.Preference, error)
	MarkRevealed(ctx context.Context, poolID types.PoolID, nullifier types.Nullifier, token types.MatchToken, encryptedReveal []byte) error
	CountTokenOccurrences(ctx context.Context, poolID types.PoolID) (map[types.MatchToken]int, error)
	CountDistinctNullifiers(ctx context.Context, poolID types.PoolID) (int, error)
	CountTotal(ctx context.Context, poolID types.PoolID) (int, error)
}

// MatchResultStore persists the append-once MatchResult per pool.
//
// InsertMatchResult must be idempotent on PoolID (upsert-if-absent): a
// second call for the same pool is a no-op that returns the existing
// record rather than overwriting it.
type MatchResultStore interface {
	InsertMatchResult(ctx context.Context, r types.MatchResult) (types.MatchResult, bool, error)
	GetMatchResult(ctx context.Context, poolID types.PoolID) (types.MatchResult, bool, error)
}

// PSIStore persists PSI setups, the owner's pending-request queue, and
// posted responses.
type PSIStore interface {
	InsertPSISetup(ctx context.Context, s types.PSISetup) error
	GetPSISetup(ctx context.Context, poolID types.PoolID) (types.PSISetup, bool, error)

	EnqueuePSIRequest(ctx context.Context, r types.PendingPSIRequest) error
	GetPSIRequest(ctx context.Context, id [16]byte) (types.PendingPSIRequest, bool, error)
	ListPSIRequestsByStatus(ctx context.Context, poolID types.PoolID, status types.PSIRequestStatus) ([]types.PendingPSIRequest, error)
	UpdatePSIRequestStatus(ctx context.Context, id [16]byte, status types.PSIRequestStatus) error

	InsertPSIResponse(ctx context.Context, r types.PSIResponseRecord) error
	GetPSIResponseByRequest(ctx context.Context, requestID [16]byte) (types.PSIResponseRecord, bool, error)
}

// FederationStore persists the replicated CRDT document's backing records:
// known peer instances and federated pool metadata.
type FederationStore interface {
	UpsertInstance(ctx context.Context, rec types.InstanceRecord) error
	GetInstance(ctx context.Context, id types.InstanceID) (types.InstanceRecord, bool, error)
	ListInstances(ctx context.Context) ([]types.InstanceRecord, error)

	UpsertFederatedPool(ctx context.Context, meta types.FederatedPoolMetadata) error
	GetFederatedPool(ctx context.Context, id types.PoolID) (types.FederatedPoolMetadata, bool, error)
	ListFederatedPools(ctx context.Context) ([]types.FederatedPoolMetadata, error)
}

// Store is the union of every persistence contract the engine needs. A
// concrete implementation (in-memory or postgres) satisfies all of it.
type Store interface {
	PoolStore
	ParticipantStore
	PreferenceStore
	MatchResultStore
	PSIStore
	FederationStore

	// Close releases any held resources (connection pool, file handles).
	Close() error
}

// Clock is injected wherever "now" matters, so tests can control it.
type Clock interface {
	Now() time.Time
}
