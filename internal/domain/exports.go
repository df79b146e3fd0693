package domain

import (
	interfaces "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact
// imports.
type (
	PoolID          = types.PoolID
	InstanceID      = types.InstanceID
	AgreementPublic = types.AgreementPublic
	AgreementPrivate = types.AgreementPrivate
	SigningPublic   = types.SigningPublic
	SigningPrivate  = types.SigningPrivate
	MatchToken      = types.MatchToken
	Nullifier       = types.Nullifier
	Commitment      = types.Commitment

	Pool                  = types.Pool
	PoolStatus            = types.PoolStatus
	Participant           = types.Participant
	Preference            = types.Preference
	MatchResult           = types.MatchResult
	Attestation           = types.Attestation
	WitnessSignature      = types.WitnessSignature
	PSISetup              = types.PSISetup
	PSIRequestStatus      = types.PSIRequestStatus
	PendingPSIRequest     = types.PendingPSIRequest
	PSIResponseRecord     = types.PSIResponseRecord
	InstanceRecord        = types.InstanceRecord
	FederatedPoolMetadata = types.FederatedPoolMetadata
	FieldClock            = types.FieldClock
	FederatedPoolRecord   = types.FederatedPoolRecord

	Gate        = types.Gate
	GateKind    = types.GateKind
	CompositeOp = types.CompositeOp
	GateContext = types.GateContext
	GateResult  = types.GateResult
	TokenProof  = types.TokenProof

	SubmitRequest   = types.SubmitRequest
	RevealRequest   = types.RevealRequest
	RevealEntry     = types.RevealEntry
	DiscoverResult  = types.DiscoverResult
	IntegrityReport = types.IntegrityReport
)

const (
	PoolStatusOpen   = types.PoolStatusOpen
	PoolStatusCommit = types.PoolStatusCommit
	PoolStatusReveal = types.PoolStatusReveal
	PoolStatusClosed = types.PoolStatusClosed

	GateOpenKind      = types.GateOpen
	GateAllowListKind = types.GateAllowList
	GateTokenKind     = types.GateToken
	GateCompositeKind = types.GateComposite

	CompositeAnd = types.CompositeAnd
	CompositeOr  = types.CompositeOr

	PSIRequestPending    = types.PSIRequestPending
	PSIRequestProcessing = types.PSIRequestProcessing
	PSIRequestCompleted  = types.PSIRequestCompleted
	PSIRequestExpired    = types.PSIRequestExpired
)

// Interface aliases expose domain interfaces from the interfaces
// subpackage.
type (
	Store               = interfaces.Store
	PoolStore           = interfaces.PoolStore
	ParticipantStore    = interfaces.ParticipantStore
	PreferenceStore     = interfaces.PreferenceStore
	MatchResultStore    = interfaces.MatchResultStore
	PSIStore            = interfaces.PSIStore
	FederationStore     = interfaces.FederationStore
	Clock               = interfaces.Clock

	PoolManager         = interfaces.PoolManager
	GateEvaluator       = interfaces.GateEvaluator
	SubmissionManager   = interfaces.SubmissionManager
	MatchDetector       = interfaces.MatchDetector
	PSIService          = interfaces.PSIService
	PSIResponseInput    = interfaces.PSIResponseInput
	PSIBatchResult      = interfaces.PSIBatchResult

	TokenIssuerVerifier  = interfaces.TokenIssuerVerifier
	AttestationAdapter   = interfaces.AttestationAdapter
	FederationTransport  = interfaces.FederationTransport
)
