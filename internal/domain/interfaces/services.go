package interfaces

import (
	"context"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

// PoolManager creates pools and drives their lifecycle.
type PoolManager interface {
	Create(ctx context.Context, p types.Pool) (types.Pool, error)
	Get(ctx context.Context, id types.PoolID) (types.Pool, error)
	List(ctx context.Context) ([]types.Pool, error)
	EffectiveStatus(ctx context.Context, id types.PoolID) (types.PoolStatus, error)
	RefreshStatus(ctx context.Context, id types.PoolID) (types.Pool, error)
	Close(ctx context.Context, id types.PoolID, requesterSig []byte, requesterTimestampMs int64) error
}

// GateEvaluator evaluates an eligibility Gate tree against a context.
type GateEvaluator interface {
	Evaluate(ctx context.Context, gate types.Gate, gctx types.GateContext) types.GateResult
}

// SubmissionManager validates and stores submissions and reveals.
type SubmissionManager interface {
	Submit(ctx context.Context, req types.SubmitRequest) error
	Reveal(ctx context.Context, req types.RevealRequest) error
}

// MatchDetector computes and reports pool match outcomes.
type MatchDetector interface {
	Detect(ctx context.Context, poolID types.PoolID) (types.MatchResult, error)
	Result(ctx context.Context, poolID types.PoolID) (types.MatchResult, bool, error)
	VerifyIntegrity(ctx context.Context, poolID types.PoolID) (types.IntegrityReport, error)
	Discover(myAgreementKey types.AgreementPrivate, poolID types.PoolID, matched []types.MatchToken, candidates []types.AgreementPublic) []types.DiscoverResult
}

// PSIService implements the owner-held-key workflow plus the optional
// trivial server-held path.
type PSIService interface {
	SubmitSetup(ctx context.Context, setup types.PSISetup) error
	EnqueueRequest(ctx context.Context, poolID types.PoolID, clientRequest []byte, authTokenHash *[32]byte, fromInstance *types.InstanceID) ([16]byte, error)
	ListPending(ctx context.Context, poolID types.PoolID) ([]types.PendingPSIRequest, error)
	PostResponses(ctx context.Context, poolID types.PoolID, responses []PSIResponseInput) ([]PSIBatchResult, error)
	PollResponse(ctx context.Context, requestID [16]byte) (types.PSIResponseRecord, error)

	// TrivialIntersect runs the server-held path: the server itself holds
	// both sides' plaintext token sets (used only for pools that opt out of
	// the owner-held-key pipeline).
	TrivialIntersect(serverSet, clientSet []types.MatchToken) []types.MatchToken
}

// PSIResponseInput is one item of a PostResponses batch.
type PSIResponseInput struct {
	RequestID    [16]byte
	SetupMessage []byte
	Response     []byte
}

// PSIBatchResult reports the per-item outcome of PostResponses: a failure
// on one request is never a transaction failure for the batch.
type PSIBatchResult struct {
	RequestID [16]byte
	Err       error
}
