// Package facade exposes the single object every transport (grpc, CLI)
// programs against: pool and participant lifecycle, submission, match
// detection, PSI, and local discovery, all composed from the narrower
// per-concern components. Nothing outside this package touches more than
// one of those components directly.
package facade

import (
	"context"
	"sync"

	"github.com/flammafex/rendezvous/internal/crypto"
	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	"github.com/flammafex/rendezvous/internal/federation"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

// Facade composes every core component into the one surface a transport
// layer needs. Construct with New or, for a fully wired instance, with
// NewFromConfig.
type Facade struct {
	store    iface.Store
	clock    iface.Clock
	pools    iface.PoolManager
	gates    iface.GateEvaluator
	submit   iface.SubmissionManager
	match    iface.MatchDetector
	psi      iface.PSIService
	issuer   iface.TokenIssuerVerifier // optional; nil disables token gates
	attestor iface.AttestationAdapter  // optional; nil disables attestation
	fed      *federation.Manager       // optional; nil disables federation

	ownerMu   sync.Mutex
	ownerKeys map[types.PoolID]types.AgreementPrivate
}

// New composes a Facade from already-constructed components. Federation,
// issuer, and attestor may be nil, disabling the features they back.
func New(
	store iface.Store,
	clk iface.Clock,
	pools iface.PoolManager,
	gates iface.GateEvaluator,
	submit iface.SubmissionManager,
	match iface.MatchDetector,
	psi iface.PSIService,
	issuer iface.TokenIssuerVerifier,
	attestor iface.AttestationAdapter,
	fed *federation.Manager,
) *Facade {
	return &Facade{
		store: store, clock: clk,
		pools: pools, gates: gates, submit: submit, match: match, psi: psi,
		issuer: issuer, attestor: attestor, fed: fed,
		ownerKeys: make(map[types.PoolID]types.AgreementPrivate),
	}
}

// RegisterOwnerKey gives this instance the agreement private key needed
// to open join claims sealed to a pool it created, so incoming federated
// join requests for poolID can be decrypted and decided locally instead
// of only being relayed for offline review. Pools created elsewhere, or
// created here without federation review, never need this.
func (f *Facade) RegisterOwnerKey(poolID types.PoolID, key types.AgreementPrivate) {
	f.ownerMu.Lock()
	defer f.ownerMu.Unlock()
	f.ownerKeys[poolID] = key
}

func (f *Facade) ownerKey(poolID types.PoolID) (types.AgreementPrivate, bool) {
	f.ownerMu.Lock()
	defer f.ownerMu.Unlock()
	key, ok := f.ownerKeys[poolID]
	return key, ok
}

// Store returns the underlying store, for the PSI and federation grpc
// handlers that need direct access beyond what the narrower components
// expose.
func (f *Facade) Store() iface.Store { return f.store }

// Federation returns the federation manager, or nil if this instance runs
// standalone.
func (f *Facade) Federation() *federation.Manager { return f.fed }

// Close drains and releases the store. It does not stop the federation
// manager or the scheduler; callers own those lifecycles separately since
// they may outlive an individual Facade in tests.
func (f *Facade) Close() error {
	return f.store.Close()
}

// --- Pools ---

func (f *Facade) CreatePool(ctx context.Context, p types.Pool) (types.Pool, error) {
	return f.pools.Create(ctx, p)
}

func (f *Facade) GetPool(ctx context.Context, id types.PoolID) (types.Pool, error) {
	return f.pools.Get(ctx, id)
}

func (f *Facade) ListPools(ctx context.Context) ([]types.Pool, error) {
	return f.pools.List(ctx)
}

func (f *Facade) ClosePool(ctx context.Context, id types.PoolID, requesterSig []byte, requesterTimestampMs int64) error {
	return f.pools.Close(ctx, id, requesterSig, requesterTimestampMs)
}

// RefreshPoolStatus recomputes and, if needed, persists id's effective
// status, with no signature required — this is the deadline-driven path
// into Closed, distinct from ClosePool's signed early-close path.
func (f *Facade) RefreshPoolStatus(ctx context.Context, id types.PoolID) (types.Pool, error) {
	return f.pools.RefreshStatus(ctx, id)
}

// --- Participants ---

// RegisterParticipant evaluates p's pool's eligibility gate against proof
// and, if eligible, inserts the participant record. A gate verification
// failure (an unreachable or erroring token verifier) on a pool that
// requires invite enforcement is reported as a transient service error
// rather than a plain ineligibility, so a caller retries instead of
// treating the rejection as final. A proof already used to register in
// the same pool is rejected without a second verifier round-trip.
func (f *Facade) RegisterParticipant(ctx context.Context, p types.Participant, proof *types.TokenProof) error {
	pool, err := f.pools.Get(ctx, p.PoolID)
	if err != nil {
		return err
	}

	if _, exists, err := f.store.GetParticipant(ctx, p.PoolID, p.AgreementKey); err != nil {
		return err
	} else if exists {
		return rverr.New(rverr.CodeAlreadyRegistered, "participant already registered in pool")
	}

	if proof != nil {
		hash := crypto.ContentHash(proof.Raw)
		if used, err := proofHashUsed(ctx, f.store, p.PoolID, hash); err != nil {
			return err
		} else if used {
			return rverr.New(rverr.CodeAlreadyRegistered, "eligibility proof already used in this pool")
		}
		p.IssuanceProofHash = &hash
	}

	key := p.AgreementKey
	result := f.gates.Evaluate(ctx, pool.Gate, types.GateContext{
		PoolID:         p.PoolID,
		ParticipantKey: &key,
		TokenProof:     proof,
	})
	if !result.Eligible {
		if result.Reason == "verification_error" && pool.RequiresInvite {
			return rverr.New(rverr.CodeTransientServiceError, "eligibility verifier unreachable: "+result.Detail)
		}
		return rverr.New(rverr.CodeInvalidEligibility, result.Reason+": "+result.Detail)
	}

	p.RegisteredAt = f.clock.Now()
	return f.store.InsertParticipant(ctx, p)
}

func proofHashUsed(ctx context.Context, st iface.ParticipantStore, poolID types.PoolID, hash [32]byte) (bool, error) {
	participants, err := st.ListParticipants(ctx, poolID)
	if err != nil {
		return false, err
	}
	for _, p := range participants {
		if p.IssuanceProofHash != nil && *p.IssuanceProofHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (f *Facade) ListParticipants(ctx context.Context, poolID types.PoolID) ([]types.Participant, error) {
	return f.store.ListParticipants(ctx, poolID)
}

// --- Submission ---

func (f *Facade) Submit(ctx context.Context, req types.SubmitRequest) error {
	return f.submit.Submit(ctx, req)
}

func (f *Facade) Reveal(ctx context.Context, req types.RevealRequest) error {
	return f.submit.Reveal(ctx, req)
}

// --- Matching ---

func (f *Facade) DetectMatches(ctx context.Context, poolID types.PoolID) (types.MatchResult, error) {
	return f.match.Detect(ctx, poolID)
}

func (f *Facade) MatchResult(ctx context.Context, poolID types.PoolID) (types.MatchResult, bool, error) {
	return f.match.Result(ctx, poolID)
}

func (f *Facade) VerifyMatchIntegrity(ctx context.Context, poolID types.PoolID) (types.IntegrityReport, error) {
	return f.match.VerifyIntegrity(ctx, poolID)
}

func (f *Facade) MatchStats(ctx context.Context, poolID types.PoolID) (total, distinctNullifiers int, err error) {
	total, err = f.store.CountTotal(ctx, poolID)
	if err != nil {
		return 0, 0, err
	}
	distinctNullifiers, err = f.store.CountDistinctNullifiers(ctx, poolID)
	if err != nil {
		return 0, 0, err
	}
	return total, distinctNullifiers, nil
}

// DiscoverLocal runs the client-side local discovery pass: given a
// participant's own agreement key and the pool's revealed matched tokens,
// it reports which candidate keys the caller shares a match with. No
// store access; the caller already holds matched from a prior
// MatchResult call.
func (f *Facade) DiscoverLocal(myKey types.AgreementPrivate, poolID types.PoolID, matched []types.MatchToken, candidates []types.AgreementPublic) []types.DiscoverResult {
	return f.match.Discover(myKey, poolID, matched, candidates)
}

// CheckEligibility evaluates a pool's gate without registering, for a
// caller that wants to know in advance whether a proof would be accepted.
func (f *Facade) CheckEligibility(ctx context.Context, poolID types.PoolID, key *types.AgreementPublic, proof *types.TokenProof) (types.GateResult, error) {
	pool, err := f.pools.Get(ctx, poolID)
	if err != nil {
		return types.GateResult{}, err
	}
	return f.gates.Evaluate(ctx, pool.Gate, types.GateContext{PoolID: poolID, ParticipantKey: key, TokenProof: proof}), nil
}

// --- PSI ---

// SubmitPSISetup records setup, authenticated by sig over action
// "psi_setup" and poolID at timestampMs under the pool's creator signing
// key. Only the pool's owner may publish a PSI setup.
func (f *Facade) SubmitPSISetup(ctx context.Context, setup types.PSISetup, sig []byte, timestampMs int64) error {
	pool, err := f.pools.Get(ctx, setup.PoolID)
	if err != nil {
		return err
	}
	if err := crypto.VerifySignedAction(pool.CreatorSigningKey, "psi_setup", setup.PoolID, timestampMs, sig, f.clock.Now()); err != nil {
		return err
	}
	return f.psi.SubmitSetup(ctx, setup)
}

func (f *Facade) EnqueuePSIRequest(ctx context.Context, poolID types.PoolID, clientRequest []byte, authTokenHash *[32]byte, fromInstance *types.InstanceID) ([16]byte, error) {
	return f.psi.EnqueueRequest(ctx, poolID, clientRequest, authTokenHash, fromInstance)
}

// ListPendingPSIRequests returns poolID's pending PSI requests, authorized
// the same way SubmitPSISetup is: only the pool owner may drain its own
// queue.
func (f *Facade) ListPendingPSIRequests(ctx context.Context, poolID types.PoolID, sig []byte, timestampMs int64) ([]types.PendingPSIRequest, error) {
	pool, err := f.pools.Get(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if err := crypto.VerifySignedAction(pool.CreatorSigningKey, "psi_list_pending", poolID, timestampMs, sig, f.clock.Now()); err != nil {
		return nil, err
	}
	return f.psi.ListPending(ctx, poolID)
}

// PostPSIResponses posts the owner's computed responses, authorized the
// same way SubmitPSISetup is.
func (f *Facade) PostPSIResponses(ctx context.Context, poolID types.PoolID, responses []iface.PSIResponseInput, sig []byte, timestampMs int64) ([]iface.PSIBatchResult, error) {
	pool, err := f.pools.Get(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if err := crypto.VerifySignedAction(pool.CreatorSigningKey, "psi_post_responses", poolID, timestampMs, sig, f.clock.Now()); err != nil {
		return nil, err
	}
	return f.psi.PostResponses(ctx, poolID, responses)
}

func (f *Facade) PollPSIResponse(ctx context.Context, requestID [16]byte) (types.PSIResponseRecord, error) {
	return f.psi.PollResponse(ctx, requestID)
}

func (f *Facade) TrivialIntersect(serverSet, clientSet []types.MatchToken) []types.MatchToken {
	return f.psi.TrivialIntersect(serverSet, clientSet)
}

// --- Attestation ---

// Attest requests a timestamp attestation over hash, if this instance has
// an attestation adapter configured. Pools that don't require attested
// match results never call this; match.Detector already treats a nil
// attestor as "skip attestation" at the detection layer.
func (f *Facade) Attest(ctx context.Context, hash [32]byte, proof *types.TokenProof) (types.Attestation, error) {
	if f.attestor == nil {
		return types.Attestation{}, rverr.New(rverr.CodeInternal, "no attestation adapter configured")
	}
	return f.attestor.Attest(ctx, hash, proof)
}
