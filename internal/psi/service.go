package psi

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

const responseTTL = time.Hour

var _ iface.PSIService = (*Service)(nil)

type store interface {
	iface.PoolStore
	iface.PreferenceStore
	iface.PSIStore
}

// Service implements interfaces.PSIService. It never sees plaintext
// client query inputs on the owner-held-key path: ClientRequest and
// Response are opaque bytes produced and consumed by internal/ecdhpsi
// running in the client's and owner's own processes.
type Service struct {
	store store
	clock iface.Clock
}

// New constructs a PSI service over store, using clock for "now" and
// expiry bookkeeping.
func New(st store, clock iface.Clock) *Service {
	return &Service{store: st, clock: clock}
}

// SubmitSetup stores an owner-prepared PSI setup. The setup's
// SealedServerKey must already be sealed to OwnerAgreementKey by the
// caller — this service never handles the plaintext secret scalar.
func (s *Service) SubmitSetup(ctx context.Context, setup types.PSISetup) error {
	if len(setup.SetupMessage) == 0 {
		return rverr.New(rverr.CodeInvalidInput, "setup message must not be empty")
	}
	if len(setup.SealedServerKey) == 0 {
		return rverr.New(rverr.CodeInvalidInput, "sealed server key must not be empty")
	}
	setup.CreatedAt = s.clock.Now()
	return s.store.InsertPSISetup(ctx, setup)
}

// EnqueueRequest queues a client's opaque PSI request against poolID's
// setup. The pool must be closed (set membership is only meaningful once
// submissions stop changing) and a setup must already exist.
func (s *Service) EnqueueRequest(ctx context.Context, poolID types.PoolID, clientRequest []byte, authTokenHash *[32]byte, fromInstance *types.InstanceID) ([16]byte, error) {
	pool, ok, err := s.store.GetPool(ctx, poolID)
	if err != nil {
		return [16]byte{}, err
	}
	if !ok {
		return [16]byte{}, rverr.New(rverr.CodePoolNotFound, "pool not found")
	}
	if pool.EffectiveStatus(s.clock.Now()) != types.PoolStatusClosed {
		return [16]byte{}, rverr.New(rverr.CodePoolClosed, "PSI requests require a closed pool")
	}
	if _, ok, err := s.store.GetPSISetup(ctx, poolID); err != nil {
		return [16]byte{}, err
	} else if !ok {
		return [16]byte{}, rverr.New(rverr.CodePSISetupMissing, "pool has no PSI setup")
	}
	if len(clientRequest) == 0 {
		return [16]byte{}, rverr.New(rverr.CodeInvalidInput, "client request must not be empty")
	}

	idv4, err := uuid.NewV4()
	if err != nil {
		return [16]byte{}, rverr.Wrap(rverr.CodeInternal, "generating request id", err)
	}
	id := [16]byte(idv4)
	req := types.PendingPSIRequest{
		ID:                  id,
		PoolID:              poolID,
		ClientRequest:       clientRequest,
		Status:              types.PSIRequestPending,
		CreatedAt:           s.clock.Now(),
		AuthTokenHash:       authTokenHash,
		SubmittedByInstance: fromInstance,
	}
	if err := s.store.EnqueuePSIRequest(ctx, req); err != nil {
		return [16]byte{}, err
	}
	return id, nil
}

// ListPending returns requests awaiting the owner's processing. Callers
// are expected to have already authenticated the owner (a signed-request
// envelope check) before invoking this — the service itself trusts its
// caller.
func (s *Service) ListPending(ctx context.Context, poolID types.PoolID) ([]types.PendingPSIRequest, error) {
	return s.store.ListPSIRequestsByStatus(ctx, poolID, types.PSIRequestPending)
}

// PostResponses marks each request completed and writes its response
// record. A failure on one item (unknown request, already completed,
// mismatched pool) is reported in that item's PSIBatchResult and never
// fails the rest of the batch.
func (s *Service) PostResponses(ctx context.Context, poolID types.PoolID, responses []iface.PSIResponseInput) ([]iface.PSIBatchResult, error) {
	out := make([]iface.PSIBatchResult, 0, len(responses))
	now := s.clock.Now()

	for _, in := range responses {
		if err := s.postOne(ctx, poolID, in, now); err != nil {
			out = append(out, iface.PSIBatchResult{RequestID: in.RequestID, Err: err})
			continue
		}
		out = append(out, iface.PSIBatchResult{RequestID: in.RequestID})
	}
	return out, nil
}

func (s *Service) postOne(ctx context.Context, poolID types.PoolID, in iface.PSIResponseInput, now time.Time) error {
	req, ok, err := s.store.GetPSIRequest(ctx, in.RequestID)
	if err != nil {
		return err
	}
	if !ok {
		return rverr.New(rverr.CodePSIRequestNotFound, "request not found")
	}
	if req.PoolID != poolID {
		return rverr.New(rverr.CodePSIRequestNotFound, "request does not belong to this pool")
	}
	if req.Status != types.PSIRequestPending {
		return rverr.New(rverr.CodeInvalidInput, "request is not pending")
	}

	idv4, err := uuid.NewV4()
	if err != nil {
		return rverr.Wrap(rverr.CodeInternal, "generating response id", err)
	}
	record := types.PSIResponseRecord{
		ID:           [16]byte(idv4),
		RequestID:    in.RequestID,
		PoolID:       poolID,
		SetupMessage: in.SetupMessage,
		Response:     in.Response,
		CreatedAt:    now,
		ExpiresAt:    now.Add(responseTTL),
	}
	if err := s.store.InsertPSIResponse(ctx, record); err != nil {
		return err
	}
	return s.store.UpdatePSIRequestStatus(ctx, in.RequestID, types.PSIRequestCompleted)
}

// PollResponse returns the response for requestID, or CodePSIResponseExpired
// if it has passed its one-hour expiry.
func (s *Service) PollResponse(ctx context.Context, requestID [16]byte) (types.PSIResponseRecord, error) {
	record, ok, err := s.store.GetPSIResponseByRequest(ctx, requestID)
	if err != nil {
		return types.PSIResponseRecord{}, err
	}
	if !ok {
		return types.PSIResponseRecord{}, rverr.New(rverr.CodePSIRequestNotFound, "no response for request")
	}
	if !s.clock.Now().Before(record.ExpiresAt) {
		return types.PSIResponseRecord{}, rverr.New(rverr.CodePSIResponseExpired, "response has expired")
	}
	return record, nil
}

// TrivialIntersect runs the server-held path: both sets are plaintext to
// the server, so the intersection is direct occurrence counting rather
// than the ECDH-PSI protocol.
func (s *Service) TrivialIntersect(serverSet, clientSet []types.MatchToken) []types.MatchToken {
	serverHas := make(map[types.MatchToken]struct{}, len(serverSet))
	for _, t := range serverSet {
		serverHas[t] = struct{}{}
	}
	var out []types.MatchToken
	for _, t := range clientSet {
		if _, ok := serverHas[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
