package psi_test

import (
	"context"
	"testing"
	"time"

	"github.com/flammafex/rendezvous/internal/clock"
	"github.com/flammafex/rendezvous/internal/crypto"
	"github.com/flammafex/rendezvous/internal/ecdhpsi"
	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	"github.com/flammafex/rendezvous/internal/psi"
	"github.com/flammafex/rendezvous/internal/store/memory"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

func closedPoolWithOwner(t *testing.T, st *memory.Store, now time.Time, ownerPub types.AgreementPublic) types.Pool {
	t.Helper()
	var id types.PoolID
	id[0] = 42
	p := types.Pool{
		ID:                  id,
		Name:                "psi pool",
		CreatorAgreementKey: ownerPub,
		RevealDeadline:      now.Add(time.Hour),
		Status:              types.PoolStatusClosed,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := st.InsertPool(context.Background(), p); err != nil {
		t.Fatalf("InsertPool: %v", err)
	}
	return p
}

func TestOwnerHeldPSI_EndToEnd(t *testing.T) {
	now := time.Unix(1700000000, 0)
	st := memory.New()
	ownerPriv, ownerPub, err := crypto.GenerateAgreementKeypair()
	if err != nil {
		t.Fatalf("GenerateAgreementKeypair: %v", err)
	}
	p := closedPoolWithOwner(t, st, now, ownerPub)
	svc := psi.New(st, clock.Fixed{At: now})

	ownerTokens := []types.MatchToken{tok(1), tok(2), tok(3)}
	setupMessage, secret, err := ecdhpsi.Setup(ownerTokens)
	if err != nil {
		t.Fatalf("ecdhpsi.Setup: %v", err)
	}
	sealedSecret, err := crypto.SealTo(ownerPub, ecdhpsi.MarshalScalar(secret))
	if err != nil {
		t.Fatalf("SealTo: %v", err)
	}
	sealedBytes, err := sealedSecret.Marshal()
	if err != nil {
		t.Fatalf("Marshal sealed secret: %v", err)
	}

	if err := svc.SubmitSetup(context.Background(), types.PSISetup{
		PoolID:            p.ID,
		SetupMessage:      ecdhpsi.EncodePoints(setupMessage),
		SealedServerKey:   sealedBytes,
		OwnerAgreementKey: ownerPub,
	}); err != nil {
		t.Fatalf("SubmitSetup: %v", err)
	}

	clientTokens := []types.MatchToken{tok(2), tok(3), tok(9)}
	clientScalar, err := ecdhpsi.GenerateScalar()
	if err != nil {
		t.Fatalf("GenerateScalar: %v", err)
	}
	clientRequestPoints := ecdhpsi.MaskTokens(clientTokens, clientScalar)

	requestID, err := svc.EnqueueRequest(context.Background(), p.ID, ecdhpsi.EncodePoints(clientRequestPoints), nil, nil)
	if err != nil {
		t.Fatalf("EnqueueRequest: %v", err)
	}

	pending, err := svc.ListPending(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("want one pending request, got %d", len(pending))
	}

	setup, ok, err := st.GetPSISetup(context.Background(), p.ID)
	if err != nil || !ok {
		t.Fatalf("GetPSISetup: ok=%v err=%v", ok, err)
	}
	var unsealedSetup crypto.SealedMessage
	if err := unsealedSetup.Unmarshal(setup.SealedServerKey); err != nil {
		t.Fatalf("Unmarshal sealed secret: %v", err)
	}
	secretBytes, err := crypto.OpenFrom(ownerPriv, unsealedSetup)
	if err != nil {
		t.Fatalf("OpenFrom: %v", err)
	}
	ownerSecret := ecdhpsi.UnmarshalScalar(secretBytes)

	requestPoints, err := ecdhpsi.DecodePoints(pending[0].ClientRequest)
	if err != nil {
		t.Fatalf("DecodePoints: %v", err)
	}
	responsePoints, err := ecdhpsi.ProcessRequest(requestPoints, ownerSecret)
	if err != nil {
		t.Fatalf("ProcessRequest: %v", err)
	}

	results, err := svc.PostResponses(context.Background(), p.ID, []iface.PSIResponseInput{{
		RequestID:    requestID,
		SetupMessage: setup.SetupMessage,
		Response:     ecdhpsi.EncodePoints(responsePoints),
	}})
	if err != nil {
		t.Fatalf("PostResponses: %v", err)
	}
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("want a clean batch result, got %+v", results)
	}

	record, err := svc.PollResponse(context.Background(), requestID)
	if err != nil {
		t.Fatalf("PollResponse: %v", err)
	}

	setupPoints, err := ecdhpsi.DecodePoints(record.SetupMessage)
	if err != nil {
		t.Fatalf("DecodePoints setup: %v", err)
	}
	localDoubled, err := ecdhpsi.ApplyScalar(setupPoints, clientScalar)
	if err != nil {
		t.Fatalf("ApplyScalar: %v", err)
	}
	responseRoundTrip, err := ecdhpsi.DecodePoints(record.Response)
	if err != nil {
		t.Fatalf("DecodePoints response: %v", err)
	}

	matched := ecdhpsi.Intersect(responseRoundTrip, localDoubled)
	if len(matched) != 2 {
		t.Fatalf("want 2 matched client tokens, got %d", len(matched))
	}
}

func TestEnqueueRequest_RejectsMissingSetup(t *testing.T) {
	now := time.Unix(1700000000, 0)
	st := memory.New()
	_, ownerPub, _ := crypto.GenerateAgreementKeypair()
	p := closedPoolWithOwner(t, st, now, ownerPub)
	svc := psi.New(st, clock.Fixed{At: now})

	_, err := svc.EnqueueRequest(context.Background(), p.ID, []byte("request"), nil, nil)
	if err == nil {
		t.Fatal("expected rejection when no PSI setup exists")
	}
}

func TestTrivialIntersect(t *testing.T) {
	svc := psi.New(memory.New(), clock.System{})
	server := []types.MatchToken{tok(1), tok(2)}
	client := []types.MatchToken{tok(2), tok(3)}
	got := svc.TrivialIntersect(server, client)
	if len(got) != 1 || got[0] != tok(2) {
		t.Fatalf("want [tok(2)], got %v", got)
	}
}

func tok(b byte) types.MatchToken {
	var t types.MatchToken
	t[0] = b
	return t
}
