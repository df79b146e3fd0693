package federation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/flammafex/rendezvous/internal/clock"
	"github.com/flammafex/rendezvous/internal/federation"
	"github.com/flammafex/rendezvous/internal/store/memory"

	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
)

type fakeIssuer struct{ valid bool }

func (f fakeIssuer) Verify(context.Context, types.TokenProof) (bool, error) { return f.valid, nil }
func (f fakeIssuer) IsExpired(types.TokenProof) bool                        { return false }
func (f fakeIssuer) RequestToken(context.Context, string) (types.TokenProof, error) {
	return types.TokenProof{IssuerID: "fake"}, nil
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []types.SubmitRequest
}

func (f *fakeSubmitter) Submit(_ context.Context, req types.SubmitRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return nil
}
func (f *fakeSubmitter) Reveal(context.Context, types.RevealRequest) error { return nil }

func (f *fakeSubmitter) snapshot() []types.SubmitRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.SubmitRequest(nil), f.calls...)
}

type acceptAllJoins struct{}

func (acceptAllJoins) HandleJoin(context.Context, types.PoolID, types.AgreementPublic, []byte) (bool, string) {
	return true, ""
}

// fakeNetwork is a single bidirectional pipe between two fakeTransports,
// standing in for a real grpc connection so the manager's message handling
// can be exercised without a network (the same reason the transport is a
// narrow interface in the first place).
type fakeNetwork struct {
	aToB chan []byte
	bToA chan []byte
}

type fakeTransport struct {
	net  *fakeNetwork
	side string
}

func (t *fakeTransport) Dial(context.Context, types.InstanceRecord) (chan<- []byte, <-chan []byte, func(), error) {
	if t.side == "A" {
		return t.net.aToB, t.net.bToA, func() {}, nil
	}
	return t.net.bToA, t.net.aToB, func() {}, nil
}

func (t *fakeTransport) Serve(ctx context.Context, handler func(send chan<- []byte, recv <-chan []byte)) error {
	if t.side == "A" {
		handler(t.net.aToB, t.net.bToA)
	} else {
		handler(t.net.bToA, t.net.aToB)
	}
	<-ctx.Done()
	return ctx.Err()
}

func instanceRecord(b byte, endpoint string) types.InstanceRecord {
	var id types.InstanceID
	id[0] = b
	return types.InstanceRecord{ID: id, Endpoint: endpoint}
}

func TestAnnounce_UpdatesOwnDocumentAndStore(t *testing.T) {
	st := memory.New()
	self := instanceRecord(1, "a:1")
	mgr := federation.New(self, st, clock.Fixed{At: time.Unix(1, 0)}, noopTransport{}, fakeIssuer{valid: true}, nil)

	meta := types.FederatedPoolMetadata{PoolID: poolID(10), Name: "my pool", OwnerInstance: self.ID}
	if err := mgr.Announce(context.Background(), meta, true); err != nil {
		t.Fatalf("Announce: %v", err)
	}

	rec, ok := mgr.Document().GetPool(poolID(10))
	if !ok || rec.Meta.Name != "my pool" {
		t.Fatalf("want announced pool in document, got %+v ok=%v", rec, ok)
	}

	stored, ok, err := st.GetFederatedPool(context.Background(), poolID(10))
	if err != nil || !ok || stored.Name != "my pool" {
		t.Fatalf("want announced pool persisted to store, got %+v ok=%v err=%v", stored, ok, err)
	}
}

func TestRelayTokens_ToSelfSubmitsLocallyWithoutNetwork(t *testing.T) {
	self := instanceRecord(2, "a:2")
	submitter := &fakeSubmitter{}
	mgr := federation.New(self, memory.New(), clock.Fixed{At: time.Unix(1, 0)}, noopTransport{}, fakeIssuer{valid: true}, submitter)
	mgr.SleepFunc = func(time.Duration) {}

	tokens := []types.MatchToken{{1}, {2}}
	var nullifier types.Nullifier
	nullifier[0] = 7

	if err := mgr.RelayTokens(context.Background(), self, poolID(11), tokens, nullifier); err != nil {
		t.Fatalf("RelayTokens: %v", err)
	}

	calls := submitter.snapshot()
	if len(calls) != 1 || calls[0].PoolID != poolID(11) || calls[0].Nullifier != nullifier {
		t.Fatalf("want one local submit call, got %+v", calls)
	}
}

func TestJoinRequest_RoundTripAcrossPeers(t *testing.T) {
	net := &fakeNetwork{aToB: make(chan []byte, 16), bToA: make(chan []byte, 16)}
	a := instanceRecord(3, "a:3")
	b := instanceRecord(4, "b:4")

	mgrA := federation.New(a, memory.New(), clock.Fixed{At: time.Unix(1, 0)}, &fakeTransport{net: net, side: "A"}, fakeIssuer{valid: true}, nil)
	mgrB := federation.New(b, memory.New(), clock.Fixed{At: time.Unix(1, 0)}, &fakeTransport{net: net, side: "B"}, fakeIssuer{valid: true}, nil)
	mgrB.SetJoinHandler(acceptAllJoins{})
	mgrA.SleepFunc = func(time.Duration) {}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go mgrB.Run(ctx)

	if err := mgrA.ConnectPeer(ctx, b); err != nil {
		t.Fatalf("ConnectPeer: %v", err)
	}

	var claimant types.AgreementPublic
	claimant[0] = 42
	accepted, reason, err := mgrA.RequestJoin(ctx, b, poolID(12), claimant, []byte("sealed-claim"))
	if err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	if !accepted {
		t.Fatalf("want join accepted, got reason=%q", reason)
	}
}

func TestJoinRequest_DroppedOnInvalidToken(t *testing.T) {
	net := &fakeNetwork{aToB: make(chan []byte, 16), bToA: make(chan []byte, 16)}
	a := instanceRecord(5, "a:5")
	b := instanceRecord(6, "b:6")

	mgrA := federation.New(a, memory.New(), clock.Fixed{At: time.Unix(1, 0)}, &fakeTransport{net: net, side: "A"}, fakeIssuer{valid: true}, nil)
	mgrB := federation.New(b, memory.New(), clock.Fixed{At: time.Unix(1, 0)}, &fakeTransport{net: net, side: "B"}, fakeIssuer{valid: false}, nil)
	mgrB.SetJoinHandler(acceptAllJoins{})
	mgrA.SleepFunc = func(time.Duration) {}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgrB.Run(ctx)
	if err := mgrA.ConnectPeer(ctx, b); err != nil {
		t.Fatalf("ConnectPeer: %v", err)
	}

	reqCtx, reqCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer reqCancel()

	var claimant types.AgreementPublic
	claimant[0] = 43
	_, _, err := mgrA.RequestJoin(reqCtx, b, poolID(13), claimant, []byte("sealed-claim"))
	if err == nil {
		t.Fatal("want a timeout when B's issuer rejects the request's token")
	}
}

type noopTransport struct{}

func (noopTransport) Dial(context.Context, types.InstanceRecord) (chan<- []byte, <-chan []byte, func(), error) {
	return nil, nil, func() {}, nil
}
func (noopTransport) Serve(ctx context.Context, _ func(send chan<- []byte, recv <-chan []byte)) error {
	<-ctx.Done()
	return ctx.Err()
}

var _ iface.FederationTransport = noopTransport{}
