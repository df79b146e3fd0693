package facade_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flammafex/rendezvous/internal/clock"
	"github.com/flammafex/rendezvous/internal/crypto"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	"github.com/flammafex/rendezvous/internal/facade"
	"github.com/flammafex/rendezvous/internal/federation"
	"github.com/flammafex/rendezvous/internal/gate"
	"github.com/flammafex/rendezvous/internal/match"
	"github.com/flammafex/rendezvous/internal/poolmgr"
	"github.com/flammafex/rendezvous/internal/psi"
	"github.com/flammafex/rendezvous/internal/store/memory"
	"github.com/flammafex/rendezvous/internal/submission"
)

// TestHandleJoin_AcceptsEligibleSealedClaim exercises scenario G's
// acceptance side in isolation from the network: a claimant's join claim,
// sealed to the pool owner's agreement key the way RequestJoin seals one,
// is opened and the claimant registered once the facade is handed the
// pool's private key via RegisterOwnerKey.
func TestHandleJoin_AcceptsEligibleSealedClaim(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clk := clock.Fixed{At: now}
	st := memory.New()

	pools := poolmgr.New(st, clk)
	gates := gate.New(nil)
	submit := submission.New(st, clk)
	matcher := match.New(st, clk, nil)
	psiSvc := psi.New(st, clk)
	f := facade.New(st, clk, pools, gates, submit, matcher, psiSvc, nil, nil, nil)

	ownerPriv, ownerPub, err := crypto.GenerateAgreementKeypair()
	require.NoError(t, err)
	_, ownerSigningPub, err := crypto.GenerateSigningKeypair()
	require.NoError(t, err)

	p, err := pools.Create(context.Background(), types.Pool{
		Name:                "federated pool",
		CreatorAgreementKey: ownerPub,
		CreatorSigningKey:   ownerSigningPub,
		RevealDeadline:      now.Add(time.Hour),
		Gate:                types.OpenGate(),
	})
	require.NoError(t, err)

	f.RegisterOwnerKey(p.ID, ownerPriv)

	_, claimantPub, err := crypto.GenerateAgreementKeypair()
	require.NoError(t, err)

	sealed, err := federation.SealJoinClaim(ownerPub, federation.JoinClaim{DisplayName: "remote alice", Bio: "hello"})
	require.NoError(t, err)

	accepted, reason := f.HandleJoin(context.Background(), p.ID, claimantPub, sealed)
	require.True(t, accepted, "reason: %s", reason)

	participants, err := f.ListParticipants(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	require.Equal(t, "remote alice", participants[0].DisplayName)
}

func TestHandleJoin_RejectsWithoutOwnerKeyRegistered(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clk := clock.Fixed{At: now}
	st := memory.New()

	pools := poolmgr.New(st, clk)
	f := facade.New(st, clk, pools, gate.New(nil), submission.New(st, clk), match.New(st, clk, nil), psi.New(st, clk), nil, nil, nil)

	_, ownerPub, err := crypto.GenerateAgreementKeypair()
	require.NoError(t, err)
	_, ownerSigningPub, err := crypto.GenerateSigningKeypair()
	require.NoError(t, err)

	p, err := pools.Create(context.Background(), types.Pool{
		Name:                "federated pool",
		CreatorAgreementKey: ownerPub,
		CreatorSigningKey:   ownerSigningPub,
		RevealDeadline:      now.Add(time.Hour),
		Gate:                types.OpenGate(),
	})
	require.NoError(t, err)

	_, claimantPub, err := crypto.GenerateAgreementKeypair()
	require.NoError(t, err)
	sealed, err := federation.SealJoinClaim(ownerPub, federation.JoinClaim{DisplayName: "remote bob"})
	require.NoError(t, err)

	accepted, reason := f.HandleJoin(context.Background(), p.ID, claimantPub, sealed)
	require.False(t, accepted)
	require.NotEmpty(t, reason)
}
