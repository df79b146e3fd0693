package facade_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flammafex/rendezvous/internal/clock"
	"github.com/flammafex/rendezvous/internal/crypto"
	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	"github.com/flammafex/rendezvous/internal/facade"
	"github.com/flammafex/rendezvous/internal/gate"
	"github.com/flammafex/rendezvous/internal/match"
	"github.com/flammafex/rendezvous/internal/poolmgr"
	"github.com/flammafex/rendezvous/internal/psi"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
	"github.com/flammafex/rendezvous/internal/store/memory"
	"github.com/flammafex/rendezvous/internal/submission"
)

type fakeIssuer struct {
	valid   bool
	err     error
	expired bool
}

func (f fakeIssuer) Verify(context.Context, types.TokenProof) (bool, error) { return f.valid, f.err }
func (f fakeIssuer) IsExpired(types.TokenProof) bool                        { return f.expired }
func (f fakeIssuer) RequestToken(context.Context, string) (types.TokenProof, error) {
	return types.TokenProof{IssuerID: "issuer-a"}, nil
}

func newTestFacade(t *testing.T, issuer iface.TokenIssuerVerifier) (*facade.Facade, types.Pool) {
	t.Helper()
	now := time.Unix(1_700_000_000, 0)
	clk := clock.Fixed{At: now}
	st := memory.New()

	pools := poolmgr.New(st, clk)
	gates := gate.New(map[string]iface.TokenIssuerVerifier{"issuer-a": issuer})
	submit := submission.New(st, clk)
	matcher := match.New(st, clk, nil)
	psiSvc := psi.New(st, clk)

	f := facade.New(st, clk, pools, gates, submit, matcher, psiSvc, issuer, nil, nil)

	_, creatorAgreement, err := crypto.GenerateAgreementKeypair()
	require.NoError(t, err)
	_, creatorSigningPub, err := crypto.GenerateSigningKeypair()
	require.NoError(t, err)

	p, err := pools.Create(context.Background(), types.Pool{
		Name:                "test pool",
		CreatorAgreementKey: creatorAgreement,
		CreatorSigningKey:   creatorSigningPub,
		RevealDeadline:      now.Add(time.Hour),
		Gate:                types.TokenGate("issuer-a"),
		RequiresInvite:      true,
	})
	require.NoError(t, err)
	return f, p
}

func TestRegisterParticipant_EligibleTokenSucceeds(t *testing.T) {
	f, p := newTestFacade(t, fakeIssuer{valid: true})

	var key types.AgreementPublic
	key[0] = 1
	proof := &types.TokenProof{IssuerID: "issuer-a", Raw: []byte("proof-1")}

	err := f.RegisterParticipant(context.Background(), types.Participant{PoolID: p.ID, AgreementKey: key}, proof)
	require.NoError(t, err)

	participants, err := f.ListParticipants(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	require.NotNil(t, participants[0].IssuanceProofHash)
}

func TestRegisterParticipant_ReplayedProofRejected(t *testing.T) {
	f, p := newTestFacade(t, fakeIssuer{valid: true})

	proof := &types.TokenProof{IssuerID: "issuer-a", Raw: []byte("same-proof")}

	var key1, key2 types.AgreementPublic
	key1[0] = 1
	key2[0] = 2

	require.NoError(t, f.RegisterParticipant(context.Background(), types.Participant{PoolID: p.ID, AgreementKey: key1}, proof))

	err := f.RegisterParticipant(context.Background(), types.Participant{PoolID: p.ID, AgreementKey: key2}, proof)
	require.Error(t, err)
	require.Equal(t, rverr.CodeAlreadyRegistered, rverr.CodeOf(err))
}

func TestRegisterParticipant_VerifierUnreachableOnInviteRequiredPoolIsTransient(t *testing.T) {
	f, p := newTestFacade(t, fakeIssuer{err: rverr.New(rverr.CodeInternal, "network down")})

	var key types.AgreementPublic
	key[0] = 9
	proof := &types.TokenProof{IssuerID: "issuer-a", Raw: []byte("proof")}

	err := f.RegisterParticipant(context.Background(), types.Participant{PoolID: p.ID, AgreementKey: key}, proof)
	require.Error(t, err)
	require.Equal(t, rverr.CodeTransientServiceError, rverr.CodeOf(err))
}

func TestRegisterParticipant_InvalidProofRejectedAsIneligible(t *testing.T) {
	f, p := newTestFacade(t, fakeIssuer{valid: false})

	var key types.AgreementPublic
	key[0] = 3
	proof := &types.TokenProof{IssuerID: "issuer-a", Raw: []byte("bad-proof")}

	err := f.RegisterParticipant(context.Background(), types.Participant{PoolID: p.ID, AgreementKey: key}, proof)
	require.Error(t, err)
	require.Equal(t, rverr.CodeInvalidEligibility, rverr.CodeOf(err))
}

func TestRegisterParticipant_DuplicateKeyRejected(t *testing.T) {
	f, p := newTestFacade(t, fakeIssuer{valid: true})

	var key types.AgreementPublic
	key[0] = 5
	proof := &types.TokenProof{IssuerID: "issuer-a", Raw: []byte("proof-a")}
	require.NoError(t, f.RegisterParticipant(context.Background(), types.Participant{PoolID: p.ID, AgreementKey: key}, proof))

	proof2 := &types.TokenProof{IssuerID: "issuer-a", Raw: []byte("proof-b")}
	err := f.RegisterParticipant(context.Background(), types.Participant{PoolID: p.ID, AgreementKey: key}, proof2)
	require.Error(t, err)
	require.Equal(t, rverr.CodeAlreadyRegistered, rverr.CodeOf(err))
}

func TestSubmitPSISetup_RequiresOwnerSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clk := clock.Fixed{At: now}
	st := memory.New()
	pools := poolmgr.New(st, clk)
	gates := gate.New(nil)
	submit := submission.New(st, clk)
	matcher := match.New(st, clk, nil)
	psiSvc := psi.New(st, clk)
	f := facade.New(st, clk, pools, gates, submit, matcher, psiSvc, nil, nil, nil)

	_, creatorAgreement, err := crypto.GenerateAgreementKeypair()
	require.NoError(t, err)
	ownerSigningPriv, ownerSigningPub, err := crypto.GenerateSigningKeypair()
	require.NoError(t, err)

	p, err := pools.Create(context.Background(), types.Pool{
		Name:                "psi pool",
		CreatorAgreementKey: creatorAgreement,
		CreatorSigningKey:   ownerSigningPub,
		RevealDeadline:      now.Add(time.Hour),
		Gate:                types.OpenGate(),
	})
	require.NoError(t, err)

	setup := types.PSISetup{PoolID: p.ID, SetupMessage: []byte("setup"), SealedServerKey: []byte("sealed")}

	badSig := crypto.Sign(ownerSigningPriv, []byte("garbage"))
	err = f.SubmitPSISetup(context.Background(), setup, badSig, now.UnixMilli())
	require.Error(t, err)

	req := crypto.SignRequest(ownerSigningPriv, "psi_setup", p.ID, now)
	require.NoError(t, f.SubmitPSISetup(context.Background(), setup, req.Signature, req.TimestampMs))
}
