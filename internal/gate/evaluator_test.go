package gate_test

import (
	"context"
	"testing"

	"github.com/flammafex/rendezvous/internal/gate"

	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
)

type fakeIssuer struct {
	valid   bool
	expired bool
	err     error
}

func (f fakeIssuer) Verify(context.Context, types.TokenProof) (bool, error) { return f.valid, f.err }
func (f fakeIssuer) IsExpired(types.TokenProof) bool                        { return f.expired }
func (f fakeIssuer) RequestToken(context.Context, string) (types.TokenProof, error) {
	return types.TokenProof{}, nil
}

func TestEvaluate_OpenGate(t *testing.T) {
	e := gate.New(nil)
	res := e.Evaluate(context.Background(), types.OpenGate(), types.GateContext{})
	if !res.Eligible {
		t.Fatal("open gate must always be eligible")
	}
}

func TestEvaluate_AllowListGate(t *testing.T) {
	e := gate.New(nil)

	var allowed, notAllowed types.AgreementPublic
	allowed[0] = 1
	notAllowed[0] = 2
	g := types.AllowListGate(allowed)

	res := e.Evaluate(context.Background(), g, types.GateContext{ParticipantKey: &allowed})
	if !res.Eligible {
		t.Fatal("allow-listed key must be eligible")
	}

	res = e.Evaluate(context.Background(), g, types.GateContext{ParticipantKey: &notAllowed})
	if res.Eligible {
		t.Fatal("non-allow-listed key must not be eligible")
	}
}

func TestEvaluate_TokenGate(t *testing.T) {
	issuers := map[string]iface.TokenIssuerVerifier{
		"issuer-a": fakeIssuer{valid: true},
	}
	e := gate.New(issuers)
	g := types.TokenGate("issuer-a")

	res := e.Evaluate(context.Background(), g, types.GateContext{
		TokenProof: &types.TokenProof{IssuerID: "issuer-a"},
	})
	if !res.Eligible {
		t.Fatalf("valid token proof must be eligible, got reason=%s", res.Reason)
	}

	res = e.Evaluate(context.Background(), g, types.GateContext{
		TokenProof: &types.TokenProof{IssuerID: "issuer-b"},
	})
	if res.Eligible {
		t.Fatal("mismatched issuer must not be eligible")
	}

	res = e.Evaluate(context.Background(), g, types.GateContext{})
	if res.Eligible {
		t.Fatal("missing token proof must not be eligible")
	}
}

func TestEvaluate_TokenGate_ExpiredRejected(t *testing.T) {
	issuers := map[string]iface.TokenIssuerVerifier{
		"issuer-a": fakeIssuer{valid: true, expired: true},
	}
	e := gate.New(issuers)
	g := types.TokenGate("issuer-a")

	res := e.Evaluate(context.Background(), g, types.GateContext{
		TokenProof: &types.TokenProof{IssuerID: "issuer-a"},
	})
	if res.Eligible {
		t.Fatal("expired token proof must not be eligible")
	}
}

func TestEvaluate_CompositeAnd(t *testing.T) {
	var allowed types.AgreementPublic
	allowed[0] = 5
	issuers := map[string]iface.TokenIssuerVerifier{"issuer-a": fakeIssuer{valid: true}}
	e := gate.New(issuers)

	g := types.AndGate(types.AllowListGate(allowed), types.TokenGate("issuer-a"))

	res := e.Evaluate(context.Background(), g, types.GateContext{
		ParticipantKey: &allowed,
		TokenProof:     &types.TokenProof{IssuerID: "issuer-a"},
	})
	if !res.Eligible {
		t.Fatalf("AND of two satisfied gates must be eligible, got reason=%s", res.Reason)
	}

	res = e.Evaluate(context.Background(), g, types.GateContext{ParticipantKey: &allowed})
	if res.Eligible {
		t.Fatal("AND with one unsatisfied child must not be eligible")
	}
}

func TestEvaluate_CompositeOr(t *testing.T) {
	var allowed, other types.AgreementPublic
	allowed[0] = 6
	other[0] = 7
	e := gate.New(nil)

	g := types.OrGate(types.AllowListGate(allowed), types.OpenGate())

	res := e.Evaluate(context.Background(), g, types.GateContext{ParticipantKey: &other})
	if !res.Eligible {
		t.Fatal("OR with an always-open child must be eligible regardless of the other child")
	}
}

func TestEvaluate_CompositeEmptyChildrenIneligible(t *testing.T) {
	e := gate.New(nil)

	andRes := e.Evaluate(context.Background(), types.AndGate(), types.GateContext{})
	if andRes.Eligible {
		t.Fatal("AND with no children must not be eligible")
	}
	if andRes.Reason != "empty_composite" {
		t.Fatalf("want reason=empty_composite, got %s", andRes.Reason)
	}

	orRes := e.Evaluate(context.Background(), types.OrGate(), types.GateContext{})
	if orRes.Eligible {
		t.Fatal("OR with no children must not be eligible")
	}
	if orRes.Reason != "empty_composite" {
		t.Fatalf("want reason=empty_composite, got %s", orRes.Reason)
	}
}
