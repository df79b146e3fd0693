package gate

import (
	"context"

	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
)

var _ iface.GateEvaluator = (*Evaluator)(nil)

// Evaluator evaluates a Gate tree against a GateContext, dispatching on
// Gate.Kind and delegating token proofs to the configured issuer
// verifiers.
type Evaluator struct {
	// issuers maps an IssuerID to the verifier that can check proofs it
	// issued. A GateToken node whose IssuerID has no registered verifier is
	// never eligible.
	issuers map[string]iface.TokenIssuerVerifier
}

// New constructs an Evaluator with the given issuer verifiers, keyed by
// issuer id.
func New(issuers map[string]iface.TokenIssuerVerifier) *Evaluator {
	if issuers == nil {
		issuers = map[string]iface.TokenIssuerVerifier{}
	}
	return &Evaluator{issuers: issuers}
}

// Evaluate walks gate and returns the combined eligibility result. It
// never returns an error: an unresolvable or misconfigured node is simply
// not eligible, with Reason explaining why.
func (e *Evaluator) Evaluate(ctx context.Context, g types.Gate, gctx types.GateContext) types.GateResult {
	switch g.Kind {
	case types.GateOpen:
		return types.GateResult{Eligible: true, Reason: "open"}

	case types.GateAllowList:
		return e.evaluateAllowList(g, gctx)

	case types.GateToken:
		return e.evaluateToken(ctx, g, gctx)

	case types.GateComposite:
		return e.evaluateComposite(ctx, g, gctx)

	default:
		return types.GateResult{Eligible: false, Reason: "unknown_gate_kind", Detail: string(g.Kind)}
	}
}

func (e *Evaluator) evaluateAllowList(g types.Gate, gctx types.GateContext) types.GateResult {
	if gctx.ParticipantKey == nil {
		return types.GateResult{Eligible: false, Reason: "no_participant_key"}
	}
	for _, allowed := range g.AllowedKeys {
		if allowed == *gctx.ParticipantKey {
			return types.GateResult{Eligible: true, Reason: "allow_listed"}
		}
	}
	return types.GateResult{Eligible: false, Reason: "not_allow_listed"}
}

func (e *Evaluator) evaluateToken(ctx context.Context, g types.Gate, gctx types.GateContext) types.GateResult {
	if gctx.TokenProof == nil {
		return types.GateResult{Eligible: false, Reason: "missing_token_proof"}
	}
	if gctx.TokenProof.IssuerID != g.IssuerID {
		return types.GateResult{Eligible: false, Reason: "issuer_mismatch", Detail: gctx.TokenProof.IssuerID}
	}

	verifier, ok := e.issuers[g.IssuerID]
	if !ok {
		return types.GateResult{Eligible: false, Reason: "unknown_issuer", Detail: g.IssuerID}
	}
	if verifier.IsExpired(*gctx.TokenProof) {
		return types.GateResult{Eligible: false, Reason: "token_expired"}
	}

	valid, err := verifier.Verify(ctx, *gctx.TokenProof)
	if err != nil {
		return types.GateResult{Eligible: false, Reason: "verification_error", Detail: err.Error()}
	}
	if !valid {
		return types.GateResult{Eligible: false, Reason: "invalid_token_proof"}
	}
	return types.GateResult{Eligible: true, Reason: "token_verified"}
}

func (e *Evaluator) evaluateComposite(ctx context.Context, g types.Gate, gctx types.GateContext) types.GateResult {
	if len(g.Children) == 0 {
		return types.GateResult{Eligible: false, Reason: "empty_composite"}
	}

	switch g.Op {
	case types.CompositeAnd:
		for _, child := range g.Children {
			if res := e.Evaluate(ctx, child, gctx); !res.Eligible {
				return types.GateResult{Eligible: false, Reason: "and_failed", Detail: res.Reason}
			}
		}
		return types.GateResult{Eligible: true, Reason: "and_satisfied"}

	case types.CompositeOr:
		var last types.GateResult
		for _, child := range g.Children {
			last = e.Evaluate(ctx, child, gctx)
			if last.Eligible {
				return types.GateResult{Eligible: true, Reason: "or_satisfied", Detail: last.Reason}
			}
		}
		return types.GateResult{Eligible: false, Reason: "or_failed", Detail: last.Reason}

	default:
		return types.GateResult{Eligible: false, Reason: "unknown_composite_op", Detail: string(g.Op)}
	}
}
