package submission

import (
	"context"
	"crypto/sha256"

	"github.com/flammafex/rendezvous/internal/crypto"
	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

var _ iface.SubmissionManager = (*Manager)(nil)

type store interface {
	iface.PoolStore
	iface.PreferenceStore
}

// Manager implements interfaces.SubmissionManager.
type Manager struct {
	store store
	clock iface.Clock
}

// New constructs a submission manager over store, using clock for "now".
func New(st store, clock iface.Clock) *Manager {
	return &Manager{store: st, clock: clock}
}

// Submit validates and stores one participant's submission: the real
// tokens (with commitments if the pool is in its commit phase), plus a
// server-chosen number of decoys in [3, 8], all under the same nullifier.
// A second submission under the same nullifier fails with
// CodeDuplicateNullifier, enforced atomically by the store.
func (m *Manager) Submit(ctx context.Context, req types.SubmitRequest) error {
	pool, ok, err := m.store.GetPool(ctx, req.PoolID)
	if err != nil {
		return err
	}
	if !ok {
		return rverr.New(rverr.CodePoolNotFound, "pool not found")
	}

	now := m.clock.Now()
	effective := pool.EffectiveStatus(now)
	switch effective {
	case types.PoolStatusClosed:
		return rverr.New(rverr.CodePoolClosed, "pool is closed")
	case types.PoolStatusCommit, types.PoolStatusOpen, types.PoolStatusReveal:
	default:
		return rverr.New(rverr.CodePoolClosed, "pool does not accept submissions")
	}

	if pool.MaxPreferences != nil && len(req.Tokens) > *pool.MaxPreferences {
		return rverr.New(rverr.CodePreferenceLimit, "submission exceeds the pool's preference limit")
	}

	revealByToken := make(map[types.MatchToken][]byte, len(req.RevealData))
	for _, entry := range req.RevealData {
		revealByToken[entry.MatchToken] = entry.EncryptedReveal
	}

	var proofHash *[32]byte
	if req.TokenProof != nil {
		h := sha256.Sum256(req.TokenProof.Raw)
		proofHash = &h
	}

	phaseCommit := effective == types.PoolStatusCommit
	prefs := make([]types.Preference, 0, len(req.Tokens)+maxDecoys)
	for i, tok := range req.Tokens {
		pref := types.Preference{
			PoolID:            req.PoolID,
			Nullifier:         req.Nullifier,
			Token:             tok,
			Revealed:          !phaseCommit,
			SubmittedAt:       now,
			IssuanceProofHash: proofHash,
			EncryptedReveal:   revealByToken[tok],
		}
		if phaseCommit {
			var c types.Commitment
			if i < len(req.Commitments) {
				c = req.Commitments[i]
			} else {
				c = crypto.Commit(tok)
			}
			pref.Commitment = &c
		}
		prefs = append(prefs, pref)
	}

	decoys, err := buildDecoys(req.PoolID, req.Nullifier, phaseCommit, now)
	if err != nil {
		return err
	}
	prefs = append(prefs, decoys...)

	return m.store.InsertPreferences(ctx, req.PoolID, req.Nullifier, prefs)
}

// Reveal matches caller-supplied tokens against the nullifier's unrevealed
// commitments, flips them to revealed, and auto-reveals every remaining
// unrevealed preference (decoys, which verify against their own stored
// token by construction). Any supplied token that matches no commitment
// fails the whole call with CodeCommitmentMismatch before anything is
// persisted.
func (m *Manager) Reveal(ctx context.Context, req types.RevealRequest) error {
	pool, ok, err := m.store.GetPool(ctx, req.PoolID)
	if err != nil {
		return err
	}
	if !ok {
		return rverr.New(rverr.CodePoolNotFound, "pool not found")
	}
	now := m.clock.Now()
	if pool.EffectiveStatus(now) != types.PoolStatusReveal {
		return rverr.New(rverr.CodePoolNotInRevealPhase, "pool is not in its reveal phase")
	}

	prefs, err := m.store.ListByNullifier(ctx, req.PoolID, req.Nullifier)
	if err != nil {
		return err
	}

	unrevealed := make([]types.Preference, 0, len(prefs))
	for _, p := range prefs {
		if !p.Revealed {
			unrevealed = append(unrevealed, p)
		}
	}

	consumed := make([]bool, len(unrevealed))
	matchedToken := make([]types.MatchToken, 0, len(req.Tokens))
	for _, tok := range req.Tokens {
		found := false
		for i, p := range unrevealed {
			if consumed[i] || p.Commitment == nil {
				continue
			}
			if crypto.VerifyCommitment(tok, *p.Commitment) {
				consumed[i] = true
				found = true
				matchedToken = append(matchedToken, tok)
				break
			}
		}
		if !found {
			return rverr.New(rverr.CodeCommitmentMismatch, "a revealed token does not match any pending commitment")
		}
	}

	for _, tok := range matchedToken {
		if err := m.store.MarkRevealed(ctx, req.PoolID, req.Nullifier, tok, nil); err != nil {
			return err
		}
	}
	for i, p := range unrevealed {
		if consumed[i] {
			continue
		}
		if err := m.store.MarkRevealed(ctx, req.PoolID, req.Nullifier, p.Token, nil); err != nil {
			return err
		}
	}
	return nil
}
