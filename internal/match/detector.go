package match

import (
	"context"
	"fmt"
	"sort"

	"github.com/flammafex/rendezvous/internal/crypto"
	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

var _ iface.MatchDetector = (*Detector)(nil)

type store interface {
	iface.PoolStore
	iface.PreferenceStore
	iface.MatchResultStore
}

// Detector implements interfaces.MatchDetector.
type Detector struct {
	store    store
	clock    iface.Clock
	attestor iface.AttestationAdapter // optional
}

// New constructs a match detector. attestor may be nil: no attestation is
// requested when it is.
func New(st store, clock iface.Clock, attestor iface.AttestationAdapter) *Detector {
	return &Detector{store: st, clock: clock, attestor: attestor}
}

// Detect requires the pool's effective status to be closed. It is
// idempotent: a prior result for the pool is returned unchanged rather
// than recomputed, and attestation is requested at most once per pool.
func (d *Detector) Detect(ctx context.Context, poolID types.PoolID) (types.MatchResult, error) {
	if existing, ok, err := d.store.GetMatchResult(ctx, poolID); err != nil {
		return types.MatchResult{}, err
	} else if ok {
		return existing, nil
	}

	pool, ok, err := d.store.GetPool(ctx, poolID)
	if err != nil {
		return types.MatchResult{}, err
	}
	if !ok {
		return types.MatchResult{}, rverr.New(rverr.CodePoolNotFound, "pool not found")
	}
	if pool.EffectiveStatus(d.clock.Now()) != types.PoolStatusClosed {
		return types.MatchResult{}, rverr.New(rverr.CodePoolClosed, "detect requires a closed pool")
	}

	counts, err := d.store.CountTokenOccurrences(ctx, poolID)
	if err != nil {
		return types.MatchResult{}, err
	}
	total, err := d.store.CountTotal(ctx, poolID)
	if err != nil {
		return types.MatchResult{}, err
	}
	participantCount, err := d.store.CountDistinctNullifiers(ctx, poolID)
	if err != nil {
		return types.MatchResult{}, err
	}

	matched := matchedTokens(counts)

	result := types.MatchResult{
		PoolID:           poolID,
		MatchedTokens:    matched,
		TotalSubmissions: total,
		ParticipantCount: participantCount,
		DetectedAt:       d.clock.Now(),
	}

	if d.attestor != nil {
		hash, err := canonicalContentHash(poolID, matched, participantCount)
		if err != nil {
			return types.MatchResult{}, rverr.Wrap(rverr.CodeInternal, "computing content hash", err)
		}
		att, err := d.attestor.Attest(ctx, hash, nil)
		if err != nil {
			return types.MatchResult{}, rverr.Wrap(rverr.CodeTransientServiceError, "requesting attestation", err)
		}
		result.Attestation = &att
	}

	stored, _, err := d.store.InsertMatchResult(ctx, result)
	if err != nil {
		return types.MatchResult{}, err
	}
	return stored, nil
}

// Result returns a previously-computed MatchResult, if any.
func (d *Detector) Result(ctx context.Context, poolID types.PoolID) (types.MatchResult, bool, error) {
	return d.store.GetMatchResult(ctx, poolID)
}

// VerifyIntegrity recounts preferences from scratch and asserts that
// MatchedTokens is exactly {t : count(t) == 2}.
func (d *Detector) VerifyIntegrity(ctx context.Context, poolID types.PoolID) (types.IntegrityReport, error) {
	result, ok, err := d.store.GetMatchResult(ctx, poolID)
	if err != nil {
		return types.IntegrityReport{}, err
	}
	if !ok {
		return types.IntegrityReport{OK: false, Errors: []string{"no match result recorded for pool"}}, nil
	}

	counts, err := d.store.CountTokenOccurrences(ctx, poolID)
	if err != nil {
		return types.IntegrityReport{}, err
	}

	recomputed := matchedTokens(counts)
	reported := make(map[types.MatchToken]struct{}, len(result.MatchedTokens))
	for _, t := range result.MatchedTokens {
		reported[t] = struct{}{}
	}
	recomputedSet := make(map[types.MatchToken]struct{}, len(recomputed))
	for _, t := range recomputed {
		recomputedSet[t] = struct{}{}
	}

	var errs []string
	for tok, count := range counts {
		if count > 2 {
			errs = append(errs, fmt.Sprintf("token %s has impossible occurrence count %d", tok, count))
		}
		if count == 2 {
			if _, ok := reported[tok]; !ok {
				errs = append(errs, fmt.Sprintf("token %s has count 2 but is missing from the reported match list", tok))
			}
		}
	}
	for tok := range reported {
		if counts[tok] != 2 {
			errs = append(errs, fmt.Sprintf("token %s is reported matched but has occurrence count %d", tok, counts[tok]))
		}
	}

	return types.IntegrityReport{OK: len(errs) == 0, Errors: errs}, nil
}

// Discover is pure client-side computation: it recomputes the caller's
// would-be token for every candidate and reports which are present in
// matched, never sending candidate information anywhere.
func (d *Detector) Discover(myAgreementKey types.AgreementPrivate, poolID types.PoolID, matched []types.MatchToken, candidates []types.AgreementPublic) []types.DiscoverResult {
	matchedSet := make(map[types.MatchToken]struct{}, len(matched))
	for _, t := range matched {
		matchedSet[t] = struct{}{}
	}

	out := make([]types.DiscoverResult, 0, len(candidates))
	for _, cand := range candidates {
		tok, err := crypto.DeriveMatchToken(myAgreementKey, cand, poolID)
		res := types.DiscoverResult{CandidateKey: cand}
		if err == nil {
			_, res.Matched = matchedSet[tok]
		}
		out = append(out, res)
	}
	return out
}

func matchedTokens(counts map[types.MatchToken]int) []types.MatchToken {
	var out []types.MatchToken
	for tok, count := range counts {
		if count == 2 {
			out = append(out, tok)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
