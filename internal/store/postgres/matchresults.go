package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

// InsertMatchResult upserts r only if no row exists yet for r.PoolID,
// returning the row that actually ended up stored and whether this call
// was the one that inserted it.
func (s *Store) InsertMatchResult(ctx context.Context, r types.MatchResult) (types.MatchResult, bool, error) {
	tokens, err := encodeJSON(r.MatchedTokens)
	if err != nil {
		return types.MatchResult{}, false, err
	}
	attestation, err := encodeJSON(r.Attestation)
	if err != nil {
		return types.MatchResult{}, false, err
	}

	const q = `
INSERT INTO match_results (pool_id, matched_tokens, total_submissions, participant_count, detected_at, attestation)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (pool_id) DO NOTHING`
	tag, err := s.db.Pool.Exec(ctx, q, r.PoolID[:], tokens, r.TotalSubmissions, r.ParticipantCount, r.DetectedAt, attestation)
	if err != nil {
		return types.MatchResult{}, false, err
	}
	if tag.RowsAffected() == 1 {
		return r, true, nil
	}

	existing, ok, err := s.GetMatchResult(ctx, r.PoolID)
	if err != nil {
		return types.MatchResult{}, false, err
	}
	if !ok {
		return types.MatchResult{}, false, errors.New("match result vanished after conflicting insert")
	}
	return existing, false, nil
}

func (s *Store) GetMatchResult(ctx context.Context, poolID types.PoolID) (types.MatchResult, bool, error) {
	const q = `SELECT pool_id, matched_tokens, total_submissions, participant_count, detected_at, attestation FROM match_results WHERE pool_id=$1`
	row := s.db.Pool.QueryRow(ctx, q, poolID[:])

	var r types.MatchResult
	var id []byte
	var tokens []byte
	var attestation []byte
	if err := row.Scan(&id, &tokens, &r.TotalSubmissions, &r.ParticipantCount, &r.DetectedAt, &attestation); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.MatchResult{}, false, nil
		}
		return types.MatchResult{}, false, err
	}
	copy(r.PoolID[:], id)
	if err := decodeJSON(tokens, &r.MatchedTokens); err != nil {
		return types.MatchResult{}, false, err
	}
	if len(attestation) > 0 {
		var a types.Attestation
		if err := decodeJSON(attestation, &a); err != nil {
			return types.MatchResult{}, false, err
		}
		r.Attestation = &a
	}
	return r, true, nil
}
