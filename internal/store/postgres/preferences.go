package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

// InsertPreferences inserts the nullifier row and the whole preference batch
// inside a single transaction. The nullifiers table's primary key on
// (pool_id, nullifier) is the serialization point: a concurrent second
// submission for the same nullifier fails on that insert and rolls back,
// before any of its preference rows are visible.
func (s *Store) InsertPreferences(ctx context.Context, poolID types.PoolID, nullifier types.Nullifier, prefs []types.Preference) (err error) {
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	if _, err = tx.Exec(ctx, `INSERT INTO nullifiers (pool_id, nullifier) VALUES ($1,$2)`, poolID[:], nullifier[:]); err != nil {
		if isUniqueViolation(err) {
			err = rverr.New(rverr.CodeDuplicateNullifier, "nullifier already submitted for pool")
		}
		return err
	}

	const q = `
INSERT INTO preferences (pool_id, nullifier, token, commitment, revealed, submitted_at, issuance_proof_hash, encrypted_reveal)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	for _, pref := range prefs {
		var commitment []byte
		if pref.Commitment != nil {
			commitment = pref.Commitment[:]
		}
		var proofHash []byte
		if pref.IssuanceProofHash != nil {
			proofHash = pref.IssuanceProofHash[:]
		}
		if _, err = tx.Exec(ctx, q, poolID[:], nullifier[:], pref.Token[:], commitment, pref.Revealed,
			pref.SubmittedAt, proofHash, pref.EncryptedReveal); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) HasNullifier(ctx context.Context, poolID types.PoolID, nullifier types.Nullifier) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM nullifiers WHERE pool_id=$1 AND nullifier=$2)`, poolID[:], nullifier[:]).Scan(&exists)
	return exists, err
}

func scanPreference(row pgx.Row) (types.Preference, error) {
	var pref types.Preference
	var poolID, nullifier, token []byte
	var commitment []byte
	var proofHash []byte

	err := row.Scan(&poolID, &nullifier, &token, &commitment, &pref.Revealed, &pref.SubmittedAt, &proofHash, &pref.EncryptedReveal)
	if err != nil {
		return pref, err
	}
	copy(pref.PoolID[:], poolID)
	copy(pref.Nullifier[:], nullifier)
	copy(pref.Token[:], token)
	if commitment != nil {
		var c types.Commitment
		copy(c[:], commitment)
		pref.Commitment = &c
	}
	if proofHash != nil {
		var h [32]byte
		copy(h[:], proofHash)
		pref.IssuanceProofHash = &h
	}
	return pref, nil
}

const preferenceColumns = `pool_id, nullifier, token, commitment, revealed, submitted_at, issuance_proof_hash, encrypted_reveal`

func (s *Store) ListByNullifier(ctx context.Context, poolID types.PoolID, nullifier types.Nullifier) ([]types.Preference, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+preferenceColumns+` FROM preferences WHERE pool_id=$1 AND nullifier=$2`, poolID[:], nullifier[:])
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPreferences(rows)
}

func (s *Store) ListByPool(ctx context.Context, poolID types.PoolID, revealedOnly bool) ([]types.Preference, error) {
	q := `SELECT ` + preferenceColumns + ` FROM preferences WHERE pool_id=$1`
	if revealedOnly {
		q += ` AND revealed`
	}
	rows, err := s.db.Pool.Query(ctx, q, poolID[:])
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPreferences(rows)
}

func collectPreferences(rows pgx.Rows) ([]types.Preference, error) {
	var out []types.Preference
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) MarkRevealed(ctx context.Context, poolID types.PoolID, nullifier types.Nullifier, token types.MatchToken, encryptedReveal []byte) error {
	const q = `
UPDATE preferences SET revealed=true, encrypted_reveal=COALESCE($4, encrypted_reveal)
WHERE pool_id=$1 AND nullifier=$2 AND token=$3`
	_, err := s.db.Pool.Exec(ctx, q, poolID[:], nullifier[:], token[:], encryptedReveal)
	return err
}

func (s *Store) CountTokenOccurrences(ctx context.Context, poolID types.PoolID) (map[types.MatchToken]int, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT token, COUNT(*) FROM preferences WHERE pool_id=$1 AND revealed GROUP BY token`, poolID[:])
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[types.MatchToken]int)
	for rows.Next() {
		var tokenBytes []byte
		var count int
		if err := rows.Scan(&tokenBytes, &count); err != nil {
			return nil, err
		}
		var tok types.MatchToken
		copy(tok[:], tokenBytes)
		out[tok] = count
	}
	return out, rows.Err()
}

func (s *Store) CountDistinctNullifiers(ctx context.Context, poolID types.PoolID) (int, error) {
	var n int
	err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(DISTINCT nullifier) FROM preferences WHERE pool_id=$1`, poolID[:]).Scan(&n)
	return n, err
}

func (s *Store) CountTotal(ctx context.Context, poolID types.PoolID) (int, error) {
	var n int
	err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM preferences WHERE pool_id=$1`, poolID[:]).Scan(&n)
	return n, err
}
