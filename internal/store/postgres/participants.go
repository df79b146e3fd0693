package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

func (s *Store) InsertParticipant(ctx context.Context, p types.Participant) error {
	fields, err := encodeJSON(p.ProfileFields)
	if err != nil {
		return err
	}
	var proofHash []byte
	if p.IssuanceProofHash != nil {
		proofHash = p.IssuanceProofHash[:]
	}

	const q = `
INSERT INTO participants (pool_id, agreement_key, display_name, bio, profile_fields, registered_at, issuance_proof_hash)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err = s.db.Pool.Exec(ctx, q, p.PoolID[:], p.AgreementKey[:], p.DisplayName, p.Bio, fields, p.RegisteredAt, proofHash)
	if isUniqueViolation(err) {
		return rverr.New(rverr.CodeAlreadyRegistered, "participant already registered in pool")
	}
	return err
}

func scanParticipant(row pgx.Row) (types.Participant, error) {
	var p types.Participant
	var poolID, agreementKey []byte
	var fields []byte
	var proofHash []byte

	err := row.Scan(&poolID, &agreementKey, &p.DisplayName, &p.Bio, &fields, &p.RegisteredAt, &proofHash)
	if err != nil {
		return p, err
	}
	copy(p.PoolID[:], poolID)
	copy(p.AgreementKey[:], agreementKey)
	if err := decodeJSON(fields, &p.ProfileFields); err != nil {
		return p, err
	}
	if proofHash != nil {
		var h [32]byte
		copy(h[:], proofHash)
		p.IssuanceProofHash = &h
	}
	return p, nil
}

const participantColumns = `pool_id, agreement_key, display_name, bio, profile_fields, registered_at, issuance_proof_hash`

func (s *Store) GetParticipant(ctx context.Context, poolID types.PoolID, key types.AgreementPublic) (types.Participant, bool, error) {
	row := s.db.Pool.QueryRow(ctx, `SELECT `+participantColumns+` FROM participants WHERE pool_id=$1 AND agreement_key=$2`, poolID[:], key[:])
	p, err := scanParticipant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Participant{}, false, nil
	}
	if err != nil {
		return types.Participant{}, false, err
	}
	return p, true, nil
}

func (s *Store) ListParticipants(ctx context.Context, poolID types.PoolID) ([]types.Participant, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+participantColumns+` FROM participants WHERE pool_id=$1`, poolID[:])
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteParticipantsByPool(ctx context.Context, poolID types.PoolID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM participants WHERE pool_id=$1`, poolID[:])
	return err
}
