package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

func (s *Store) InsertPool(ctx context.Context, p types.Pool) error {
	gate, err := encodeGate(p.Gate)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO pools (id, name, description, creator_agreement_key, creator_signing_key,
	commit_deadline, reveal_deadline, gate, max_preferences, ephemeral, requires_invite,
	status, psi_setup_present, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err = s.db.Pool.Exec(ctx, q,
		p.ID[:], p.Name, p.Description, p.CreatorAgreementKey[:], p.CreatorSigningKey[:],
		p.CommitDeadline, p.RevealDeadline, gate, p.MaxPreferences, p.Ephemeral, p.RequiresInvite,
		string(p.Status), p.PSISetupPresent, p.CreatedBy[:], p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return rverr.New(rverr.CodeInternal, "pool already exists")
	}
	return err
}

func scanPool(row pgx.Row) (types.Pool, error) {
	var p types.Pool
	var id, creatorAgreement, creatorSigning, createdBy []byte
	var gate []byte
	var status string

	err := row.Scan(&id, &p.Name, &p.Description, &creatorAgreement, &creatorSigning,
		&p.CommitDeadline, &p.RevealDeadline, &gate, &p.MaxPreferences, &p.Ephemeral, &p.RequiresInvite,
		&status, &p.PSISetupPresent, &createdBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}

	copy(p.ID[:], id)
	copy(p.CreatorAgreementKey[:], creatorAgreement)
	copy(p.CreatorSigningKey[:], creatorSigning)
	copy(p.CreatedBy[:], createdBy)
	p.Status = types.PoolStatus(status)
	p.Gate, err = decodeGate(gate)
	return p, err
}

const poolColumns = `id, name, description, creator_agreement_key, creator_signing_key,
	commit_deadline, reveal_deadline, gate, max_preferences, ephemeral, requires_invite,
	status, psi_setup_present, created_by, created_at, updated_at`

func (s *Store) GetPool(ctx context.Context, id types.PoolID) (types.Pool, bool, error) {
	row := s.db.Pool.QueryRow(ctx, `SELECT `+poolColumns+` FROM pools WHERE id=$1`, id[:])
	p, err := scanPool(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Pool{}, false, nil
	}
	if err != nil {
		return types.Pool{}, false, err
	}
	return p, true, nil
}

func (s *Store) UpdatePool(ctx context.Context, p types.Pool) error {
	gate, err := encodeGate(p.Gate)
	if err != nil {
		return err
	}
	const q = `
UPDATE pools SET name=$2, description=$3, commit_deadline=$4, reveal_deadline=$5, gate=$6,
	max_preferences=$7, ephemeral=$8, requires_invite=$9, status=$10, psi_setup_present=$11,
	updated_at=$12
WHERE id=$1`
	tag, err := s.db.Pool.Exec(ctx, q, p.ID[:], p.Name, p.Description, p.CommitDeadline, p.RevealDeadline,
		gate, p.MaxPreferences, p.Ephemeral, p.RequiresInvite, string(p.Status), p.PSISetupPresent, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return rverr.New(rverr.CodePoolNotFound, "pool not found")
	}
	return nil
}

func (s *Store) listPools(ctx context.Context, where string, args ...any) ([]types.Pool, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+poolColumns+` FROM pools `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListPoolsByStatus(ctx context.Context, status types.PoolStatus) ([]types.Pool, error) {
	return s.listPools(ctx, `WHERE status=$1`, string(status))
}

func (s *Store) ListPoolsByCreator(ctx context.Context, key types.AgreementPublic) ([]types.Pool, error) {
	return s.listPools(ctx, `WHERE creator_agreement_key=$1`, key[:])
}

func (s *Store) ListAllPools(ctx context.Context) ([]types.Pool, error) {
	return s.listPools(ctx, ``)
}
