package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

func (s *Store) UpsertInstance(ctx context.Context, rec types.InstanceRecord) error {
	const q = `
INSERT INTO instances (id, name, endpoint, public_key) VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET name=$2, endpoint=$3, public_key=$4`
	_, err := s.db.Pool.Exec(ctx, q, rec.ID[:], rec.Name, rec.Endpoint, rec.PublicKey[:])
	return err
}

func (s *Store) GetInstance(ctx context.Context, id types.InstanceID) (types.InstanceRecord, bool, error) {
	row := s.db.Pool.QueryRow(ctx, `SELECT id, name, endpoint, public_key FROM instances WHERE id=$1`, id[:])
	rec, err := scanInstance(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.InstanceRecord{}, false, nil
	}
	if err != nil {
		return types.InstanceRecord{}, false, err
	}
	return rec, true, nil
}

func (s *Store) ListInstances(ctx context.Context) ([]types.InstanceRecord, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT id, name, endpoint, public_key FROM instances`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.InstanceRecord
	for rows.Next() {
		rec, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanInstance(row pgx.Row) (types.InstanceRecord, error) {
	var rec types.InstanceRecord
	var id, pub []byte
	if err := row.Scan(&id, &rec.Name, &rec.Endpoint, &pub); err != nil {
		return rec, err
	}
	copy(rec.ID[:], id)
	copy(rec.PublicKey[:], pub)
	return rec, nil
}

// UpsertFederatedPool applies last-writer-wins on UpdatedAt: a write older
// than or equal to the stored row is dropped silently, mirroring the CRDT
// merge rule used for in-memory federated metadata.
func (s *Store) UpsertFederatedPool(ctx context.Context, meta types.FederatedPoolMetadata) error {
	const q = `
INSERT INTO federated_pools (pool_id, name, description, reveal_deadline, commit_deadline, status,
	owner_instance, owner_agreement_key, requires_invite, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (pool_id) DO UPDATE SET name=$2, description=$3, reveal_deadline=$4, commit_deadline=$5,
	status=$6, owner_instance=$7, owner_agreement_key=$8, requires_invite=$9, updated_at=$10
WHERE federated_pools.updated_at < $10`
	_, err := s.db.Pool.Exec(ctx, q, meta.PoolID[:], meta.Name, meta.Description, meta.RevealDeadline, meta.CommitDeadline,
		string(meta.Status), meta.OwnerInstance[:], meta.OwnerAgreementKey[:], meta.RequiresInvite, meta.UpdatedAt)
	return err
}

func (s *Store) GetFederatedPool(ctx context.Context, id types.PoolID) (types.FederatedPoolMetadata, bool, error) {
	const q = `SELECT pool_id, name, description, reveal_deadline, commit_deadline, status, owner_instance, owner_agreement_key, requires_invite, updated_at FROM federated_pools WHERE pool_id=$1`
	row := s.db.Pool.QueryRow(ctx, q, id[:])
	meta, err := scanFederatedPool(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.FederatedPoolMetadata{}, false, nil
	}
	if err != nil {
		return types.FederatedPoolMetadata{}, false, err
	}
	return meta, true, nil
}

func (s *Store) ListFederatedPools(ctx context.Context) ([]types.FederatedPoolMetadata, error) {
	const q = `SELECT pool_id, name, description, reveal_deadline, commit_deadline, status, owner_instance, owner_agreement_key, requires_invite, updated_at FROM federated_pools`
	rows, err := s.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.FederatedPoolMetadata
	for rows.Next() {
		meta, err := scanFederatedPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

func scanFederatedPool(row pgx.Row) (types.FederatedPoolMetadata, error) {
	var meta types.FederatedPoolMetadata
	var poolID, ownerInstance, ownerKey []byte
	var status string

	err := row.Scan(&poolID, &meta.Name, &meta.Description, &meta.RevealDeadline, &meta.CommitDeadline, &status,
		&ownerInstance, &ownerKey, &meta.RequiresInvite, &meta.UpdatedAt)
	if err != nil {
		return meta, err
	}
	copy(meta.PoolID[:], poolID)
	copy(meta.OwnerInstance[:], ownerInstance)
	copy(meta.OwnerAgreementKey[:], ownerKey)
	meta.Status = types.PoolStatus(status)
	return meta, nil
}
