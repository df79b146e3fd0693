package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

func (s *Store) InsertPSISetup(ctx context.Context, setup types.PSISetup) error {
	const q = `
INSERT INTO psi_setups (pool_id, setup_message, sealed_server_key, owner_agreement_key, false_positive_rate, max_client_elements, structure, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (pool_id) DO UPDATE SET setup_message=$2, sealed_server_key=$3, owner_agreement_key=$4,
	false_positive_rate=$5, max_client_elements=$6, structure=$7, created_at=$8`
	_, err := s.db.Pool.Exec(ctx, q, setup.PoolID[:], setup.SetupMessage, setup.SealedServerKey, setup.OwnerAgreementKey[:],
		setup.FalsePositiveRate, setup.MaxClientElements, string(setup.Structure), setup.CreatedAt)
	return err
}

func (s *Store) GetPSISetup(ctx context.Context, poolID types.PoolID) (types.PSISetup, bool, error) {
	const q = `SELECT pool_id, setup_message, sealed_server_key, owner_agreement_key, false_positive_rate, max_client_elements, structure, created_at FROM psi_setups WHERE pool_id=$1`
	row := s.db.Pool.QueryRow(ctx, q, poolID[:])

	var setup types.PSISetup
	var id, owner []byte
	var structure string
	if err := row.Scan(&id, &setup.SetupMessage, &setup.SealedServerKey, &owner, &setup.FalsePositiveRate, &setup.MaxClientElements, &structure, &setup.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.PSISetup{}, false, nil
		}
		return types.PSISetup{}, false, err
	}
	copy(setup.PoolID[:], id)
	copy(setup.OwnerAgreementKey[:], owner)
	setup.Structure = types.PSIStructure(structure)
	return setup, true, nil
}

func (s *Store) EnqueuePSIRequest(ctx context.Context, r types.PendingPSIRequest) error {
	var authHash, submittedBy []byte
	if r.AuthTokenHash != nil {
		authHash = r.AuthTokenHash[:]
	}
	if r.SubmittedByInstance != nil {
		submittedBy = r.SubmittedByInstance[:]
	}
	const q = `
INSERT INTO psi_requests (id, pool_id, client_request, status, created_at, auth_token_hash, submitted_by_instance)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := s.db.Pool.Exec(ctx, q, r.ID[:], r.PoolID[:], r.ClientRequest, string(r.Status), r.CreatedAt, authHash, submittedBy)
	return err
}

func scanPSIRequest(row pgx.Row) (types.PendingPSIRequest, error) {
	var r types.PendingPSIRequest
	var id, poolID []byte
	var status string
	var authHash, submittedBy []byte

	err := row.Scan(&id, &poolID, &r.ClientRequest, &status, &r.CreatedAt, &authHash, &submittedBy)
	if err != nil {
		return r, err
	}
	copy(r.ID[:], id)
	copy(r.PoolID[:], poolID)
	r.Status = types.PSIRequestStatus(status)
	if authHash != nil {
		var h [32]byte
		copy(h[:], authHash)
		r.AuthTokenHash = &h
	}
	if submittedBy != nil {
		var inst types.InstanceID
		copy(inst[:], submittedBy)
		r.SubmittedByInstance = &inst
	}
	return r, nil
}

const psiRequestColumns = `id, pool_id, client_request, status, created_at, auth_token_hash, submitted_by_instance`

func (s *Store) GetPSIRequest(ctx context.Context, id [16]byte) (types.PendingPSIRequest, bool, error) {
	row := s.db.Pool.QueryRow(ctx, `SELECT `+psiRequestColumns+` FROM psi_requests WHERE id=$1`, id[:])
	r, err := scanPSIRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.PendingPSIRequest{}, false, nil
	}
	if err != nil {
		return types.PendingPSIRequest{}, false, err
	}
	return r, true, nil
}

func (s *Store) ListPSIRequestsByStatus(ctx context.Context, poolID types.PoolID, status types.PSIRequestStatus) ([]types.PendingPSIRequest, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+psiRequestColumns+` FROM psi_requests WHERE pool_id=$1 AND status=$2`, poolID[:], string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.PendingPSIRequest
	for rows.Next() {
		r, err := scanPSIRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdatePSIRequestStatus(ctx context.Context, id [16]byte, status types.PSIRequestStatus) error {
	tag, err := s.db.Pool.Exec(ctx, `UPDATE psi_requests SET status=$2 WHERE id=$1`, id[:], string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return rverr.New(rverr.CodePSIRequestNotFound, "psi request not found")
	}
	return nil
}

func (s *Store) InsertPSIResponse(ctx context.Context, r types.PSIResponseRecord) error {
	const q = `
INSERT INTO psi_responses (id, request_id, pool_id, setup_message, response, created_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := s.db.Pool.Exec(ctx, q, r.ID[:], r.RequestID[:], r.PoolID[:], r.SetupMessage, r.Response, r.CreatedAt, r.ExpiresAt)
	return err
}

func (s *Store) GetPSIResponseByRequest(ctx context.Context, requestID [16]byte) (types.PSIResponseRecord, bool, error) {
	const q = `SELECT id, request_id, pool_id, setup_message, response, created_at, expires_at FROM psi_responses WHERE request_id=$1`
	row := s.db.Pool.QueryRow(ctx, q, requestID[:])

	var r types.PSIResponseRecord
	var id, reqID, poolID []byte
	if err := row.Scan(&id, &reqID, &poolID, &r.SetupMessage, &r.Response, &r.CreatedAt, &r.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.PSIResponseRecord{}, false, nil
		}
		return types.PSIResponseRecord{}, false, err
	}
	copy(r.ID[:], id)
	copy(r.RequestID[:], reqID)
	copy(r.PoolID[:], poolID)
	return r, true, nil
}
