package poolmgr

import (
	"context"

	"github.com/flammafex/rendezvous/internal/crypto"
	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

var _ iface.PoolManager = (*Manager)(nil)

// Manager implements interfaces.PoolManager backed by a Store.
type Manager struct {
	store iface.PoolStore
	clock iface.Clock
}

// New constructs a pool manager over store, using clock for "now".
func New(store iface.PoolStore, clock iface.Clock) *Manager {
	return &Manager{store: store, clock: clock}
}

// Create validates and persists a new pool. RevealDeadline must be in the
// future; if CommitDeadline is set it must fall strictly before
// RevealDeadline.
func (m *Manager) Create(ctx context.Context, p types.Pool) (types.Pool, error) {
	now := m.clock.Now()
	if p.Name == "" || len(p.Name) > 200 {
		return types.Pool{}, rverr.New(rverr.CodeInvalidInput, "name must be non-empty and at most 200 characters")
	}
	if !p.RevealDeadline.After(now) {
		return types.Pool{}, rverr.New(rverr.CodeInvalidInput, "reveal deadline must be in the future")
	}
	if p.CommitDeadline != nil && !p.CommitDeadline.Before(p.RevealDeadline) {
		return types.Pool{}, rverr.New(rverr.CodeInvalidInput, "commit deadline must precede reveal deadline")
	}
	if p.MaxPreferences != nil && *p.MaxPreferences <= 0 {
		return types.Pool{}, rverr.New(rverr.CodeInvalidInput, "max preferences must be positive when set")
	}
	if p.Gate.Kind == "" {
		p.Gate = types.AllowListGate(p.CreatorAgreementKey)
	}

	p.Status = types.PoolStatusOpen
	if p.CommitDeadline != nil {
		p.Status = types.PoolStatusCommit
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := m.store.InsertPool(ctx, p); err != nil {
		return types.Pool{}, err
	}
	return p, nil
}

// Get returns a pool by id.
func (m *Manager) Get(ctx context.Context, id types.PoolID) (types.Pool, error) {
	p, ok, err := m.store.GetPool(ctx, id)
	if err != nil {
		return types.Pool{}, err
	}
	if !ok {
		return types.Pool{}, rverr.New(rverr.CodePoolNotFound, "pool not found")
	}
	return p, nil
}

// List returns every pool known to this instance.
func (m *Manager) List(ctx context.Context) ([]types.Pool, error) {
	return m.store.ListAllPools(ctx)
}

// EffectiveStatus computes the pool's current lifecycle phase.
func (m *Manager) EffectiveStatus(ctx context.Context, id types.PoolID) (types.PoolStatus, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return p.EffectiveStatus(m.clock.Now()), nil
}

// RefreshStatus recomputes the pool's effective status and, if it has
// advanced past Reveal into Closed, persists that transition so later
// reads don't need to recompute it. The transition from stored Commit or
// Reveal into stored Closed is one-way: Closed never reverts.
func (m *Manager) RefreshStatus(ctx context.Context, id types.PoolID) (types.Pool, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return types.Pool{}, err
	}

	now := m.clock.Now()
	effective := p.EffectiveStatus(now)
	if effective == p.Status {
		return p, nil
	}

	p.Status = effective
	p.UpdatedAt = now
	if err := m.store.UpdatePool(ctx, p); err != nil {
		return types.Pool{}, err
	}
	return p, nil
}

// Close closes a pool ahead of its reveal deadline, given a signature over
// the close action from the pool's creator signing key. Closing early is
// irreversible and immediately stops accepting both commits and reveals.
func (m *Manager) Close(ctx context.Context, id types.PoolID, requesterSig []byte, requesterTimestampMs int64) error {
	p, err := m.Get(ctx, id)
	if err != nil {
		return err
	}

	now := m.clock.Now()
	if err := crypto.VerifySignedAction(p.CreatorSigningKey, "close", id, requesterTimestampMs, requesterSig, now); err != nil {
		return err
	}

	if p.Status == types.PoolStatusClosed {
		return nil
	}
	p.Status = types.PoolStatusClosed
	p.UpdatedAt = now
	return m.store.UpdatePool(ctx, p)
}
