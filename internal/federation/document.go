package federation

import (
	"sync"
	"time"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

// Document is the replicated {instances, pools, version} CRDT. Every
// mutation — local or received from a peer — goes through MergeInstance or
// MergePool, which apply last-writer-wins per field and bump version only
// when something actually changed. Merges are commutative: applying the
// same two records in either order converges to the same result.
type Document struct {
	mu        sync.Mutex
	instances map[types.InstanceID]instanceEntry
	pools     map[types.PoolID]types.FederatedPoolRecord
	version   uint64
}

type instanceEntry struct {
	rec       types.InstanceRecord
	updatedAt time.Time
}

// NewDocument returns an empty replicated document.
func NewDocument() *Document {
	return &Document{
		instances: make(map[types.InstanceID]instanceEntry),
		pools:     make(map[types.PoolID]types.FederatedPoolRecord),
	}
}

// Version returns the document's current local version counter.
func (d *Document) Version() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// MergeInstance applies an InstanceRecord under whole-record
// last-writer-wins (instance records have no sub-fields worth splitting).
// It reports whether the merge changed local state.
func (d *Document) MergeInstance(rec types.InstanceRecord, updatedAt time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur, ok := d.instances[rec.ID]
	if ok && !updatedAt.After(cur.updatedAt) {
		return false
	}
	d.instances[rec.ID] = instanceEntry{rec: rec, updatedAt: updatedAt}
	d.version++
	return true
}

// GetInstance returns the known record for id, if any.
func (d *Document) GetInstance(id types.InstanceID) (types.InstanceRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.instances[id]
	return e.rec, ok
}

// Instances returns every known instance record.
func (d *Document) Instances() []types.InstanceRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]types.InstanceRecord, 0, len(d.instances))
	for _, e := range d.instances {
		out = append(out, e.rec)
	}
	return out
}

// MergePool applies a FederatedPoolRecord field by field: each field of
// incoming.Meta replaces the local value only where incoming.Clock's entry
// for that field is strictly newer than the local clock's entry. Reports
// whether any field actually changed.
func (d *Document) MergePool(incoming types.FederatedPoolRecord) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur, known := d.pools[incoming.Meta.PoolID]
	if !known {
		cur = types.FederatedPoolRecord{Meta: types.FederatedPoolMetadata{PoolID: incoming.Meta.PoolID}}
	}

	changed := false
	merge := func(localTS *time.Time, remoteTS time.Time, apply func()) {
		if remoteTS.After(*localTS) {
			apply()
			*localTS = remoteTS
			changed = true
		}
	}

	merge(&cur.Clock.Name, incoming.Clock.Name, func() { cur.Meta.Name = incoming.Meta.Name })
	merge(&cur.Clock.Description, incoming.Clock.Description, func() { cur.Meta.Description = incoming.Meta.Description })
	merge(&cur.Clock.RevealDeadline, incoming.Clock.RevealDeadline, func() { cur.Meta.RevealDeadline = incoming.Meta.RevealDeadline })
	merge(&cur.Clock.CommitDeadline, incoming.Clock.CommitDeadline, func() { cur.Meta.CommitDeadline = incoming.Meta.CommitDeadline })
	merge(&cur.Clock.Status, incoming.Clock.Status, func() { cur.Meta.Status = incoming.Meta.Status })
	merge(&cur.Clock.RequiresInvite, incoming.Clock.RequiresInvite, func() { cur.Meta.RequiresInvite = incoming.Meta.RequiresInvite })

	// Owner identity never changes after a pool is first announced.
	if !known {
		cur.Meta.OwnerInstance = incoming.Meta.OwnerInstance
		cur.Meta.OwnerAgreementKey = incoming.Meta.OwnerAgreementKey
	}
	if incoming.Meta.UpdatedAt.After(cur.Meta.UpdatedAt) {
		cur.Meta.UpdatedAt = incoming.Meta.UpdatedAt
	}

	if !changed && !known {
		changed = true
	}
	d.pools[incoming.Meta.PoolID] = cur
	if changed {
		d.version++
	}
	return changed
}

// ApplyLocalPoolUpdate records a purely local mutation (the owning instance
// changed its own pool) by advancing every field's clock to now and merging
// it in as if received from a peer — this is what "applies locally first,
// then is broadcast" means in practice.
func (d *Document) ApplyLocalPoolUpdate(meta types.FederatedPoolMetadata, now time.Time) types.FederatedPoolRecord {
	rec := types.FederatedPoolRecord{
		Meta: meta,
		Clock: types.FieldClock{
			Name:           now,
			Description:    now,
			RevealDeadline: now,
			CommitDeadline: now,
			Status:         now,
			RequiresInvite: now,
		},
	}
	meta.UpdatedAt = now
	rec.Meta = meta
	d.MergePool(rec)
	return rec
}

// GetPool returns the known replicated record for id, if any.
func (d *Document) GetPool(id types.PoolID) (types.FederatedPoolRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.pools[id]
	return rec, ok
}

// Pools returns every known replicated pool record.
func (d *Document) Pools() []types.FederatedPoolRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]types.FederatedPoolRecord, 0, len(d.pools))
	for _, rec := range d.pools {
		out = append(out, rec)
	}
	return out
}
