// Package memory implements interfaces.Store over in-process maps guarded
// by a single mutex. Used for tests and for single-instance deployments
// that don't need durability across restarts.
package memory

import (
	"context"
	"sync"

	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

var _ iface.Store = (*Store)(nil)

// Store is an in-memory, mutex-guarded implementation of interfaces.Store.
type Store struct {
	mu sync.RWMutex

	pools        map[types.PoolID]types.Pool
	participants map[participantKey]types.Participant
	preferences  map[types.PoolID][]types.Preference
	nullifiers   map[nullifierKey]struct{}
	matchResults map[types.PoolID]types.MatchResult

	psiSetups    map[types.PoolID]types.PSISetup
	psiRequests  map[[16]byte]types.PendingPSIRequest
	psiResponses map[[16]byte]types.PSIResponseRecord

	instances      map[types.InstanceID]types.InstanceRecord
	federatedPools map[types.PoolID]types.FederatedPoolMetadata
}

type participantKey struct {
	pool types.PoolID
	key  types.AgreementPublic
}

type nullifierKey struct {
	pool types.PoolID
	null types.Nullifier
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		pools:          make(map[types.PoolID]types.Pool),
		participants:   make(map[participantKey]types.Participant),
		preferences:    make(map[types.PoolID][]types.Preference),
		nullifiers:     make(map[nullifierKey]struct{}),
		matchResults:   make(map[types.PoolID]types.MatchResult),
		psiSetups:      make(map[types.PoolID]types.PSISetup),
		psiRequests:    make(map[[16]byte]types.PendingPSIRequest),
		psiResponses:   make(map[[16]byte]types.PSIResponseRecord),
		instances:      make(map[types.InstanceID]types.InstanceRecord),
		federatedPools: make(map[types.PoolID]types.FederatedPoolMetadata),
	}
}

// Close is a no-op; nothing to release.
func (s *Store) Close() error { return nil }

// --- PoolStore ---

func (s *Store) InsertPool(_ context.Context, p types.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pools[p.ID]; exists {
		return rverr.New(rverr.CodeInternal, "pool already exists")
	}
	s.pools[p.ID] = p
	return nil
}

func (s *Store) GetPool(_ context.Context, id types.PoolID) (types.Pool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[id]
	return p, ok, nil
}

func (s *Store) UpdatePool(_ context.Context, p types.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pools[p.ID]; !exists {
		return rverr.New(rverr.CodePoolNotFound, "pool not found")
	}
	s.pools[p.ID] = p
	return nil
}

func (s *Store) ListPoolsByStatus(_ context.Context, status types.PoolStatus) ([]types.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Pool
	for _, p := range s.pools {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListPoolsByCreator(_ context.Context, key types.AgreementPublic) ([]types.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Pool
	for _, p := range s.pools {
		if p.CreatorAgreementKey == key {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListAllPools(_ context.Context) ([]types.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Pool, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p)
	}
	return out, nil
}

// --- ParticipantStore ---

func (s *Store) InsertParticipant(_ context.Context, p types.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := participantKey{pool: p.PoolID, key: p.AgreementKey}
	if _, exists := s.participants[k]; exists {
		return rverr.New(rverr.CodeAlreadyRegistered, "participant already registered in pool")
	}
	s.participants[k] = p
	return nil
}

func (s *Store) GetParticipant(_ context.Context, poolID types.PoolID, key types.AgreementPublic) (types.Participant, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[participantKey{pool: poolID, key: key}]
	return p, ok, nil
}

func (s *Store) ListParticipants(_ context.Context, poolID types.PoolID) ([]types.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Participant
	for k, p := range s.participants {
		if k.pool == poolID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) DeleteParticipantsByPool(_ context.Context, poolID types.PoolID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.participants {
		if k.pool == poolID {
			delete(s.participants, k)
		}
	}
	return nil
}

// --- PreferenceStore ---

// InsertPreferences checks the (pool, nullifier) uniqueness constraint and
// writes the whole batch while holding the store's single mutex, making
// this the serialization point for concurrent submissions to the same
// nullifier.
func (s *Store) InsertPreferences(_ context.Context, poolID types.PoolID, nullifier types.Nullifier, prefs []types.Preference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nk := nullifierKey{pool: poolID, null: nullifier}
	if _, exists := s.nullifiers[nk]; exists {
		return rverr.New(rverr.CodeDuplicateNullifier, "nullifier already submitted for pool")
	}
	s.nullifiers[nk] = struct{}{}
	s.preferences[poolID] = append(s.preferences[poolID], prefs...)
	return nil
}

func (s *Store) HasNullifier(_ context.Context, poolID types.PoolID, nullifier types.Nullifier) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nullifiers[nullifierKey{pool: poolID, null: nullifier}]
	return ok, nil
}

func (s *Store) ListByNullifier(_ context.Context, poolID types.PoolID, nullifier types.Nullifier) ([]types.Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Preference
	for _, pref := range s.preferences[poolID] {
		if pref.Nullifier == nullifier {
			out = append(out, pref)
		}
	}
	return out, nil
}

func (s *Store) ListByPool(_ context.Context, poolID types.PoolID, revealedOnly bool) ([]types.Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Preference
	for _, pref := range s.preferences[poolID] {
		if revealedOnly && !pref.Revealed {
			continue
		}
		out = append(out, pref)
	}
	return out, nil
}

func (s *Store) MarkRevealed(_ context.Context, poolID types.PoolID, nullifier types.Nullifier, token types.MatchToken, encryptedReveal []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.preferences[poolID]
	for i := range list {
		if list[i].Nullifier == nullifier && list[i].Token == token {
			list[i].Revealed = true
			if encryptedReveal != nil {
				list[i].EncryptedReveal = encryptedReveal
			}
		}
	}
	return nil
}

func (s *Store) CountTokenOccurrences(_ context.Context, poolID types.PoolID) (map[types.MatchToken]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[types.MatchToken]int)
	for _, pref := range s.preferences[poolID] {
		if pref.Revealed {
			out[pref.Token]++
		}
	}
	return out, nil
}

func (s *Store) CountDistinctNullifiers(_ context.Context, poolID types.PoolID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[types.Nullifier]struct{})
	for _, pref := range s.preferences[poolID] {
		seen[pref.Nullifier] = struct{}{}
	}
	return len(seen), nil
}

func (s *Store) CountTotal(_ context.Context, poolID types.PoolID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.preferences[poolID]), nil
}

// --- MatchResultStore ---

func (s *Store) InsertMatchResult(_ context.Context, r types.MatchResult) (types.MatchResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.matchResults[r.PoolID]; ok {
		return existing, false, nil
	}
	s.matchResults[r.PoolID] = r
	return r, true, nil
}

func (s *Store) GetMatchResult(_ context.Context, poolID types.PoolID) (types.MatchResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.matchResults[poolID]
	return r, ok, nil
}

// --- PSIStore ---

func (s *Store) InsertPSISetup(_ context.Context, setup types.PSISetup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.psiSetups[setup.PoolID] = setup
	return nil
}

func (s *Store) GetPSISetup(_ context.Context, poolID types.PoolID) (types.PSISetup, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	setup, ok := s.psiSetups[poolID]
	return setup, ok, nil
}

func (s *Store) EnqueuePSIRequest(_ context.Context, r types.PendingPSIRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.psiRequests[r.ID] = r
	return nil
}

func (s *Store) GetPSIRequest(_ context.Context, id [16]byte) (types.PendingPSIRequest, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.psiRequests[id]
	return r, ok, nil
}

func (s *Store) ListPSIRequestsByStatus(_ context.Context, poolID types.PoolID, status types.PSIRequestStatus) ([]types.PendingPSIRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.PendingPSIRequest
	for _, r := range s.psiRequests {
		if r.PoolID == poolID && r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) UpdatePSIRequestStatus(_ context.Context, id [16]byte, status types.PSIRequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.psiRequests[id]
	if !ok {
		return rverr.New(rverr.CodePSIRequestNotFound, "psi request not found")
	}
	r.Status = status
	s.psiRequests[id] = r
	return nil
}

func (s *Store) InsertPSIResponse(_ context.Context, r types.PSIResponseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.psiResponses[r.RequestID] = r
	return nil
}

func (s *Store) GetPSIResponseByRequest(_ context.Context, requestID [16]byte) (types.PSIResponseRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.psiResponses[requestID]
	return r, ok, nil
}

// --- FederationStore ---

func (s *Store) UpsertInstance(_ context.Context, rec types.InstanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[rec.ID] = rec
	return nil
}

func (s *Store) GetInstance(_ context.Context, id types.InstanceID) (types.InstanceRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.instances[id]
	return rec, ok, nil
}

func (s *Store) ListInstances(_ context.Context) ([]types.InstanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.InstanceRecord, 0, len(s.instances))
	for _, rec := range s.instances {
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) UpsertFederatedPool(_ context.Context, meta types.FederatedPoolMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.federatedPools[meta.PoolID]
	if ok && !meta.UpdatedAt.After(existing.UpdatedAt) {
		return nil
	}
	s.federatedPools[meta.PoolID] = meta
	return nil
}

func (s *Store) GetFederatedPool(_ context.Context, id types.PoolID) (types.FederatedPoolMetadata, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.federatedPools[id]
	return meta, ok, nil
}

func (s *Store) ListFederatedPools(_ context.Context) ([]types.FederatedPoolMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.FederatedPoolMetadata, 0, len(s.federatedPools))
	for _, meta := range s.federatedPools {
		out = append(out, meta)
	}
	return out, nil
}
