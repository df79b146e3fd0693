package federation

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/sync/errgroup"

	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

const (
	defaultSyncInterval  = 30 * time.Second
	pingInterval         = 30 * time.Second
	joinResponseTimeout  = 30 * time.Second
	baseJitterMin        = 100 * time.Millisecond
	baseJitterMax        = 2000 * time.Millisecond
	relayJitterMin       = 5 * time.Second
	relayJitterMax       = 60 * time.Second
	relayScope           = "federation:token_relay"
	joinScope            = "federation:join_request"
)

// JoinHandler decides whether to admit an anonymous join request. It
// receives the payload still sealed to the pool owner's agreement key —
// federation itself never holds the private key needed to open it, so
// decrypting and deciding is the caller's responsibility (typically the
// facade, which has access to however the owner's private key is held).
type JoinHandler interface {
	HandleJoin(ctx context.Context, poolID types.PoolID, claimantKey types.AgreementPublic, encryptedPayload []byte) (accept bool, reason string)
}

type store interface {
	iface.FederationStore
}

// Manager replicates the CRDT document across connected peers and relays
// anonymous join requests and match-token submissions between instances.
type Manager struct {
	self      types.InstanceRecord
	doc       *Document
	store     store
	clock     iface.Clock
	transport iface.FederationTransport
	issuer    iface.TokenIssuerVerifier
	submitter iface.SubmissionManager
	joins     JoinHandler

	syncInterval time.Duration

	// SleepFunc and Jitter are overridable so relay/join timing can be
	// exercised deterministically in tests; they default to time.Sleep and
	// a crypto/rand-backed uniform draw.
	SleepFunc func(time.Duration)
	Jitter    func(min, max time.Duration) time.Duration

	mu       sync.Mutex
	peers    map[types.InstanceID]*peerConn
	pending  map[[16]byte]chan joinResponsePayload
}

type peerConn struct {
	rec        types.InstanceRecord
	send       chan<- []byte
	closeFn    func()
	retryCount int
	connected  bool
	lastPing   time.Time
}

// New constructs a federation manager for self, backed by st for instance
// and pool-metadata persistence. issuer and submitter may be nil during
// early bring-up (joins/relays simply fail until they're supplied); joins
// is nil until a JoinHandler is wired in.
func New(self types.InstanceRecord, st store, clk iface.Clock, transport iface.FederationTransport, issuer iface.TokenIssuerVerifier, submitter iface.SubmissionManager) *Manager {
	return &Manager{
		self:         self,
		doc:          NewDocument(),
		store:        st,
		clock:        clk,
		transport:    transport,
		issuer:       issuer,
		submitter:    submitter,
		syncInterval: defaultSyncInterval,
		SleepFunc:    time.Sleep,
		Jitter:       randomJitter,
		peers:        make(map[types.InstanceID]*peerConn),
		pending:      make(map[[16]byte]chan joinResponsePayload),
	}
}

// SetJoinHandler installs the callback used to decide anonymous join
// requests addressed to this instance.
func (m *Manager) SetJoinHandler(h JoinHandler) { m.joins = h }

// Close tears down every outbound peer connection this instance dialed.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.peers {
		if c.closeFn != nil {
			c.closeFn()
		}
		delete(m.peers, id)
	}
}

// Document exposes the replicated CRDT state for read access (e.g. by the
// facade, to answer "list known pools" queries).
func (m *Manager) Document() *Document { return m.doc }

// Run starts the transport's Serve loop and the periodic sync ticker, and
// blocks until ctx is cancelled or either task fails.
func (m *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.transport.Serve(ctx, func(send chan<- []byte, recv <-chan []byte) {
			m.servePeerStream(ctx, send, recv)
		})
	})
	g.Go(func() error {
		return m.syncLoop(ctx)
	})
	return g.Wait()
}

func (m *Manager) syncLoop(ctx context.Context) error {
	ticker := time.NewTicker(m.syncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.broadcastSync(ctx)
		}
	}
}

// ConnectPeer dials peer, registers the connection, and starts its read
// loop. It sends an initial sync immediately, per the handshake contract.
func (m *Manager) ConnectPeer(ctx context.Context, peer types.InstanceRecord) error {
	send, recv, closeFn, err := m.transport.Dial(ctx, peer)
	if err != nil {
		return err
	}

	conn := &peerConn{rec: peer, send: send, closeFn: closeFn, connected: true}
	m.mu.Lock()
	m.peers[peer.ID] = conn
	m.mu.Unlock()

	go m.readLoop(ctx, peer.ID, recv)
	go m.pingLoop(ctx, peer.ID)
	return m.sendTo(peer.ID, m.syncEnvelope())
}

func (m *Manager) pingLoop(ctx context.Context, peerID types.InstanceID) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			c, ok := m.peers[peerID]
			m.mu.Unlock()
			if !ok || !c.connected {
				return
			}
			env, err := m.newIdentifiedEnvelope(KindPing, struct{}{})
			if err != nil {
				continue
			}
			_ = m.sendTo(peerID, env)
		}
	}
}

func (m *Manager) servePeerStream(ctx context.Context, send chan<- []byte, recv <-chan []byte) {
	// Inbound connections are identified once their first message (a sync
	// handshake) arrives; until then the peer is anonymous to this loop.
	var peerID types.InstanceID
	var registered bool
	reply := replyFunc(send)

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-recv:
			if !ok {
				if registered {
					m.dropPeer(peerID)
				}
				return
			}
			env, sender, ok := m.decode(raw)
			if !ok {
				continue
			}
			if !registered && sender != nil {
				peerID = *sender
				registered = true
				m.mu.Lock()
				m.peers[peerID] = &peerConn{rec: types.InstanceRecord{ID: peerID}, send: send, connected: true}
				m.mu.Unlock()
			}
			m.dispatch(ctx, sender, env, reply)
		}
	}
}

func (m *Manager) readLoop(ctx context.Context, peerID types.InstanceID, recv <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-recv:
			if !ok {
				m.dropPeer(peerID)
				return
			}
			env, sender, ok := m.decode(raw)
			if !ok {
				continue
			}
			m.dispatch(ctx, sender, env, nil)
		}
	}
}

// replyFunc binds a send channel into a reply callback used for responding
// on the exact stream a message arrived on, independent of whether the
// sender is a registered, identified peer (needed for join_response, since
// the matching join_request is anonymous).
func replyFunc(send chan<- []byte) func(Envelope) {
	return func(env Envelope) {
		b, err := json.Marshal(env)
		if err != nil {
			return
		}
		select {
		case send <- b:
		default:
		}
	}
}

func (m *Manager) dropPeer(id types.InstanceID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.peers[id]; ok {
		c.connected = false
		c.retryCount++
	}
}

// decode parses and validates the identified/anonymous shape for a raw
// frame. Anonymous messages whose token fails verification are dropped
// silently by returning ok=false, per the federation message policy.
func (m *Manager) decode(raw []byte) (Envelope, *types.InstanceID, bool) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, nil, false
	}

	if env.Kind.identified() {
		if env.Sender == nil {
			return Envelope{}, nil, false
		}
		id, err := decodeInstanceID(*env.Sender)
		if err != nil {
			return Envelope{}, nil, false
		}
		return env, &id, true
	}

	if env.AuthToken == nil || m.issuer == nil {
		return Envelope{}, nil, false
	}
	proof := env.AuthToken.toDomain()
	if m.issuer.IsExpired(proof) {
		return Envelope{}, nil, false
	}
	valid, err := m.issuer.Verify(context.Background(), proof)
	if err != nil || !valid {
		return Envelope{}, nil, false
	}
	return env, nil, true
}

func (m *Manager) dispatch(ctx context.Context, sender *types.InstanceID, env Envelope, reply func(Envelope)) {
	switch env.Kind {
	case KindSync:
		m.handleSync(ctx, env)
	case KindPoolAnnounce:
		m.mergeInboundPool(ctx, env.Payload)
	case KindPoolUpdate:
		m.mergeInboundPool(ctx, env.Payload)
	case KindResultNotify:
		// Result notifications are informational; a real facade would
		// surface them to whatever is polling match status locally. This
		// layer just keeps the CRDT document's pool status current via
		// the pool_update that normally accompanies a close.
	case KindPing:
		if reply != nil {
			reply(m.pongEnvelope(env.ID))
		} else if sender != nil {
			_ = m.sendTo(*sender, m.pongEnvelope(env.ID))
		}
	case KindPong:
		m.mu.Lock()
		if sender != nil {
			if c, ok := m.peers[*sender]; ok {
				c.lastPing = m.clock.Now()
			}
		}
		m.mu.Unlock()
	case KindJoinResponse:
		m.handleJoinResponse(env)
	case KindJoinRequest:
		m.handleJoinRequest(ctx, env, reply)
	case KindTokenRelay:
		m.handleTokenRelay(ctx, env)
	}
}

func (m *Manager) handleTokenRelay(ctx context.Context, env Envelope) {
	var payload tokenRelayPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return
	}
	poolID, tokens, nullifier, err := payload.toDomain()
	if err != nil || m.submitter == nil {
		return
	}
	// A failed relay submission (closed pool, duplicate nullifier) is
	// dropped here; the CRDT sync and the submitter's own error surface
	// through the relaying instance's retry behavior, not this instance.
	_ = m.submitter.Submit(ctx, types.SubmitRequest{PoolID: poolID, Tokens: tokens, Nullifier: nullifier})
}

// RelayTokens sends a token_relay for poolID to target, or — if target is
// this instance — submits directly to the local submission manager with no
// jitter, since relays to self are a no-op over the network.
func (m *Manager) RelayTokens(ctx context.Context, target types.InstanceRecord, poolID types.PoolID, tokens []types.MatchToken, nullifier types.Nullifier) error {
	if target.ID == m.self.ID {
		if m.submitter == nil {
			return rverr.New(rverr.CodeInternal, "no local submission manager configured")
		}
		return m.submitter.Submit(ctx, types.SubmitRequest{PoolID: poolID, Tokens: tokens, Nullifier: nullifier})
	}

	m.jitterSleep(relayJitterMin, relayJitterMax)
	env, err := m.newAnonymousEnvelope(ctx, KindTokenRelay, relayScope, toTokenRelayPayload(poolID, tokens, nullifier))
	if err != nil {
		return err
	}
	return m.sendTo(target.ID, env)
}

func (m *Manager) handleSync(ctx context.Context, env Envelope) {
	var payload syncPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return
	}
	for _, iw := range payload.Instances {
		rec, err := iw.toDomain()
		if err != nil {
			continue
		}
		if m.doc.MergeInstance(rec, m.clock.Now()) {
			_ = m.store.UpsertInstance(ctx, rec)
		}
	}
	for _, pw := range payload.Pools {
		rec, err := pw.toDomain()
		if err != nil {
			continue
		}
		if m.doc.MergePool(rec) {
			_ = m.store.UpsertFederatedPool(ctx, rec.Meta)
		}
	}
}

func (m *Manager) mergeInboundPool(ctx context.Context, raw json.RawMessage) {
	var payload struct {
		Pool poolRecordWire `json:"pool"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	rec, err := payload.Pool.toDomain()
	if err != nil {
		return
	}
	if m.doc.MergePool(rec) {
		_ = m.store.UpsertFederatedPool(ctx, rec.Meta)
	}
}

// Announce applies a local pool mutation to the document and broadcasts it
// to every connected peer as pool_announce (first sight) or pool_update.
func (m *Manager) Announce(ctx context.Context, meta types.FederatedPoolMetadata, firstSight bool) error {
	rec := m.doc.ApplyLocalPoolUpdate(meta, m.clock.Now())
	if err := m.store.UpsertFederatedPool(ctx, rec.Meta); err != nil {
		return err
	}
	kind := KindPoolUpdate
	if firstSight {
		kind = KindPoolAnnounce
	}
	env, err := m.newIdentifiedEnvelope(kind, poolAnnouncePayload{Pool: toPoolRecordWire(rec)})
	if err != nil {
		return err
	}
	m.broadcast(env)
	return nil
}

func (m *Manager) broadcastSync(ctx context.Context) {
	m.broadcast(m.syncEnvelope())
}

func (m *Manager) syncEnvelope() Envelope {
	instances := m.doc.Instances()
	pools := m.doc.Pools()
	iw := make([]instanceWire, len(instances))
	for i, rec := range instances {
		iw[i] = toInstanceWire(rec)
	}
	pw := make([]poolRecordWire, len(pools))
	for i, rec := range pools {
		pw[i] = toPoolRecordWire(rec)
	}
	env, _ := m.newIdentifiedEnvelope(KindSync, syncPayload{Instances: iw, Pools: pw, Version: m.doc.Version()})
	return env
}

func (m *Manager) broadcast(env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.peers {
		if !c.connected {
			continue
		}
		select {
		case c.send <- b:
		default:
		}
	}
}

func (m *Manager) sendTo(id types.InstanceID, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	m.mu.Lock()
	c, ok := m.peers[id]
	m.mu.Unlock()
	if !ok || !c.connected {
		return rverr.New(rverr.CodeInternal, "peer not connected")
	}
	c.send <- b
	return nil
}

func (m *Manager) pongEnvelope(id [16]byte) Envelope {
	env, _ := m.newIdentifiedEnvelope(KindPong, struct{}{})
	env.ID = id
	return env
}

func (m *Manager) newIdentifiedEnvelope(kind Kind, payload any) (Envelope, error) {
	id, err := newMessageID()
	if err != nil {
		return Envelope{}, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	sender := m.self.ID.String()
	return Envelope{ID: id, Kind: kind, SentAt: m.clock.Now(), Sender: &sender, Payload: raw}, nil
}

func (m *Manager) newAnonymousEnvelope(ctx context.Context, kind Kind, scope string, payload any) (Envelope, error) {
	if m.issuer == nil {
		return Envelope{}, rverr.New(rverr.CodeInternal, "no token issuer configured")
	}
	proof, err := m.issuer.RequestToken(ctx, scope)
	if err != nil {
		return Envelope{}, rverr.Wrap(rverr.CodeTransientServiceError, "requesting auth token", err)
	}
	id, err := newMessageID()
	if err != nil {
		return Envelope{}, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{ID: id, Kind: kind, SentAt: m.clock.Now(), AuthToken: toTokenProofWire(proof), Payload: raw}, nil
}

// RequestJoin sends a join_request for poolID to target, carrying
// encryptedPayload already sealed to the pool owner's agreement key, and
// waits up to 30 seconds for the matching join_response.
func (m *Manager) RequestJoin(ctx context.Context, target types.InstanceRecord, poolID types.PoolID, claimantKey types.AgreementPublic, encryptedPayload []byte) (bool, string, error) {
	m.jitterSleep(baseJitterMin, baseJitterMax)

	env, err := m.newAnonymousEnvelope(ctx, KindJoinRequest, joinScope, joinRequestPayload{
		PoolID:           poolID.String(),
		PublicKey:        claimantKey.String(),
		EncryptedPayload: encryptedPayload,
	})
	if err != nil {
		return false, "", err
	}

	ch := make(chan joinResponsePayload, 1)
	m.mu.Lock()
	m.pending[env.ID] = ch
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.pending, env.ID)
		m.mu.Unlock()
	}()

	if err := m.sendTo(target.ID, env); err != nil {
		return false, "", err
	}

	ctx, cancel := context.WithTimeout(ctx, joinResponseTimeout)
	defer cancel()
	select {
	case resp := <-ch:
		return resp.Accepted, resp.Reason, nil
	case <-ctx.Done():
		return false, "", rverr.New(rverr.CodeTransientServiceError, "join request timed out")
	}
}

func (m *Manager) handleJoinResponse(env Envelope) {
	var payload joinResponsePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return
	}
	m.mu.Lock()
	ch, ok := m.pending[env.ID]
	m.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- payload:
	default:
	}
}

func (m *Manager) handleJoinRequest(ctx context.Context, env Envelope, reply func(Envelope)) {
	var payload joinRequestPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return
	}
	poolID, err := types.ParsePoolID(payload.PoolID)
	if err != nil {
		return
	}
	claimantKey, err := types.ParseAgreementPublic(payload.PublicKey)
	if err != nil {
		return
	}

	accepted, reason := false, "joins not supported on this instance"
	if m.joins != nil {
		accepted, reason = m.joins.HandleJoin(ctx, poolID, claimantKey, payload.EncryptedPayload)
	}

	if reply == nil {
		return
	}
	respEnv, err := m.newIdentifiedEnvelope(KindJoinResponse, joinResponsePayload{Accepted: accepted, Reason: reason})
	if err != nil {
		return
	}
	respEnv.ID = env.ID // correlates back to the requester's join_request
	reply(respEnv)
}

func newMessageID() ([16]byte, error) {
	v4, err := uuid.NewV4()
	if err != nil {
		return [16]byte{}, rverr.Wrap(rverr.CodeInternal, "generating message id", err)
	}
	return [16]byte(v4), nil
}

func (m *Manager) jitterSleep(min, max time.Duration) {
	m.SleepFunc(m.Jitter(min, max))
}

func randomJitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	span := int64(max - min)
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return min
	}
	return min + time.Duration(n.Int64())
}
