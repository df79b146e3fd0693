package federation

import (
	"encoding/hex"
	"encoding/json"
	"time"

	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

// Kind names a federation message shape. Identified kinds carry Sender;
// anonymous kinds carry AuthToken instead and MUST be dropped silently on
// verification failure.
type Kind string

const (
	KindSync         Kind = "sync"
	KindPoolAnnounce Kind = "pool_announce"
	KindPoolUpdate   Kind = "pool_update"
	KindResultNotify Kind = "result_notify"
	KindPing         Kind = "ping"
	KindPong         Kind = "pong"
	KindJoinResponse Kind = "join_response"
	KindTokenRelay   Kind = "token_relay"
	KindJoinRequest  Kind = "join_request"
)

func (k Kind) identified() bool {
	switch k {
	case KindSync, KindPoolAnnounce, KindPoolUpdate, KindResultNotify, KindPing, KindPong, KindJoinResponse:
		return true
	default:
		return false
	}
}

// Envelope is the outer shape of every federation message. Exactly one of
// Sender (identified) or AuthToken (anonymous) is populated, matching Kind.
type Envelope struct {
	ID        [16]byte        `json:"id"`
	Kind      Kind            `json:"kind"`
	SentAt    time.Time       `json:"sent_at"`
	Sender    *string         `json:"sender,omitempty"`
	AuthToken *tokenProofWire `json:"auth_token,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type tokenProofWire struct {
	IssuerID string `json:"issuer_id"`
	Raw      []byte `json:"raw"`
}

func toTokenProofWire(p types.TokenProof) *tokenProofWire {
	return &tokenProofWire{IssuerID: p.IssuerID, Raw: p.Raw}
}

func (w *tokenProofWire) toDomain() types.TokenProof {
	if w == nil {
		return types.TokenProof{}
	}
	return types.TokenProof{IssuerID: w.IssuerID, Raw: w.Raw}
}

// instanceWire is the JSON-friendly form of types.InstanceRecord: key
// material travels as hex text instead of raw byte arrays.
type instanceWire struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Endpoint  string `json:"endpoint"`
	PublicKey string `json:"public_key"`
}

func toInstanceWire(rec types.InstanceRecord) instanceWire {
	return instanceWire{
		ID:        rec.ID.String(),
		Name:      rec.Name,
		Endpoint:  rec.Endpoint,
		PublicKey: rec.PublicKey.String(),
	}
}

func (w instanceWire) toDomain() (types.InstanceRecord, error) {
	id, err := decodeInstanceID(w.ID)
	if err != nil {
		return types.InstanceRecord{}, err
	}
	pub, err := types.ParseAgreementPublic(w.PublicKey)
	if err != nil {
		return types.InstanceRecord{}, err
	}
	return types.InstanceRecord{ID: id, Name: w.Name, Endpoint: w.Endpoint, PublicKey: pub}, nil
}

// poolRecordWire is the wire form of types.FederatedPoolRecord.
type poolRecordWire struct {
	PoolID            string          `json:"pool_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	RevealDeadline    time.Time       `json:"reveal_deadline"`
	CommitDeadline    *time.Time      `json:"commit_deadline,omitempty"`
	Status            types.PoolStatus `json:"status"`
	OwnerInstance     string          `json:"owner_instance"`
	OwnerAgreementKey string          `json:"owner_agreement_key"`
	RequiresInvite    bool            `json:"requires_invite"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Clock             types.FieldClock `json:"clock"`
}

func toPoolRecordWire(rec types.FederatedPoolRecord) poolRecordWire {
	return poolRecordWire{
		PoolID:            rec.Meta.PoolID.String(),
		Name:              rec.Meta.Name,
		Description:       rec.Meta.Description,
		RevealDeadline:    rec.Meta.RevealDeadline,
		CommitDeadline:    rec.Meta.CommitDeadline,
		Status:            rec.Meta.Status,
		OwnerInstance:     rec.Meta.OwnerInstance.String(),
		OwnerAgreementKey: rec.Meta.OwnerAgreementKey.String(),
		RequiresInvite:    rec.Meta.RequiresInvite,
		UpdatedAt:         rec.Meta.UpdatedAt,
		Clock:             rec.Clock,
	}
}

func (w poolRecordWire) toDomain() (types.FederatedPoolRecord, error) {
	poolID, err := types.ParsePoolID(w.PoolID)
	if err != nil {
		return types.FederatedPoolRecord{}, err
	}
	ownerInstance, err := decodeInstanceID(w.OwnerInstance)
	if err != nil {
		return types.FederatedPoolRecord{}, err
	}
	ownerKey, err := types.ParseAgreementPublic(w.OwnerAgreementKey)
	if err != nil {
		return types.FederatedPoolRecord{}, err
	}
	return types.FederatedPoolRecord{
		Meta: types.FederatedPoolMetadata{
			PoolID:            poolID,
			Name:              w.Name,
			Description:       w.Description,
			RevealDeadline:    w.RevealDeadline,
			CommitDeadline:    w.CommitDeadline,
			Status:            w.Status,
			OwnerInstance:     ownerInstance,
			OwnerAgreementKey: ownerKey,
			RequiresInvite:    w.RequiresInvite,
			UpdatedAt:         w.UpdatedAt,
		},
		Clock: w.Clock,
	}, nil
}

func decodeInstanceID(s string) (types.InstanceID, error) {
	var id types.InstanceID
	if s == "" {
		return id, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(id) {
		return id, rverr.New(rverr.CodeInvalidInput, "malformed instance id")
	}
	copy(id[:], b)
	return id, nil
}

type syncPayload struct {
	Instances []instanceWire   `json:"instances"`
	Pools     []poolRecordWire `json:"pools"`
	Version   uint64           `json:"version"`
}

type poolAnnouncePayload struct {
	Pool poolRecordWire `json:"pool"`
}

type poolUpdatePayload struct {
	Pool poolRecordWire `json:"pool"`
}

type resultNotifyPayload struct {
	PoolID           string `json:"pool_id"`
	ContentHash      string `json:"content_hash"`
	ParticipantCount int    `json:"participant_count"`
}

type joinRequestPayload struct {
	PoolID           string `json:"pool_id"`
	PublicKey        string `json:"public_key"`
	EncryptedPayload []byte `json:"encrypted_payload"`
}

type joinResponsePayload struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type tokenRelayPayload struct {
	PoolID      string   `json:"pool_id"`
	MatchTokens []string `json:"match_tokens"`
	Nullifier   string   `json:"nullifier"`
}

func toTokenRelayPayload(poolID types.PoolID, tokens []types.MatchToken, nullifier types.Nullifier) tokenRelayPayload {
	hexTokens := make([]string, len(tokens))
	for i, t := range tokens {
		hexTokens[i] = t.String()
	}
	return tokenRelayPayload{PoolID: poolID.String(), MatchTokens: hexTokens, Nullifier: nullifier.String()}
}

func (p tokenRelayPayload) toDomain() (types.PoolID, []types.MatchToken, types.Nullifier, error) {
	poolID, err := types.ParsePoolID(p.PoolID)
	if err != nil {
		return types.PoolID{}, nil, types.Nullifier{}, err
	}
	nullifierBytes, err := hex.DecodeString(p.Nullifier)
	if err != nil || len(nullifierBytes) != 32 {
		return types.PoolID{}, nil, types.Nullifier{}, rverr.New(rverr.CodeInvalidInput, "malformed nullifier")
	}
	var nullifier types.Nullifier
	copy(nullifier[:], nullifierBytes)

	tokens := make([]types.MatchToken, len(p.MatchTokens))
	for i, s := range p.MatchTokens {
		t, err := types.ParseMatchToken(s)
		if err != nil {
			return types.PoolID{}, nil, types.Nullifier{}, err
		}
		tokens[i] = t
	}
	return poolID, tokens, nullifier, nil
}
