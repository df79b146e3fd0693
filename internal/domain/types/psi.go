package types

import "time"

// PSIStructure names the data-structure variant the PSI server setup uses.
type PSIStructure string

const (
	PSIStructureBloomFilter PSIStructure = "bloom"
	PSIStructureGCS         PSIStructure = "gcs"
)

// PSISetup is the owner-held-key material for one pool's PSI deployment.
// The server secret is sealed to the owner's own agreement public key, so
// the server that stores it cannot use it.
type PSISetup struct {
	PoolID            PoolID
	SetupMessage      []byte
	SealedServerKey   []byte // crypto.SealedBox ciphertext, decryptable only by the owner
	OwnerAgreementKey AgreementPublic
	FalsePositiveRate float64
	MaxClientElements int
	Structure         PSIStructure
	CreatedAt         time.Time
}

// PSIRequestStatus is the monotone status of a queued PSI request.
type PSIRequestStatus string

const (
	PSIRequestPending    PSIRequestStatus = "pending"
	PSIRequestProcessing PSIRequestStatus = "processing"
	PSIRequestCompleted  PSIRequestStatus = "completed"
	PSIRequestExpired    PSIRequestStatus = "expired"
)

// PendingPSIRequest is a client's queued query against a pool's PSI setup.
// The server never sees the client's plaintext input set — only the
// serialized client message.
type PendingPSIRequest struct {
	ID                  [16]byte
	PoolID              PoolID
	ClientRequest       []byte
	Status              PSIRequestStatus
	CreatedAt           time.Time
	AuthTokenHash       *[32]byte
	SubmittedByInstance *InstanceID
}

// PSIResponseRecord is the owner's processed response to one request,
// expiring one hour after it's written.
type PSIResponseRecord struct {
	ID           [16]byte
	RequestID    [16]byte
	PoolID       PoolID
	SetupMessage []byte
	Response     []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}
