package federation

import (
	"encoding/json"

	"github.com/flammafex/rendezvous/internal/crypto"
	types "github.com/flammafex/rendezvous/internal/domain/types"
)

// JoinClaim is the {displayName, bio, optional issuance-proof} a
// participant sends when requesting to join a pool on a remote instance.
// Everything here is opaque to any intermediary; only the pool owner's
// agreement private key can open it.
type JoinClaim struct {
	DisplayName   string           `json:"display_name"`
	Bio           string           `json:"bio"`
	IssuanceProof *types.TokenProof `json:"issuance_proof,omitempty"`
}

// SealJoinClaim encrypts claim to the owner's agreement public key and
// serializes the result, ready to travel as JoinRequestPayload.EncryptedPayload.
func SealJoinClaim(ownerKey types.AgreementPublic, claim JoinClaim) ([]byte, error) {
	plaintext, err := json.Marshal(claim)
	if err != nil {
		return nil, err
	}
	sealed, err := crypto.SealTo(ownerKey, plaintext)
	if err != nil {
		return nil, err
	}
	return sealed.Marshal()
}

// OpenJoinClaim decrypts a JoinRequestPayload.EncryptedPayload using the
// owner's agreement private key. This is what a JoinHandler implementation
// calls before deciding whether to admit the claimant.
func OpenJoinClaim(ownerPrivate types.AgreementPrivate, encrypted []byte) (JoinClaim, error) {
	var sealed crypto.SealedMessage
	if err := sealed.Unmarshal(encrypted); err != nil {
		return JoinClaim{}, err
	}
	plaintext, err := crypto.OpenFrom(ownerPrivate, sealed)
	if err != nil {
		return JoinClaim{}, err
	}
	var claim JoinClaim
	if err := json.Unmarshal(plaintext, &claim); err != nil {
		return JoinClaim{}, err
	}
	return claim, nil
}
