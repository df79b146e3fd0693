package facade

import (
	"context"

	types "github.com/flammafex/rendezvous/internal/domain/types"
	"github.com/flammafex/rendezvous/internal/federation"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

var _ federation.JoinHandler = (*Facade)(nil)

// HandleJoin opens a sealed join claim addressed to a pool this instance
// owns and, if the claimant is eligible, registers them as a participant.
// A pool this instance doesn't hold the owner key for is never open to
// federated joins; the request is rejected rather than relayed further,
// since federation.Manager has no notion of forwarding a join request
// past its immediate target.
func (f *Facade) HandleJoin(ctx context.Context, poolID types.PoolID, claimantKey types.AgreementPublic, encryptedPayload []byte) (bool, string) {
	ownerKey, ok := f.ownerKey(poolID)
	if !ok {
		return false, "pool not hosted or not open to federated joins on this instance"
	}

	claim, err := federation.OpenJoinClaim(ownerKey, encryptedPayload)
	if err != nil {
		return false, "could not decrypt join claim"
	}

	err = f.RegisterParticipant(ctx, types.Participant{
		PoolID:       poolID,
		AgreementKey: claimantKey,
		DisplayName:  claim.DisplayName,
		Bio:          claim.Bio,
	}, claim.IssuanceProof)
	if err != nil {
		return false, string(rverr.CodeOf(err))
	}
	return true, ""
}
