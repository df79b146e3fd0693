package attest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/flammafex/rendezvous/internal/crypto"
	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

const sepAttest = "rendezvous-attest-v1"

// Witness is one signer in the attestation network. In the real world
// each witness runs in its own process holding only its own private key;
// here they're collocated for a self-contained local reference
// implementation, the same simplification an in-memory store makes for
// a durable backend.
type Witness struct {
	ID   string
	Priv types.SigningPrivate
	Pub  types.SigningPublic
}

// Network is a fixed set of witnesses that co-sign every attested hash.
// Attest always collects every witness's signature; Verify accepts an
// attestation once at least Threshold of the configured witnesses'
// signatures check out.
type Network struct {
	networkID string
	witnesses []Witness
	threshold int
	clk       iface.Clock
	seq       atomic.Uint64
}

var _ iface.AttestationAdapter = (*Network)(nil)

// New constructs a Network identified as networkID, requiring at least
// threshold of witnesses to agree for Verify to accept an attestation.
func New(networkID string, witnesses []Witness, threshold int, clk iface.Clock) *Network {
	if threshold <= 0 || threshold > len(witnesses) {
		threshold = len(witnesses)
	}
	return &Network{networkID: networkID, witnesses: witnesses, threshold: threshold, clk: clk}
}

// Attest produces a multi-witness attestation over hash. proof, when
// present, identifies the unlinkable-token scope the caller presented to
// request this attestation; this reference implementation does not
// itself verify it (that's the eligibility gate's job upstream) — it is
// accepted here only so the interface shape matches callers that always
// have one in hand.
func (n *Network) Attest(_ context.Context, hash [32]byte, _ *types.TokenProof) (types.Attestation, error) {
	if len(n.witnesses) == 0 {
		return types.Attestation{}, rverr.New(rverr.CodeInternal, "no witnesses configured")
	}
	seq := n.seq.Add(1)
	timestamp := n.clk.Now().Unix()
	digest := attestDigest(hash, timestamp, n.networkID, seq)

	sigs := make([]types.WitnessSignature, len(n.witnesses))
	for i, w := range n.witnesses {
		sigs[i] = types.WitnessSignature{WitnessID: w.ID, Signature: crypto.Sign(w.Priv, digest)}
	}

	return types.Attestation{
		Hash:          hash,
		TimestampUnix: timestamp,
		NetworkID:     n.networkID,
		Sequence:      seq,
		Witnesses:     sigs,
	}, nil
}

// Verify reports whether att is a valid attestation of originalHash: the
// recorded hash must match, and at least Threshold witnesses' signatures
// over the reconstructed digest must check out against this network's
// known public keys.
func (n *Network) Verify(_ context.Context, att types.Attestation, originalHash [32]byte) (bool, error) {
	if att.Hash != originalHash || att.NetworkID != n.networkID {
		return false, nil
	}
	digest := attestDigest(att.Hash, att.TimestampUnix, att.NetworkID, att.Sequence)

	pubByID := make(map[string]types.SigningPublic, len(n.witnesses))
	for _, w := range n.witnesses {
		pubByID[w.ID] = w.Pub
	}

	valid := 0
	for _, sig := range att.Witnesses {
		pub, ok := pubByID[sig.WitnessID]
		if !ok {
			continue
		}
		if crypto.Verify(pub, digest, sig.Signature) {
			valid++
		}
	}
	return valid >= n.threshold, nil
}

func attestDigest(hash [32]byte, timestamp int64, networkID string, sequence uint64) []byte {
	return []byte(fmt.Sprintf("%s:%x:%d:%s:%d", sepAttest, hash, timestamp, networkID, sequence))
}
