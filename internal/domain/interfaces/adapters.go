package interfaces

import (
	"context"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

// TokenIssuerVerifier is the unlinkable-token issuer/verifier adapter. The
// core depends only on this interface; the real issuer and verifier live
// outside the core.
type TokenIssuerVerifier interface {
	Verify(ctx context.Context, proof types.TokenProof) (bool, error)
	IsExpired(proof types.TokenProof) bool
	RequestToken(ctx context.Context, scope string) (types.TokenProof, error)
}

// AttestationAdapter is the timestamp-attestation adapter.
type AttestationAdapter interface {
	Attest(ctx context.Context, hash [32]byte, proof *types.TokenProof) (types.Attestation, error)
	Verify(ctx context.Context, att types.Attestation, originalHash [32]byte) (bool, error)
}

// FederationTransport is the bidirectional peer-to-peer message stream,
// abstracted from its grpc implementation so the federation manager can be
// tested without a network.
type FederationTransport interface {
	// Dial opens a bidirectional stream to peer and returns send/receive
	// channels plus a close function. The stream carries opaque framed
	// messages; the federation manager owns their structure.
	Dial(ctx context.Context, peer types.InstanceRecord) (send chan<- []byte, recv <-chan []byte, closeFn func(), err error)

	// Serve starts accepting inbound peer streams, delivering each
	// connection's send/receive channels to handler.
	Serve(ctx context.Context, handler func(send chan<- []byte, recv <-chan []byte)) error
}
