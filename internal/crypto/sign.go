package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"strconv"
	"time"

	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

// MaxClockSkew bounds how far a signed request's timestamp may drift from
// the verifier's clock in either direction.
const MaxClockSkew = 5 * time.Minute

// signDigest folds the sepSign domain separator into message before
// signing, so a signature produced here can never be replayed as a valid
// signature for some other domain-separated protocol sharing the same key.
func signDigest(message []byte) []byte {
	h := sha256.Sum256(append([]byte(sepSign), message...))
	return h[:]
}

// Sign produces an Ed25519 signature over H(sepSign || message).
func Sign(priv types.SigningPrivate, message []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv.Slice()), signDigest(message))
}

// Verify reports whether sig is a valid Ed25519 signature over message
// under pub.
func Verify(pub types.SigningPublic, message, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub.Slice()), signDigest(message), sig)
}

// SignedRequest is a signed envelope binding an action to a pool and a
// millisecond Unix timestamp, preventing replay across actions or pools
// and bounding replay across time.
type SignedRequest struct {
	Action      string
	PoolID      types.PoolID
	TimestampMs int64
	Signature   []byte
}

// requestDigest builds the canonical "action:pool_id:timestamp" subject
// that SignedRequest signs over.
func requestDigest(action string, poolID types.PoolID, timestampMs int64) []byte {
	s := fmt.Sprintf("%s:%s:%s:%s", sepSign, action, poolID.String(), strconv.FormatInt(timestampMs, 10))
	return []byte(s)
}

// SignRequest builds and signs a SignedRequest for action against poolID,
// stamped at now.
func SignRequest(priv types.SigningPrivate, action string, poolID types.PoolID, now time.Time) SignedRequest {
	ts := now.UnixMilli()
	return SignedRequest{
		Action:      action,
		PoolID:      poolID,
		TimestampMs: ts,
		Signature:   Sign(priv, requestDigest(action, poolID, ts)),
	}
}

// VerifyRequest checks req's signature under pub and that its timestamp
// falls within MaxClockSkew of now.
func VerifyRequest(pub types.SigningPublic, req SignedRequest, now time.Time) error {
	reqTime := time.UnixMilli(req.TimestampMs)
	skew := now.Sub(reqTime)
	if skew < 0 {
		skew = -skew
	}
	if skew > MaxClockSkew {
		return rverr.New(rverr.CodeClockSkew, "request timestamp outside allowed clock skew")
	}

	digest := requestDigest(req.Action, req.PoolID, req.TimestampMs)
	if !Verify(pub, digest, req.Signature) {
		return rverr.New(rverr.CodeSignatureInvalid, "signature verification failed")
	}
	return nil
}

// VerifySignedAction is a convenience wrapper for call sites that carry the
// action, pool, timestamp, and signature as separate parameters (e.g. an
// interface method signature) rather than as an assembled SignedRequest.
func VerifySignedAction(pub types.SigningPublic, action string, poolID types.PoolID, timestampMs int64, sig []byte, now time.Time) error {
	return VerifyRequest(pub, SignedRequest{Action: action, PoolID: poolID, TimestampMs: timestampMs, Signature: sig}, now)
}
