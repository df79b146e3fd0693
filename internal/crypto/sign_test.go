package crypto_test

import (
	"testing"
	"time"

	"github.com/flammafex/rendezvous/internal/crypto"
	types "github.com/flammafex/rendezvous/internal/domain/types"
)

func TestSignVerifyRequest_OK(t *testing.T) {
	priv, pub, err := crypto.GenerateSigningKeypair()
	if err != nil {
		t.Fatalf("GenerateSigningKeypair: %v", err)
	}

	var poolID types.PoolID
	poolID[0] = 9
	now := time.Unix(1700000000, 0)

	req := crypto.SignRequest(priv, "submit", poolID, now)
	if err := crypto.VerifyRequest(pub, req, now); err != nil {
		t.Fatalf("VerifyRequest: %v", err)
	}
}

func TestVerifyRequest_RejectsStaleTimestamp(t *testing.T) {
	priv, pub, _ := crypto.GenerateSigningKeypair()
	var poolID types.PoolID
	signedAt := time.Unix(1700000000, 0)

	req := crypto.SignRequest(priv, "submit", poolID, signedAt)
	verifyAt := signedAt.Add(crypto.MaxClockSkew + time.Minute)
	if err := crypto.VerifyRequest(pub, req, verifyAt); err == nil {
		t.Fatal("expected clock skew rejection")
	}
}

func TestVerifyRequest_RejectsTamperedAction(t *testing.T) {
	priv, pub, _ := crypto.GenerateSigningKeypair()
	var poolID types.PoolID
	now := time.Unix(1700000000, 0)

	req := crypto.SignRequest(priv, "submit", poolID, now)
	req.Action = "reveal"
	if err := crypto.VerifyRequest(pub, req, now); err == nil {
		t.Fatal("expected signature mismatch after action tampering")
	}
}

func TestVerifySignedAction_MatchesSignRequest(t *testing.T) {
	priv, pub, _ := crypto.GenerateSigningKeypair()
	var poolID types.PoolID
	poolID[0] = 5
	now := time.Unix(1700000000, 0)

	req := crypto.SignRequest(priv, "close", poolID, now)
	if err := crypto.VerifySignedAction(pub, "close", poolID, req.TimestampMs, req.Signature, now); err != nil {
		t.Fatalf("VerifySignedAction: %v", err)
	}
}
