package crypto_test

import (
	"testing"

	"github.com/flammafex/rendezvous/internal/crypto"
	types "github.com/flammafex/rendezvous/internal/domain/types"
)

func TestDeriveMatchToken_SymmetricAcrossParties(t *testing.T) {
	aPriv, aPub, err := crypto.GenerateAgreementKeypair()
	if err != nil {
		t.Fatalf("GenerateAgreementKeypair a: %v", err)
	}
	bPriv, bPub, err := crypto.GenerateAgreementKeypair()
	if err != nil {
		t.Fatalf("GenerateAgreementKeypair b: %v", err)
	}

	var poolID types.PoolID
	poolID[0] = 0xAB

	tokA, err := crypto.DeriveMatchToken(aPriv, bPub, poolID)
	if err != nil {
		t.Fatalf("DeriveMatchToken a->b: %v", err)
	}
	tokB, err := crypto.DeriveMatchToken(bPriv, aPub, poolID)
	if err != nil {
		t.Fatalf("DeriveMatchToken b->a: %v", err)
	}
	if tokA != tokB {
		t.Fatalf("tokens differ: %s vs %s", tokA, tokB)
	}
}

func TestDeriveMatchToken_DiffersAcrossPools(t *testing.T) {
	aPriv, _, _ := crypto.GenerateAgreementKeypair()
	_, bPub, _ := crypto.GenerateAgreementKeypair()

	var pool1, pool2 types.PoolID
	pool1[0] = 1
	pool2[0] = 2

	tok1, err := crypto.DeriveMatchToken(aPriv, bPub, pool1)
	if err != nil {
		t.Fatalf("DeriveMatchToken pool1: %v", err)
	}
	tok2, err := crypto.DeriveMatchToken(aPriv, bPub, pool2)
	if err != nil {
		t.Fatalf("DeriveMatchToken pool2: %v", err)
	}
	if tok1 == tok2 {
		t.Fatal("tokens must differ across pools")
	}
}

func TestDeriveNullifier_DeterministicPerParticipantAndPool(t *testing.T) {
	priv, _, _ := crypto.GenerateAgreementKeypair()
	var poolID types.PoolID
	poolID[0] = 7

	n1 := crypto.DeriveNullifier(priv, poolID)
	n2 := crypto.DeriveNullifier(priv, poolID)
	if n1 != n2 {
		t.Fatal("nullifier must be deterministic for the same secret and pool")
	}

	var otherPool types.PoolID
	otherPool[0] = 8
	n3 := crypto.DeriveNullifier(priv, otherPool)
	if n1 == n3 {
		t.Fatal("nullifier must differ across pools")
	}
}

func TestCommitVerify_RoundTrip(t *testing.T) {
	tok, err := crypto.RandomMatchToken()
	if err != nil {
		t.Fatalf("RandomMatchToken: %v", err)
	}
	commit := crypto.Commit(tok)
	if !crypto.VerifyCommitment(tok, commit) {
		t.Fatal("commitment must verify against its own token")
	}

	other, _ := crypto.RandomMatchToken()
	if crypto.VerifyCommitment(other, commit) {
		t.Fatal("commitment must not verify against an unrelated token")
	}
}
