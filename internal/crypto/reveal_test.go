package crypto_test

import (
	"bytes"
	"testing"

	"github.com/flammafex/rendezvous/internal/crypto"
)

func TestSealOpenReveal_RoundTrip(t *testing.T) {
	tok, err := crypto.RandomMatchToken()
	if err != nil {
		t.Fatalf("RandomMatchToken: %v", err)
	}

	plaintext := []byte("hello, match")
	ciphertext, err := crypto.SealReveal(tok, plaintext)
	if err != nil {
		t.Fatalf("SealReveal: %v", err)
	}

	got, err := crypto.OpenReveal(tok, ciphertext)
	if err != nil {
		t.Fatalf("OpenReveal: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestOpenReveal_WrongTokenFails(t *testing.T) {
	tok, _ := crypto.RandomMatchToken()
	other, _ := crypto.RandomMatchToken()

	ciphertext, err := crypto.SealReveal(tok, []byte("payload"))
	if err != nil {
		t.Fatalf("SealReveal: %v", err)
	}
	if _, err := crypto.OpenReveal(other, ciphertext); err == nil {
		t.Fatal("expected decryption failure under wrong token")
	}
}
