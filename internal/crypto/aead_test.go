package crypto_test

import (
	"bytes"
	"testing"

	"github.com/flammafex/rendezvous/internal/crypto"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	priv, pub, err := crypto.GenerateAgreementKeypair()
	if err != nil {
		t.Fatalf("GenerateAgreementKeypair: %v", err)
	}

	plaintext := []byte("server secret for owner-held PSI")
	sealed, err := crypto.SealTo(pub, plaintext)
	if err != nil {
		t.Fatalf("SealTo: %v", err)
	}

	got, err := crypto.OpenFrom(priv, sealed)
	if err != nil {
		t.Fatalf("OpenFrom: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestSealedMessageMarshal_RoundTrip(t *testing.T) {
	_, pub, err := crypto.GenerateAgreementKeypair()
	if err != nil {
		t.Fatalf("GenerateAgreementKeypair: %v", err)
	}
	sealed, err := crypto.SealTo(pub, []byte("payload"))
	if err != nil {
		t.Fatalf("SealTo: %v", err)
	}

	b, err := sealed.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded crypto.SealedMessage
	if err := decoded.Unmarshal(b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.EphemeralPublic != sealed.EphemeralPublic {
		t.Fatal("ephemeral public key did not round-trip")
	}
	if decoded.Nonce != sealed.Nonce {
		t.Fatal("nonce did not round-trip")
	}
	if !bytes.Equal(decoded.Ciphertext, sealed.Ciphertext) {
		t.Fatal("ciphertext did not round-trip")
	}
}

func TestOpenFrom_WrongKeyFails(t *testing.T) {
	_, pub, _ := crypto.GenerateAgreementKeypair()
	otherPriv, _, _ := crypto.GenerateAgreementKeypair()

	sealed, err := crypto.SealTo(pub, []byte("secret"))
	if err != nil {
		t.Fatalf("SealTo: %v", err)
	}
	if _, err := crypto.OpenFrom(otherPriv, sealed); err == nil {
		t.Fatal("expected decryption failure with wrong key")
	}
}

func TestOpenFrom_FlippedCiphertextByteFails(t *testing.T) {
	priv, pub, _ := crypto.GenerateAgreementKeypair()
	sealed, err := crypto.SealTo(pub, []byte("server secret for owner-held PSI"))
	if err != nil {
		t.Fatalf("SealTo: %v", err)
	}
	for i := range sealed.Ciphertext {
		flipped := sealed
		flipped.Ciphertext = append([]byte(nil), sealed.Ciphertext...)
		flipped.Ciphertext[i] ^= 0x01
		if _, err := crypto.OpenFrom(priv, flipped); err == nil {
			t.Fatalf("flipping ciphertext byte %d must cause decryption to fail", i)
		}
	}
}
