package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

// SealedMessage is the wire form of a message encrypted to a recipient's
// agreement public key: an ephemeral public key plus a ChaCha20-Poly1305
// ciphertext. Used to seal the PSI server secret to the pool owner and to
// seal federation join-request material to the unlocking instance.
type SealedMessage struct {
	EphemeralPublic types.AgreementPublic
	Nonce           [chacha20poly1305.NonceSize]byte
	Ciphertext      []byte
}

// Marshal serializes msg as EphemeralPublic ‖ Nonce ‖ Ciphertext, in that
// fixed-then-variable order, so it can be stored as an opaque byte string
// (PSISetup.SealedServerKey, federation join payloads).
func (msg SealedMessage) Marshal() ([]byte, error) {
	out := make([]byte, 0, len(msg.EphemeralPublic)+len(msg.Nonce)+len(msg.Ciphertext))
	out = append(out, msg.EphemeralPublic[:]...)
	out = append(out, msg.Nonce[:]...)
	out = append(out, msg.Ciphertext...)
	return out, nil
}

// Unmarshal parses a byte string produced by Marshal.
func (msg *SealedMessage) Unmarshal(b []byte) error {
	minLen := len(msg.EphemeralPublic) + len(msg.Nonce)
	if len(b) < minLen {
		return rverr.New(rverr.CodeInvalidInput, "sealed message too short")
	}
	copy(msg.EphemeralPublic[:], b[:32])
	copy(msg.Nonce[:], b[32:minLen])
	msg.Ciphertext = append([]byte(nil), b[minLen:]...)
	return nil
}

// SealTo encrypts plaintext to recipientPublic using an ephemeral X25519
// key pair. The shared secret is run through HKDF-SHA256 with sepEncrypt
// as info to derive the ChaCha20-Poly1305 key; the ephemeral public key
// doubles as the AEAD's associated data so a ciphertext cannot be replayed
// against a different ephemeral key.
func SealTo(recipientPublic types.AgreementPublic, plaintext []byte) (SealedMessage, error) {
	var out SealedMessage

	ephPriv, ephPub, err := GenerateAgreementKeypair()
	if err != nil {
		return out, err
	}
	defer Zero(ephPriv[:])

	shared, err := curve25519.X25519(ephPriv.Slice(), recipientPublic.Slice())
	if err != nil {
		return out, rverr.Wrap(rverr.CodeCryptoFailure, "ecdh failed", err)
	}
	defer Zero(shared)

	key, err := deriveAEADKey(shared, ephPub.Slice())
	if err != nil {
		return out, err
	}
	defer Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return out, rverr.Wrap(rverr.CodeCryptoFailure, "aead init failed", err)
	}

	out.EphemeralPublic = ephPub
	if _, err := io.ReadFull(rand.Reader, out.Nonce[:]); err != nil {
		return out, err
	}
	out.Ciphertext = aead.Seal(nil, out.Nonce[:], plaintext, ephPub.Slice())
	return out, nil
}

// OpenFrom decrypts a SealedMessage using the recipient's private key.
func OpenFrom(recipientPrivate types.AgreementPrivate, msg SealedMessage) ([]byte, error) {
	shared, err := curve25519.X25519(recipientPrivate.Slice(), msg.EphemeralPublic.Slice())
	if err != nil {
		return nil, rverr.Wrap(rverr.CodeCryptoFailure, "ecdh failed", err)
	}
	defer Zero(shared)

	key, err := deriveAEADKey(shared, msg.EphemeralPublic.Slice())
	if err != nil {
		return nil, err
	}
	defer Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, rverr.Wrap(rverr.CodeCryptoFailure, "aead init failed", err)
	}

	plaintext, err := aead.Open(nil, msg.Nonce[:], msg.Ciphertext, msg.EphemeralPublic.Slice())
	if err != nil {
		return nil, rverr.Wrap(rverr.CodeDecryptionFailed, "open failed", err)
	}
	return plaintext, nil
}

func deriveAEADKey(shared, ephPub []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, shared, ephPub, []byte(sepEncrypt))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, rverr.Wrap(rverr.CodeCryptoFailure, "hkdf expand failed", err)
	}
	return key, nil
}
