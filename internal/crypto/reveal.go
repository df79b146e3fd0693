package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

// SealReveal encrypts plaintext directly under the 32-byte match token
// using AES-256-GCM. Only the two participants who independently derive
// the same token can decrypt it; the server stores the ciphertext without
// ever learning the token itself unless the pool is closed and tokens are
// later disclosed for discovery.
func SealReveal(token types.MatchToken, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(token[:])
	if err != nil {
		return nil, rverr.Wrap(rverr.CodeCryptoFailure, "aes init failed", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, rverr.Wrap(rverr.CodeCryptoFailure, "gcm init failed", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// OpenReveal decrypts a SealReveal ciphertext given the match token.
func OpenReveal(token types.MatchToken, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(token[:])
	if err != nil {
		return nil, rverr.Wrap(rverr.CodeCryptoFailure, "aes init failed", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, rverr.Wrap(rverr.CodeCryptoFailure, "gcm init failed", err)
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, rverr.New(rverr.CodeDecryptionFailed, "ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, rverr.Wrap(rverr.CodeDecryptionFailed, "open failed", err)
	}
	return plaintext, nil
}
