package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"golang.org/x/crypto/curve25519"

	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

// GenerateAgreementKeypair returns a uniformly random X25519 scalar and its
// derived public key.
func GenerateAgreementKeypair() (types.AgreementPrivate, types.AgreementPublic, error) {
	var priv types.AgreementPrivate
	if _, err := rand.Read(priv[:]); err != nil {
		return priv, types.AgreementPublic{}, err
	}
	clamp(priv[:])

	pub, err := publicFromPrivate(priv)
	if err != nil {
		return priv, types.AgreementPublic{}, err
	}
	return priv, pub, nil
}

func publicFromPrivate(priv types.AgreementPrivate) (types.AgreementPublic, error) {
	out, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	var pub types.AgreementPublic
	if err != nil {
		return pub, err
	}
	copy(pub[:], out)
	return pub, nil
}

func clamp(priv []byte) {
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64
}

// GenerateSigningKeypair returns a new Ed25519 signing key pair.
func GenerateSigningKeypair() (types.SigningPrivate, types.SigningPublic, error) {
	var priv types.SigningPrivate
	var pub types.SigningPublic

	pk, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return priv, pub, err
	}
	copy(priv[:], sk)
	copy(pub[:], pk)
	return priv, pub, nil
}

// ParseAgreementPublic validates and decodes a 32-byte agreement public
// key from raw bytes, rejecting anything of the wrong length.
func ParseAgreementPublic(raw []byte) (types.AgreementPublic, error) {
	var k types.AgreementPublic
	if len(raw) != len(k) {
		return k, rverr.New(rverr.CodeInvalidPublicKey, "agreement public key must be 32 bytes")
	}
	copy(k[:], raw)
	return k, nil
}

// ParseAgreementPrivate validates and decodes a 32-byte agreement private
// scalar.
func ParseAgreementPrivate(raw []byte) (types.AgreementPrivate, error) {
	var k types.AgreementPrivate
	if len(raw) != len(k) {
		return k, rverr.New(rverr.CodeInvalidPrivateKey, "agreement private key must be 32 bytes")
	}
	copy(k[:], raw)
	return k, nil
}

// ParseMatchToken validates and decodes a 32-byte match token.
func ParseMatchToken(raw []byte) (types.MatchToken, error) {
	var t types.MatchToken
	if len(raw) != len(t) {
		return t, rverr.New(rverr.CodeInvalidInput, "match token must be 32 bytes")
	}
	copy(t[:], raw)
	return t, nil
}

// RandomMatchToken returns a uniformly random 32-byte token, used for decoy
// padding.
func RandomMatchToken() (types.MatchToken, error) {
	var t types.MatchToken
	_, err := rand.Read(t[:])
	return t, err
}
