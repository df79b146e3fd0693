package ecdhpsi

import (
	"crypto/rand"
	"math/big"

	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

// GenerateScalar returns a uniformly random scalar in [1, n-1], where n is
// the order of the P-256 base point.
func GenerateScalar() (*big.Int, error) {
	params := curve.Params()
	nMinus1 := new(big.Int).Sub(params.N, big.NewInt(1))

	k, err := rand.Int(rand.Reader, nMinus1)
	if err != nil {
		return nil, rverr.Wrap(rverr.CodeCryptoFailure, "generating PSI scalar", err)
	}
	return k.Add(k, big.NewInt(1)), nil
}

// MarshalScalar serializes a scalar to its minimal big-endian byte form.
func MarshalScalar(k *big.Int) []byte { return k.Bytes() }

// UnmarshalScalar parses a scalar previously produced by MarshalScalar.
func UnmarshalScalar(b []byte) *big.Int { return new(big.Int).SetBytes(b) }
