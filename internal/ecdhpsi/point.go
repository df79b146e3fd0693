package ecdhpsi

import (
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

const pointDomainSeparator = "rendezvous-psi-v1"

// compressedPointLen is the byte length of a P-256 point in compressed
// form (1-byte tag + 32-byte x-coordinate).
const compressedPointLen = 33

var curve = elliptic.P256()

// hashToPoint hashes id onto a point on the curve by try-and-increment:
// hash id with an incrementing counter until the resulting x-coordinate
// yields a valid y.
func hashToPoint(id []byte) (*big.Int, *big.Int) {
	params := curve.Params()

	for counter := uint32(0); counter < 1000; counter++ {
		h := sha256.New()
		h.Write([]byte(pointDomainSeparator))
		h.Write(id)
		var counterBytes [4]byte
		binary.BigEndian.PutUint32(counterBytes[:], counter)
		h.Write(counterBytes[:])

		x := new(big.Int).SetBytes(h.Sum(nil))
		x.Mod(x, params.P)

		x3 := new(big.Int).Mul(x, x)
		x3.Mul(x3, x)
		x3.Mod(x3, params.P)

		threeX := new(big.Int).Mul(big.NewInt(3), x)
		threeX.Mod(threeX, params.P)

		ySquared := new(big.Int).Sub(x3, threeX)
		ySquared.Add(ySquared, params.B)
		ySquared.Mod(ySquared, params.P)

		y := new(big.Int).ModSqrt(ySquared, params.P)
		if y != nil && curve.IsOnCurve(x, y) {
			if y.Bit(0) != 0 {
				y.Sub(params.P, y)
			}
			return x, y
		}
	}
	// Astronomically unlikely for a uniformly distributed hash output.
	panic("ecdhpsi: hashToPoint exhausted counter space")
}

func encodePoint(x, y *big.Int) []byte {
	return elliptic.MarshalCompressed(curve, x, y)
}

func decodePoint(b []byte) (*big.Int, *big.Int, error) {
	x, y := elliptic.UnmarshalCompressed(curve, b)
	if x == nil {
		return nil, nil, rverr.New(rverr.CodeCryptoFailure, "invalid compressed P-256 point")
	}
	return x, y, nil
}

// EncodePoints concatenates points (already in compressed form) into a
// single wire-format blob suitable for PSISetup.SetupMessage,
// PendingPSIRequest.ClientRequest, or PSIResponseRecord.Response.
func EncodePoints(points [][]byte) []byte {
	out := make([]byte, 0, len(points)*compressedPointLen)
	for _, p := range points {
		out = append(out, p...)
	}
	return out
}

// DecodePoints splits a wire-format blob produced by EncodePoints back
// into individual compressed points.
func DecodePoints(blob []byte) ([][]byte, error) {
	if len(blob)%compressedPointLen != 0 {
		return nil, rverr.New(rverr.CodeInvalidInput, "point blob length is not a multiple of the compressed point size")
	}
	n := len(blob) / compressedPointLen
	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		out[i] = blob[i*compressedPointLen : (i+1)*compressedPointLen]
	}
	return out, nil
}
