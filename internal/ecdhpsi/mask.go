package ecdhpsi

import (
	"bytes"
	"math/big"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

// MaskTokens hashes each token onto the curve and scalar-multiplies it by
// scalar, returning one compressed point per token in input order. Used
// both by the owner (masking its own token set during setup) and by a
// client (masking its own token set into a request, with a scalar it
// never reveals).
func MaskTokens(tokens []types.MatchToken, scalar *big.Int) [][]byte {
	out := make([][]byte, len(tokens))
	for i, t := range tokens {
		px, py := hashToPoint(t[:])
		mx, my := curve.ScalarMult(px, py, scalar.Bytes())
		out[i] = encodePoint(mx, my)
	}
	return out
}

// ApplyScalar re-masks an already-masked set of points with a second
// scalar, exploiting scalar multiplication's commutativity. The owner
// uses this to process a client's masked request with its own secret
// (ProcessRequest); a client uses it to double-mask the owner's setup
// message with its own ephemeral scalar before comparing.
func ApplyScalar(points [][]byte, scalar *big.Int) ([][]byte, error) {
	out := make([][]byte, len(points))
	for i, p := range points {
		x, y, err := decodePoint(p)
		if err != nil {
			return nil, err
		}
		mx, my := curve.ScalarMult(x, y, scalar.Bytes())
		out[i] = encodePoint(mx, my)
	}
	return out, nil
}

// Setup is the owner-side setup step: it masks ownerTokens with a fresh
// secret scalar and returns the public setup message alongside the
// scalar, which the caller is responsible for sealing before it is ever
// persisted anywhere the server can read.
func Setup(ownerTokens []types.MatchToken) (setupMessage [][]byte, secret *big.Int, err error) {
	secret, err = GenerateScalar()
	if err != nil {
		return nil, nil, err
	}
	return MaskTokens(ownerTokens, secret), secret, nil
}

// ProcessRequest is the owner-side per-query step: double-mask a client's
// already-masked request with the owner's secret scalar.
func ProcessRequest(clientRequest [][]byte, secret *big.Int) ([][]byte, error) {
	return ApplyScalar(clientRequest, secret)
}

// Intersect compares two doubly-masked point sets (both raised to the
// product of the two parties' scalars) and returns the indices into
// candidate whose point also appears in reference.
func Intersect(candidate, reference [][]byte) []int {
	refSet := make(map[string]struct{}, len(reference))
	for _, p := range reference {
		refSet[string(p)] = struct{}{}
	}
	var matched []int
	for i, p := range candidate {
		if _, ok := refSet[string(p)]; ok {
			matched = append(matched, i)
		}
	}
	return matched
}

// Equal reports whether two compressed points are identical. Exposed for
// callers that want to compare individual points without building sets.
func Equal(a, b []byte) bool { return bytes.Equal(a, b) }
