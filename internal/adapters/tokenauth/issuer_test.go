package tokenauth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flammafex/rendezvous/internal/adapters/tokenauth"
	"github.com/flammafex/rendezvous/internal/clock"
	types "github.com/flammafex/rendezvous/internal/domain/types"
)

func TestRequestToken_VerifiesAndRoundTrips(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	issuer := tokenauth.New("issuer-a", []byte("signing-key"), time.Hour, clock.Fixed{At: now})

	proof, err := issuer.RequestToken(context.Background(), "registration")
	require.NoError(t, err)
	require.Equal(t, "issuer-a", proof.IssuerID)

	require.False(t, issuer.IsExpired(proof))

	ok, err := issuer.Verify(context.Background(), proof)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerify_RejectsWrongKey(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	issuer := tokenauth.New("issuer-a", []byte("signing-key"), time.Hour, clock.Fixed{At: now})
	other := tokenauth.New("issuer-a", []byte("different-key"), time.Hour, clock.Fixed{At: now})

	proof, err := issuer.RequestToken(context.Background(), "registration")
	require.NoError(t, err)

	ok, err := other.Verify(context.Background(), proof)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerify_RejectsIssuerMismatch(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	issuerA := tokenauth.New("issuer-a", []byte("signing-key"), time.Hour, clock.Fixed{At: now})
	issuerB := tokenauth.New("issuer-b", []byte("signing-key"), time.Hour, clock.Fixed{At: now})

	proof, err := issuerA.RequestToken(context.Background(), "registration")
	require.NoError(t, err)

	ok, err := issuerB.Verify(context.Background(), proof)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIsExpired_TrueAfterTTLPlusSkew(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	fixed := &mutableClock{at: start}
	issuer := tokenauth.New("issuer-a", []byte("signing-key"), time.Minute, fixed)

	proof, err := issuer.RequestToken(context.Background(), "registration")
	require.NoError(t, err)
	require.False(t, issuer.IsExpired(proof))

	// Within the 5-minute skew window past expiry, still accepted.
	fixed.at = start.Add(time.Minute + 2*time.Minute)
	require.False(t, issuer.IsExpired(proof))
	ok, err := issuer.Verify(context.Background(), proof)
	require.NoError(t, err)
	require.True(t, ok)

	// Past the skew window, expired.
	fixed.at = start.Add(time.Minute + 6*time.Minute)
	require.True(t, issuer.IsExpired(proof))
}

func TestIsExpired_MalformedProofFailsClosed(t *testing.T) {
	issuer := tokenauth.New("issuer-a", []byte("signing-key"), time.Hour, clock.Fixed{At: time.Unix(0, 0)})
	malformed := types.TokenProof{IssuerID: "issuer-a", Raw: []byte("not-a-jwt")}
	require.True(t, issuer.IsExpired(malformed))
}

type mutableClock struct{ at time.Time }

func (c *mutableClock) Now() time.Time { return c.at }
