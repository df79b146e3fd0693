package tokenauth

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

// clockSkew is the tolerance on a token's expiration spec.md §6 requires:
// "verify(proof) ... tolerates 5 minutes of clock skew on expiration".
const clockSkew = 5 * time.Minute

// Issuer is a single-issuer unlinkable-token issuer/verifier. Each request
// a caller makes via RequestToken gets a freshly minted JWT with its own
// jti, so repeated requests from the same caller are unlinkable to each
// other at this layer — unlinkability of the claimant themselves is the
// caller's responsibility (not reusing a key across requests).
type Issuer struct {
	issuerID string
	signKey  []byte
	ttl      time.Duration
	clk      iface.Clock
}

var _ iface.TokenIssuerVerifier = (*Issuer)(nil)

// New constructs an Issuer identified as issuerID, signing tokens with
// signKey (HS256) and setting them to expire after ttl.
func New(issuerID string, signKey []byte, ttl time.Duration, clk iface.Clock) *Issuer {
	return &Issuer{issuerID: issuerID, signKey: signKey, ttl: ttl, clk: clk}
}

// RequestToken mints a fresh token proof scoped to scope.
func (i *Issuer) RequestToken(_ context.Context, scope string) (types.TokenProof, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return types.TokenProof{}, rverr.Wrap(rverr.CodeInternal, "generating token id", err)
	}
	now := i.clk.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    i.issuerID,
		Subject:   scope,
		ID:        jti.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signKey)
	if err != nil {
		return types.TokenProof{}, rverr.Wrap(rverr.CodeInternal, "signing token", err)
	}
	return types.TokenProof{IssuerID: i.issuerID, Raw: []byte(signed)}, nil
}

// IsExpired reports whether proof's expiration (plus clockSkew) has
// already passed, without requiring a network round trip. It is checked
// before Verify everywhere a caller has both (federation's decode,
// notably), since an expired proof never needs its signature checked.
// A proof that fails to parse is treated as expired — fail closed.
func (i *Issuer) IsExpired(proof types.TokenProof) bool {
	claims, err := unverifiedClaims(proof.Raw)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return i.clk.Now().After(claims.ExpiresAt.Time.Add(clockSkew))
}

// Verify checks proof's signature, issuer, and expiration (with clockSkew
// leeway). A verification failure is reported as (false, nil), not an
// error — only adapter-unreachable conditions (not applicable to this
// local reference implementation) would surface as an error.
func (i *Issuer) Verify(_ context.Context, proof types.TokenProof) (bool, error) {
	if proof.IssuerID != i.issuerID {
		return false, nil
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.NewParser(
		jwt.WithLeeway(clockSkew),
		jwt.WithIssuer(i.issuerID),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	).ParseWithClaims(string(proof.Raw), &claims, func(*jwt.Token) (any, error) {
		return i.signKey, nil
	})
	if err != nil {
		return false, nil
	}
	return true, nil
}

func unverifiedClaims(raw []byte) (jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(string(raw), &claims)
	if err != nil {
		return jwt.RegisteredClaims{}, fmt.Errorf("parsing token: %w", err)
	}
	return claims, nil
}
