package submission

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/flammafex/rendezvous/internal/crypto"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

const (
	minDecoys = 3
	maxDecoys = 8
)

// decoyCount draws a count uniformly from [minDecoys, maxDecoys]. Drawn
// from crypto/rand rather than math/rand: the count itself is part of
// what an observer must not be able to predict or bias.
func decoyCount() (int, error) {
	span := big.NewInt(int64(maxDecoys - minDecoys + 1))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, rverr.Wrap(rverr.CodeCryptoFailure, "drawing decoy count", err)
	}
	return minDecoys + int(n.Int64()), nil
}

// buildDecoys returns a random number of freshly-random, unlinkable decoy
// preferences for nullifier, stored in the same phase (commit or direct)
// as the real entries in the same submission so they are indistinguishable
// at the storage layer.
func buildDecoys(poolID types.PoolID, nullifier types.Nullifier, phaseCommit bool, submittedAt time.Time) ([]types.Preference, error) {
	k, err := decoyCount()
	if err != nil {
		return nil, err
	}
	out := make([]types.Preference, 0, k)
	for i := 0; i < k; i++ {
		tok, err := crypto.RandomMatchToken()
		if err != nil {
			return nil, rverr.Wrap(rverr.CodeCryptoFailure, "generating decoy token", err)
		}
		pref := types.Preference{
			PoolID:      poolID,
			Nullifier:   nullifier,
			Token:       tok,
			Revealed:    !phaseCommit,
			SubmittedAt: submittedAt,
			Decoy:       true,
		}
		if phaseCommit {
			c := crypto.Commit(tok)
			pref.Commitment = &c
		}
		out = append(out, pref)
	}
	return out, nil
}
