package attest

import (
	"fmt"

	"github.com/flammafex/rendezvous/internal/crypto"
)

// GenerateWitnesses creates n fresh witnesses with newly generated Ed25519
// keypairs, named "witness-0".."witness-(n-1)". Convenience for wiring a
// Network at startup; production deployments would instead load each
// witness's keypair from its own operator.
func GenerateWitnesses(n int) ([]Witness, error) {
	witnesses := make([]Witness, n)
	for i := range witnesses {
		priv, pub, err := crypto.GenerateSigningKeypair()
		if err != nil {
			return nil, fmt.Errorf("generating witness %d keypair: %w", i, err)
		}
		witnesses[i] = Witness{ID: fmt.Sprintf("witness-%d", i), Priv: priv, Pub: pub}
	}
	return witnesses, nil
}
