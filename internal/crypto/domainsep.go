package crypto

// Domain separators are fixed, disjoint, ASCII, and versioned together.
// Changing any of them requires bumping ProtocolVersion; TestDomainSeparatorsGolden
// pins them against regressions.
const (
	ProtocolVersion = "rendezvous-v1"

	sepMatchToken  = "rendezvous-match-v1"
	sepNullifier   = "rendezvous-nullifier-v1"
	sepEncrypt     = "rendezvous-encrypt-v1"
	sepSign        = "rendezvous-sign-v1"
	sepContentHash = "rendezvous-v1"
)
