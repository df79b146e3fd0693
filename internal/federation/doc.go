// Package federation replicates pool metadata and peer instance records
// across Rendezvous deployments over a bidirectional streaming transport,
// and relays anonymous join requests and match-token submissions between
// instances using unlinkable authorization tokens.
package federation
