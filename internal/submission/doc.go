// Package submission implements the commit-reveal preference protocol:
// nullifier-gated submission with server-injected decoy padding, and the
// reveal step that matches caller-supplied tokens to their commitments.
package submission
