package match

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/flammafex/rendezvous/internal/crypto"
	types "github.com/flammafex/rendezvous/internal/domain/types"
)

type contentSubject struct {
	PoolID           string   `json:"pool_id"`
	MatchedTokens    []string `json:"matched_tokens"`
	ParticipantCount int      `json:"participant_count"`
	Version          string   `json:"version"`
}

// canonicalContentHash builds the deterministic subject
// {pool_id, sort(matchedTokens), participantCount, version} and hashes it,
// so two detect() calls over the same inputs always produce the same hash
// regardless of map iteration order.
func canonicalContentHash(poolID types.PoolID, matched []types.MatchToken, participantCount int) ([32]byte, error) {
	hexTokens := make([]string, len(matched))
	for i, t := range matched {
		hexTokens[i] = t.String()
	}
	sort.Strings(hexTokens)

	subject := contentSubject{
		PoolID:           poolID.String(),
		MatchedTokens:    hexTokens,
		ParticipantCount: participantCount,
		Version:          crypto.ProtocolVersion,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(subject); err != nil {
		return [32]byte{}, err
	}
	return crypto.ContentHash(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
