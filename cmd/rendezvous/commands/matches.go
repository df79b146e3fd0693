package commands

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

func matchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matches [pool-id]",
		Short: "Detect (if needed) and print a pool's match result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParsePoolID(args[0])
			if err != nil {
				return err
			}
			result, err := rt.Facade.DetectMatches(ctx, id)
			if err != nil {
				return err
			}
			printMatchResult(result)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [pool-id]",
		Short: "Export a pool's match result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParsePoolID(args[0])
			if err != nil {
				return err
			}
			result, ok, err := rt.Facade.MatchResult(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				result, err = rt.Facade.DetectMatches(ctx, id)
				if err != nil {
					return err
				}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(toExportableResult(result))
		},
	}
}

// exportableResult re-renders a MatchResult with hex-encoded byte fields,
// since the wire types carry fixed-size arrays json.Marshal would
// otherwise emit as base64.
type exportableResult struct {
	PoolID           string    `json:"pool_id"`
	MatchedTokens    []string  `json:"matched_tokens"`
	TotalSubmissions int       `json:"total_submissions"`
	ParticipantCount int       `json:"participant_count"`
	DetectedAt       time.Time `json:"detected_at"`
	AttestationHash  string    `json:"attestation_hash,omitempty"`
}

func toExportableResult(r types.MatchResult) exportableResult {
	tokens := make([]string, len(r.MatchedTokens))
	for i, t := range r.MatchedTokens {
		tokens[i] = t.String()
	}
	out := exportableResult{
		PoolID:           r.PoolID.String(),
		MatchedTokens:    tokens,
		TotalSubmissions: r.TotalSubmissions,
		ParticipantCount: r.ParticipantCount,
		DetectedAt:       r.DetectedAt,
	}
	if r.Attestation != nil {
		out.AttestationHash = hex.EncodeToString(r.Attestation.Hash[:])
	}
	return out
}

func printMatchResult(r types.MatchResult) {
	fmt.Printf("pool:              %s\n", r.PoolID.String())
	fmt.Printf("total submissions: %d\n", r.TotalSubmissions)
	fmt.Printf("participants:      %d\n", r.ParticipantCount)
	fmt.Printf("matched tokens:    %d\n", len(r.MatchedTokens))
	for _, t := range r.MatchedTokens {
		fmt.Printf("  %s\n", t.String())
	}
	if r.Attestation != nil {
		fmt.Printf("attested:          network=%s sequence=%d\n", r.Attestation.NetworkID, r.Attestation.Sequence)
	}
}
