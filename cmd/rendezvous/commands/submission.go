package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	types "github.com/flammafex/rendezvous/internal/domain/types"
)

func parseTokens(hexTokens []string) ([]types.MatchToken, error) {
	tokens := make([]types.MatchToken, len(hexTokens))
	for i, h := range hexTokens {
		t, err := types.ParseMatchToken(h)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		tokens[i] = t
	}
	return tokens, nil
}

func submitCmd() *cobra.Command {
	var (
		poolHex       string
		tokenHexes    []string
		commitHexes   []string
		nullifierHex  string
		proofIssuer   string
		proofRaw      string
		revealPayload string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit match tokens (direct) or commitments (commit phase) for a pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			poolID, err := types.ParsePoolID(poolHex)
			if err != nil {
				return fmt.Errorf("--pool: %w", err)
			}
			var nullifier types.Nullifier
			if err := decodeFixed(nullifierHex, nullifier[:]); err != nil {
				return fmt.Errorf("--nullifier: %w", err)
			}

			tokens, err := parseTokens(tokenHexes)
			if err != nil {
				return err
			}

			var commitments []types.Commitment
			for i, h := range commitHexes {
				var c types.Commitment
				if err := decodeFixed(h, c[:]); err != nil {
					return fmt.Errorf("commitment %d: %w", i, err)
				}
				commitments = append(commitments, c)
			}

			var proof *types.TokenProof
			if proofIssuer != "" {
				proof = &types.TokenProof{IssuerID: proofIssuer, Raw: []byte(proofRaw)}
			}

			var revealData []types.RevealEntry
			if revealPayload != "" && len(tokens) > 0 {
				payload, err := hex.DecodeString(revealPayload)
				if err != nil {
					return fmt.Errorf("--reveal-payload: %w", err)
				}
				revealData = []types.RevealEntry{{MatchToken: tokens[0], EncryptedReveal: payload}}
			}

			return rt.Facade.Submit(ctx, types.SubmitRequest{
				PoolID:      poolID,
				Tokens:      tokens,
				Commitments: commitments,
				Nullifier:   nullifier,
				RevealData:  revealData,
				TokenProof:  proof,
			})
		},
	}

	cmd.Flags().StringVar(&poolHex, "pool", "", "pool id, hex (required)")
	cmd.Flags().StringArrayVar(&tokenHexes, "token", nil, "match token, hex (repeatable)")
	cmd.Flags().StringArrayVar(&commitHexes, "commitment", nil, "commitment, hex (repeatable, commit phase)")
	cmd.Flags().StringVar(&nullifierHex, "nullifier", "", "nullifier, hex (required)")
	cmd.Flags().StringVar(&proofIssuer, "proof-issuer", "", "eligibility token proof issuer id")
	cmd.Flags().StringVar(&proofRaw, "proof-raw", "", "eligibility token proof, raw serialized form")
	cmd.Flags().StringVar(&revealPayload, "reveal-payload", "", "encrypted reveal-on-match payload for the first token, hex")
	cmd.MarkFlagRequired("pool")
	cmd.MarkFlagRequired("nullifier")
	return cmd
}

func revealCmd() *cobra.Command {
	var poolHex, nullifierHex string
	var tokenHexes []string

	cmd := &cobra.Command{
		Use:   "reveal",
		Short: "Reveal previously committed tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			poolID, err := types.ParsePoolID(poolHex)
			if err != nil {
				return fmt.Errorf("--pool: %w", err)
			}
			var nullifier types.Nullifier
			if err := decodeFixed(nullifierHex, nullifier[:]); err != nil {
				return fmt.Errorf("--nullifier: %w", err)
			}
			tokens, err := parseTokens(tokenHexes)
			if err != nil {
				return err
			}
			return rt.Facade.Reveal(ctx, types.RevealRequest{PoolID: poolID, Tokens: tokens, Nullifier: nullifier})
		},
	}

	cmd.Flags().StringVar(&poolHex, "pool", "", "pool id, hex (required)")
	cmd.Flags().StringVar(&nullifierHex, "nullifier", "", "nullifier, hex (required)")
	cmd.Flags().StringArrayVar(&tokenHexes, "token", nil, "match token, hex (repeatable, required)")
	cmd.MarkFlagRequired("pool")
	cmd.MarkFlagRequired("nullifier")
	cmd.MarkFlagRequired("token")
	return cmd
}
