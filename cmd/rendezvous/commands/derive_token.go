package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	types "github.com/flammafex/rendezvous/internal/domain/types"
	"github.com/flammafex/rendezvous/internal/crypto"
)

func deriveTokenCmd() *cobra.Command {
	var myPrivateHex, theirPublicHex, poolHex string

	cmd := &cobra.Command{
		Use:   "derive-token",
		Short: "Derive the match token and nullifier for a (my key, their key, pool) triple",
		RunE: func(cmd *cobra.Command, args []string) error {
			var myPriv types.AgreementPrivate
			if err := decodeFixed(myPrivateHex, myPriv[:]); err != nil {
				return fmt.Errorf("--my-private: %w", err)
			}
			theirPub, err := types.ParseAgreementPublic(theirPublicHex)
			if err != nil {
				return fmt.Errorf("--their-public: %w", err)
			}
			poolID, err := types.ParsePoolID(poolHex)
			if err != nil {
				return fmt.Errorf("--pool: %w", err)
			}

			token, err := crypto.DeriveMatchToken(myPriv, theirPub, poolID)
			if err != nil {
				return err
			}
			nullifier := crypto.DeriveNullifier(myPriv, poolID)

			fmt.Printf("token      %s\n", token.String())
			fmt.Printf("nullifier  %s\n", nullifier.String())
			fmt.Printf("commitment %x\n", crypto.Commit(token).Slice())
			return nil
		},
	}

	cmd.Flags().StringVar(&myPrivateHex, "my-private", "", "my agreement private key, hex (required)")
	cmd.Flags().StringVar(&theirPublicHex, "their-public", "", "their agreement public key, hex (required)")
	cmd.Flags().StringVar(&poolHex, "pool", "", "pool id, hex (required)")
	cmd.MarkFlagRequired("my-private")
	cmd.MarkFlagRequired("their-public")
	cmd.MarkFlagRequired("pool")
	return cmd
}
