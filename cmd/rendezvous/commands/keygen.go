package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flammafex/rendezvous/internal/crypto"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an agreement keypair and a signing keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			agreePriv, agreePub, err := crypto.GenerateAgreementKeypair()
			if err != nil {
				return err
			}
			signPriv, signPub, err := crypto.GenerateSigningKeypair()
			if err != nil {
				return err
			}
			fmt.Printf("agreement_private  %x\n", agreePriv.Slice())
			fmt.Printf("agreement_public   %x\n", agreePub.Slice())
			fmt.Printf("signing_private    %x\n", signPriv.Slice())
			fmt.Printf("signing_public     %x\n", signPub.Slice())
			return nil
		},
	}
}
