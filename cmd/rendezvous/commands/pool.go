package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flammafex/rendezvous/internal/crypto"
	types "github.com/flammafex/rendezvous/internal/domain/types"
)

func createCmd() *cobra.Command {
	var (
		name, description              string
		revealDeadline, commitDeadline  string
		creatorAgreementHex             string
		creatorSigningHex               string
		requiresInvite, ephemeral       bool
		maxPreferences                  int
		tokenIssuer                     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new matching pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			creatorAgreement, err := types.ParseAgreementPublic(creatorAgreementHex)
			if err != nil {
				return fmt.Errorf("--creator-agreement-key: %w", err)
			}
			var creatorSigning types.SigningPublic
			if err := decodeFixed(creatorSigningHex, creatorSigning[:]); err != nil {
				return fmt.Errorf("--creator-signing-key: %w", err)
			}

			reveal, err := parseDeadline(revealDeadline)
			if err != nil {
				return fmt.Errorf("--reveal-deadline: %w", err)
			}

			var commitPtr *time.Time
			if commitDeadline != "" {
				commit, err := parseDeadline(commitDeadline)
				if err != nil {
					return fmt.Errorf("--commit-deadline: %w", err)
				}
				commitPtr = &commit
			}

			gate := types.OpenGate()
			if tokenIssuer != "" {
				gate = types.TokenGate(tokenIssuer)
			}

			var maxPrefsPtr *int
			if maxPreferences > 0 {
				maxPrefsPtr = &maxPreferences
			}

			p, err := rt.Facade.CreatePool(ctx, types.Pool{
				Name:                name,
				Description:         description,
				CreatorAgreementKey: creatorAgreement,
				CreatorSigningKey:   creatorSigning,
				RevealDeadline:      reveal,
				CommitDeadline:      commitPtr,
				Gate:                gate,
				RequiresInvite:      requiresInvite,
				Ephemeral:           ephemeral,
				MaxPreferences:      maxPrefsPtr,
			})
			if err != nil {
				return err
			}
			fmt.Println(p.ID.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "pool name (required)")
	cmd.Flags().StringVar(&description, "description", "", "pool description")
	cmd.Flags().StringVar(&revealDeadline, "reveal-deadline", "", "ISO-8601 instant or hours from now (required)")
	cmd.Flags().StringVar(&commitDeadline, "commit-deadline", "", "ISO-8601 instant or hours from now (enables commit-reveal)")
	cmd.Flags().StringVar(&creatorAgreementHex, "creator-agreement-key", "", "creator agreement public key, hex (required)")
	cmd.Flags().StringVar(&creatorSigningHex, "creator-signing-key", "", "creator signing public key, hex (required)")
	cmd.Flags().BoolVar(&requiresInvite, "requires-invite", false, "require federation invite review to join")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "delete participant records after matches are detected")
	cmd.Flags().IntVar(&maxPreferences, "max-preferences", 0, "cap on preferences per participant (0 = unlimited)")
	cmd.Flags().StringVar(&tokenIssuer, "issuer", "", "require a token proof from this issuer id; omit for an open pool")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("reveal-deadline")
	cmd.MarkFlagRequired("creator-agreement-key")
	cmd.MarkFlagRequired("creator-signing-key")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			pools, err := rt.Facade.ListPools(ctx)
			if err != nil {
				return err
			}
			for _, p := range pools {
				fmt.Printf("%s  %-10s  %s\n", p.ID.String(), p.Status, p.Name)
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [pool-id]",
		Short: "Show a pool's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParsePoolID(args[0])
			if err != nil {
				return err
			}
			p, err := rt.Facade.GetPool(ctx, id)
			if err != nil {
				return err
			}
			participants, err := rt.Facade.ListParticipants(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("name:            %s\n", p.Name)
			fmt.Printf("status:          %s\n", p.EffectiveStatus(time.Now()))
			fmt.Printf("reveal deadline: %s\n", p.RevealDeadline.Format(time.RFC3339))
			if p.CommitDeadline != nil {
				fmt.Printf("commit deadline: %s\n", p.CommitDeadline.Format(time.RFC3339))
			}
			fmt.Printf("requires invite: %v\n", p.RequiresInvite)
			fmt.Printf("ephemeral:       %v\n", p.Ephemeral)
			fmt.Printf("participants:    %d\n", len(participants))
			return nil
		},
	}
}

func closeCmd() *cobra.Command {
	var poolHex, signingPrivHex string

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close a pool ahead of its reveal deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParsePoolID(poolHex)
			if err != nil {
				return fmt.Errorf("--pool: %w", err)
			}
			var signingPriv types.SigningPrivate
			if err := decodeFixed(signingPrivHex, signingPriv[:]); err != nil {
				return fmt.Errorf("--signing-private: %w", err)
			}
			req := crypto.SignRequest(signingPriv, "close", id, time.Now())
			return rt.Facade.ClosePool(ctx, id, req.Signature, req.TimestampMs)
		},
	}

	cmd.Flags().StringVar(&poolHex, "pool", "", "pool id, hex (required)")
	cmd.Flags().StringVar(&signingPrivHex, "signing-private", "", "creator signing private key, hex (required)")
	cmd.MarkFlagRequired("pool")
	cmd.MarkFlagRequired("signing-private")
	return cmd
}
