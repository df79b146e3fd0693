// Package commands implements the rendezvous CLI: a thin cobra front end
// over internal/facade, matching the split ciphera draws between its CLI
// commands and the app.App they call into. Every command exits 0 on
// success, 1 on a user/validation error, 2 on an infrastructure error.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flammafex/rendezvous/internal/config"
	"github.com/flammafex/rendezvous/internal/facade"
	"github.com/flammafex/rendezvous/internal/logging"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

var (
	rt  *facade.Wire
	ctx = context.Background()
)

// userErrorCodes are the rendezvouserr codes that represent a caller
// mistake rather than an infrastructure problem, for the exit-code split
// spec.md's CLI surface requires.
var userErrorCodes = map[rverr.Code]bool{
	rverr.CodePoolNotFound:         true,
	rverr.CodePoolClosed:           true,
	rverr.CodePoolNotInCommitPhase: true,
	rverr.CodePoolNotInRevealPhase: true,
	rverr.CodeAlreadyRegistered:    true,
	rverr.CodeParticipantNotFound:  true,
	rverr.CodeDuplicateNullifier:   true,
	rverr.CodePreferenceLimit:      true,
	rverr.CodeInvalidEligibility:   true,
	rverr.CodeCommitmentNotFound:   true,
	rverr.CodeCommitmentMismatch:   true,
	rverr.CodeInvalidPublicKey:     true,
	rverr.CodeInvalidPrivateKey:    true,
	rverr.CodeInvalidInput:         true,
	rverr.CodePSISetupMissing:      true,
	rverr.CodePSIRequestNotFound:   true,
	rverr.CodePSIResponseExpired:   true,
	rverr.CodeSignatureInvalid:     true,
	rverr.CodeClockSkew:            true,
}

// Execute runs the CLI and returns the process exit code spec.md's CLI
// surface specifies: 0 success, 1 user/validation error, 2 infrastructure
// error.
func Execute() int {
	root := &cobra.Command{
		Use:           "rendezvous",
		Short:         "Privacy-preserving mutual-matching pools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "keygen" || cmd.Name() == "derive-token" {
				return nil // these never touch storage
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogEnv)
			if err != nil {
				return err
			}
			rt, err = facade.NewWire(ctx, cfg, log)
			return err
		},
	}

	root.AddCommand(
		keygenCmd(),
		deriveTokenCmd(),
		createCmd(),
		listCmd(),
		showCmd(),
		submitCmd(),
		revealCmd(),
		matchesCmd(),
		closeCmd(),
		exportCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitCodeFor(err)
	}
	return 0
}

func exitCodeFor(err error) int {
	var e *rverr.Error
	if !errors.As(err, &e) {
		return 1 // cobra-level usage error: bad flags or args
	}
	if userErrorCodes[e.Code] {
		return 1
	}
	return 2
}
