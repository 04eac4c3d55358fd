/* cmd/root.go */

package cmd

import (
	"fmt"
	"os"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_err"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd is the base command for vulcan.
var RootCmd = &cobra.Command{
	Use:   "vulcan",
	Short: "Vulcan deploys a single backend service to a known-good running state",
	Long: `Vulcan is a single-host deployment lifecycle orchestrator. One run backs
up any prior installation, tears it down, reinstalls dependencies, deploys
the application artifacts, renders a systemd unit, hardens permissions,
starts the service, verifies it is alive, and opens the firewall.

Behavior is driven by the presence of the input artifacts in the working
directory (or the paths configured in /etc/vulcan/vulcan.yaml); each run
is destructive and idempotent.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute initializes logging and runs the root command, mapping errors
// to exit codes.
func Execute() {
	defer func() {
		if err := logger.Sync(); err != nil {
			// Syncing stderr fails on some platforms; nothing to do.
			_ = err
		}
	}()

	if err := RootCmd.Execute(); err != nil {
		if vulcan_err.IsExpectedUserError(err) {
			logger.L().Error("Run failed", zap.String("error", err.Error()))
		} else {
			logger.L().Error("Run failed unexpectedly", zap.Error(err))
			fmt.Fprintf(os.Stderr, "unexpected error: %+v\n", err)
		}
		os.Exit(1)
	}
}
