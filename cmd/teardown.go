/* cmd/teardown.go */

package cmd

import (
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/deploy"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_cli"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Stop, disable and remove the deployed service",
	Long: `Removes the installation directory, log directory and service unit,
stopping and disabling the unit first if the supervisor knows it. Safe to
run whether or not anything is installed. Backup records are left alone.`,
	RunE: vulcan_cli.Wrap(func(rc *vulcan_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		cfg, err := deploy.Load()
		if err != nil {
			return err
		}

		rc.Log.Info("Tearing down service", zap.String("service", cfg.ServiceName))
		return deploy.NewRunner(cfg).Teardown(rc)
	}),
}

func init() {
	RootCmd.AddCommand(teardownCmd)
}
