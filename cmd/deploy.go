/* cmd/deploy.go */

package cmd

import (
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/deploy"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/execute"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_cli"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var deployDryRun bool

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run the full deployment lifecycle",
	Long: `Runs the staged deployment state machine end to end:

  CHECK_PRECONDITIONS -> BACKUP -> TEARDOWN -> INSTALL_DEPS ->
  DEPLOY_ARTIFACTS -> CONFIGURE_SERVICE -> HARDEN_PERMISSIONS ->
  START -> VERIFY -> EXPOSE_NETWORK

The first failing stage aborts the run with the stage name, the cause,
and the tail of the service error log. Nothing is retried and no backup
is restored automatically.`,
	RunE: vulcan_cli.Wrap(func(rc *vulcan_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		cfg, err := deploy.Load()
		if err != nil {
			return err
		}

		if deployDryRun {
			rc.Log.Info("Dry run: subprocess calls will be logged, not executed")
			execute.DefaultDryRun = true
		}

		rc.Log.Info("Starting deployment",
			zap.String("service", cfg.ServiceName),
			zap.String("install_dir", cfg.InstallDir),
			zap.String("backup_mode", cfg.BackupMode))

		return deploy.NewRunner(cfg).Deploy(rc)
	}),
}

func init() {
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false,
		"log the commands a deploy would run without executing them")
	RootCmd.AddCommand(deployCmd)
}
