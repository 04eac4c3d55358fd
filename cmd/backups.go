/* cmd/backups.go */

package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/deploy"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_cli"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_io"
	"github.com/spf13/cobra"
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List accumulated backup records",
	Long: `Backup records accumulate on every redeploy over an existing
installation and are never deleted automatically. This lists them with
sizes so the operator can decide what to prune.`,
	RunE: vulcan_cli.Wrap(func(rc *vulcan_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		cfg, err := deploy.Load()
		if err != nil {
			return err
		}

		backups, err := deploy.ListBackups(cfg.InstallDir)
		if err != nil {
			return err
		}

		if len(backups) == 0 {
			fmt.Println("No backup records.")
			return nil
		}

		for _, b := range backups {
			fmt.Printf("%s\t%s\n", b, humanSize(treeSize(b)))
		}
		return nil
	}),
}

func treeSize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func init() {
	RootCmd.AddCommand(backupsCmd)
}
