/* cmd/status.go */

package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/deploy"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/platform"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_cli"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_io"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report supervisor state and HTTP reachability of the service",
	RunE: vulcan_cli.Wrap(func(rc *vulcan_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		cfg, err := deploy.Load()
		if err != nil {
			return err
		}

		var services platform.ServiceManager = platform.Systemd{}
		active, err := services.IsActive(rc.Ctx, cfg.UnitName())
		if err != nil {
			return err
		}

		state := "inactive"
		if active {
			state = "active"
		}
		fmt.Printf("%s: %s\n", cfg.UnitName(), state)

		if !active {
			return nil
		}

		url := fmt.Sprintf("http://127.0.0.1:%d/", cfg.Port)
		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(url)
		if err != nil {
			fmt.Printf("http probe: no answer (%v)\n", err)
			return nil
		}
		resp.Body.Close()
		fmt.Printf("http probe: %s answered with %d\n", url, resp.StatusCode)
		return nil
	}),
}

func init() {
	RootCmd.AddCommand(statusCmd)
}
