// pkg/vulcan_cli/wrap.go

package vulcan_cli

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_err"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Wrap ensures panic recovery, telemetry, and outcome logging around every
// cobra RunE.
func Wrap(fn func(rc *vulcan_io.RuntimeContext, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		logger.InitFallback()

		rc := vulcan_io.NewContext(context.Background(), cmd.Name())
		defer rc.End(&err)

		defer func() {
			if r := recover(); r != nil {
				err = cerr.AssertionFailedf("panic: %v", r)
				rc.Log.Error("Panic recovered", zap.Any("panic", r))
			}
		}()

		err = fn(rc, cmd, args)
		if err != nil && !vulcan_err.IsExpectedUserError(err) {
			err = cerr.WithStack(err)
		}
		return err
	}
}
