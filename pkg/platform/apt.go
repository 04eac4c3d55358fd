// pkg/platform/apt.go

package platform

import (
	"context"
	"os/exec"
	"time"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/execute"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Apt is the Debian/Ubuntu PackageManager.
type Apt struct{}

var _ PackageManager = (*Apt)(nil)

// EnsurePackages refreshes the apt index and installs the named packages.
// A failed index refresh is logged and tolerated; stale metadata usually
// still resolves the small fixed set vulcan needs. A failed install is not.
func (Apt) EnsurePackages(ctx context.Context, packages []string) error {
	logger := otelzap.Ctx(ctx)

	if len(packages) == 0 {
		return nil
	}

	// ASSESS
	if _, err := exec.LookPath("apt-get"); err != nil {
		return cerr.Wrap(err, "apt-get not found: vulcan targets Debian/Ubuntu hosts")
	}

	// INTERVENE
	logger.Info("Updating apt package index")
	if err := execute.RunSimple(ctx, "apt-get", "update"); err != nil {
		logger.Warn("apt-get update failed, continuing with cached index", zap.Error(err))
	}

	logger.Info("Installing apt packages",
		zap.Strings("packages", packages),
		zap.Int("count", len(packages)))

	args := append([]string{"install", "-y"}, packages...)
	if _, err := execute.Run(ctx, execute.Options{
		Command: "apt-get",
		Args:    args,
		Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
		Timeout: 15 * time.Minute,
	}); err != nil {
		return cerr.Wrap(err, "apt-get install failed")
	}

	// EVALUATE
	logger.Info("Apt packages installed successfully")
	return nil
}
