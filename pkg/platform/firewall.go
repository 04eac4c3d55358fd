// pkg/platform/firewall.go

package platform

import (
	"context"
	"os/exec"
	"strconv"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/execute"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Ufw is the UFW-backed FirewallManager.
type Ufw struct{}

var _ FirewallManager = (*Ufw)(nil)

// AllowPort opens an inbound TCP port.
func (Ufw) AllowPort(ctx context.Context, port int) error {
	logger := otelzap.Ctx(ctx)

	if err := checkUfw(); err != nil {
		return err
	}

	spec := strconv.Itoa(port) + "/tcp"
	logger.Info("Allowing inbound port", zap.String("port", spec))

	if err := execute.RunSimple(ctx, "ufw", "allow", spec); err != nil {
		return cerr.Wrapf(err, "ufw allow %s failed", spec)
	}
	return nil
}

// Enable flips UFW to enforcing. --force skips the interactive "may
// disrupt existing ssh connections" prompt; the admin port was allowed
// before this is called.
func (Ufw) Enable(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)

	if err := checkUfw(); err != nil {
		return err
	}

	logger.Info("Enabling firewall in enforcing mode")

	if err := execute.RunSimple(ctx, "ufw", "--force", "enable"); err != nil {
		return cerr.Wrap(err, "ufw enable failed")
	}
	return nil
}

func checkUfw() error {
	if _, err := exec.LookPath("ufw"); err != nil {
		return cerr.Wrap(err, "ufw not found: install the ufw package first")
	}
	return nil
}
