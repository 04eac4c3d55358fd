// pkg/platform/systemd.go

package platform

import (
	"context"
	"os/exec"
	"strings"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/execute"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Systemd is the systemctl-backed ServiceManager.
type Systemd struct{}

var _ ServiceManager = (*Systemd)(nil)

// IsActive probes `systemctl is-active`. systemctl exits non-zero both for
// inactive and for unknown units; either way the unit is not running, so
// both report (false, nil). Only a missing systemctl binary is an error.
func (Systemd) IsActive(ctx context.Context, unit string) (bool, error) {
	if err := checkSystemctl(); err != nil {
		return false, err
	}
	out, err := execute.Run(ctx, execute.Options{
		Command: "systemctl",
		Args:    []string{"is-active", unit},
		Capture: true,
	})
	if err != nil {
		return false, nil
	}
	return strings.TrimSpace(out) == "active", nil
}

// IsEnabled probes `systemctl is-enabled` with the same tolerance as
// IsActive: unknown units are simply not enabled.
func (Systemd) IsEnabled(ctx context.Context, unit string) (bool, error) {
	if err := checkSystemctl(); err != nil {
		return false, err
	}
	out, err := execute.Run(ctx, execute.Options{
		Command: "systemctl",
		Args:    []string{"is-enabled", unit},
		Capture: true,
	})
	if err != nil {
		return false, nil
	}
	return strings.TrimSpace(out) == "enabled", nil
}

func (Systemd) Stop(ctx context.Context, unit string) error {
	return runSystemctl(ctx, "stop", unit)
}

func (Systemd) Disable(ctx context.Context, unit string) error {
	return runSystemctl(ctx, "disable", unit)
}

func (Systemd) Start(ctx context.Context, unit string) error {
	return runSystemctl(ctx, "start", unit)
}

func (Systemd) Enable(ctx context.Context, unit string) error {
	return runSystemctl(ctx, "enable", unit)
}

func (Systemd) DaemonReload(ctx context.Context) error {
	return runSystemctl(ctx, "daemon-reload")
}

// runSystemctl executes a systemctl verb with structured logging.
func runSystemctl(ctx context.Context, args ...string) error {
	logger := otelzap.Ctx(ctx)

	if err := checkSystemctl(); err != nil {
		return err
	}

	logger.Debug("Executing systemctl command", zap.Strings("args", args))

	if err := execute.RunSimple(ctx, "systemctl", args...); err != nil {
		return cerr.Wrapf(err, "systemctl %s failed", strings.Join(args, " "))
	}

	logger.Debug("Systemctl command completed", zap.Strings("args", args))
	return nil
}

func checkSystemctl() error {
	if _, err := exec.LookPath("systemctl"); err != nil {
		return cerr.Wrap(err, "systemctl not found")
	}
	return nil
}
