// pkg/python/venv.go

package python

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/execute"
	cerr "github.com/cockroachdb/errors"
	goversion "github.com/hashicorp/go-version"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// EnsureRuntime verifies python3 is present and at least minVersion.
func EnsureRuntime(ctx context.Context, minVersion string) error {
	logger := otelzap.Ctx(ctx)

	if execute.DefaultDryRun {
		logger.Info("Dry run: skipping python runtime check")
		return nil
	}

	// ASSESS
	if _, err := exec.LookPath("python3"); err != nil {
		return cerr.Wrap(err, "python3 not found")
	}

	out, err := execute.Run(ctx, execute.Options{
		Command: "python3",
		Args:    []string{"--version"},
		Capture: true,
	})
	if err != nil {
		return cerr.Wrap(err, "failed to query python3 version")
	}

	// Output is "Python 3.12.3".
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) < 2 {
		return cerr.Newf("unexpected python3 --version output: %q", out)
	}

	have, err := goversion.NewVersion(fields[len(fields)-1])
	if err != nil {
		return cerr.Wrapf(err, "cannot parse python version %q", fields[len(fields)-1])
	}
	want, err := goversion.NewVersion(minVersion)
	if err != nil {
		return cerr.Wrapf(err, "cannot parse required python version %q", minVersion)
	}

	if have.LessThan(want) {
		return cerr.Newf("python %s found, %s or newer required", have, want)
	}

	// EVALUATE
	logger.Info("Python runtime verified",
		zap.String("version", have.String()),
		zap.String("minimum", want.String()))
	return nil
}

// CreateVenv creates a fresh virtual environment at dir. Teardown removed
// any previous one along with the installation directory, so this always
// starts clean.
func CreateVenv(ctx context.Context, dir string) error {
	logger := otelzap.Ctx(ctx)

	logger.Info("Creating virtual environment", zap.String("path", dir))

	if err := execute.RunSimple(ctx, "python3", "-m", "venv", dir); err != nil {
		return cerr.Wrapf(err, "creating venv at %s", dir)
	}
	return nil
}

// PipInstall installs the pinned requirement set into the venv at venvDir
// using the venv's own pip, so nothing leaks into the system interpreter.
func PipInstall(ctx context.Context, venvDir string, requirements []string) error {
	logger := otelzap.Ctx(ctx)

	pip := filepath.Join(venvDir, "bin", "pip")

	logger.Info("Upgrading pip inside venv")
	if err := execute.RunSimple(ctx, pip, "install", "--upgrade", "pip"); err != nil {
		logger.Warn("pip self-upgrade failed, continuing with bundled pip", zap.Error(err))
	}

	logger.Info("Installing pinned application dependencies",
		zap.Strings("requirements", requirements),
		zap.Int("count", len(requirements)))

	args := append([]string{"install"}, requirements...)
	if _, err := execute.Run(ctx, execute.Options{
		Command: pip,
		Args:    args,
		Timeout: 15 * time.Minute,
	}); err != nil {
		return cerr.Wrap(err, "pip install failed")
	}

	logger.Info("Application dependencies installed")
	return nil
}

// VenvBin returns the path of an executable inside the venv.
func VenvBin(venvDir, name string) string {
	return filepath.Join(venvDir, "bin", name)
}
