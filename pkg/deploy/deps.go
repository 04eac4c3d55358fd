// pkg/deploy/deps.go

package deploy

import (
	"context"
	"os"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/python"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// installDeps brings the host to dependency readiness: OS packages, a
// verified python runtime, a fresh virtual environment under the
// installation directory, and the pinned application requirement set.
// Any failure here is fatal; there is no partial-dependency recovery.
func (r *Runner) installDeps(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	cfg := r.Config

	// OS prerequisites first; everything after assumes they exist.
	if err := r.Packages.EnsurePackages(ctx, cfg.AptPackages); err != nil {
		return mark(err, ErrPackageInstall)
	}

	if err := python.EnsureRuntime(ctx, cfg.PythonMinVersion); err != nil {
		return mark(err, ErrDependencyInstall)
	}

	// Teardown removed the whole installation directory, so the venv is
	// always built from scratch; no partial previous environment survives.
	logger.Info("Creating installation directory", zap.String("path", cfg.InstallDir))
	if err := os.MkdirAll(cfg.InstallDir, 0o755); err != nil {
		return mark(cerr.Wrapf(err, "creating %s", cfg.InstallDir), ErrDependencyInstall)
	}

	if err := python.CreateVenv(ctx, cfg.VenvDir()); err != nil {
		return mark(err, ErrDependencyInstall)
	}

	if err := python.PipInstall(ctx, cfg.VenvDir(), cfg.PipRequirements); err != nil {
		return mark(err, ErrDependencyInstall)
	}

	logger.Info("Dependency environment ready", zap.String("venv", cfg.VenvDir()))
	return nil
}
