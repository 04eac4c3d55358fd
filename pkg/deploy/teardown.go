// pkg/deploy/teardown.go

package deploy

import (
	"context"
	"os"

	cerr "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// teardown removes any prior installation: stop and disable the unit if
// the supervisor knows it, then force-remove the installation directory,
// log directory and unit file, and reload the supervisor's unit index.
//
// Idempotent by construction: a host that never saw this service passes
// straight through. "Unit not found" is tolerated; a real stop, disable
// or removal failure is not, and the sweep is aggregated so the operator
// sees everything that went wrong at once.
func (r *Runner) teardown(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	cfg := r.Config
	unit := cfg.UnitName()

	var errs *multierror.Error

	active, err := r.Services.IsActive(ctx, unit)
	if err != nil {
		return cerr.Wrap(err, "probing service state")
	}
	if active {
		logger.Info("Stopping running service", zap.String("unit", unit))
		if err := r.Services.Stop(ctx, unit); err != nil {
			errs = multierror.Append(errs, cerr.Wrap(err, "stopping service"))
		}
	} else {
		logger.Info("Service not active, nothing to stop", zap.String("unit", unit))
	}

	enabled, err := r.Services.IsEnabled(ctx, unit)
	if err != nil {
		return cerr.Wrap(err, "probing enablement state")
	}
	if enabled {
		logger.Info("Disabling service", zap.String("unit", unit))
		if err := r.Services.Disable(ctx, unit); err != nil {
			errs = multierror.Append(errs, cerr.Wrap(err, "disabling service"))
		}
	}

	// Force-delete semantics: RemoveAll treats a missing target as done.
	for _, path := range []string{cfg.InstallDir, cfg.LogDir, cfg.UnitPath} {
		logger.Info("Removing", zap.String("path", path))
		if err := os.RemoveAll(path); err != nil {
			errs = multierror.Append(errs, cerr.Wrapf(err, "removing %s", path))
		}
	}

	if err := r.Services.DaemonReload(ctx); err != nil {
		errs = multierror.Append(errs, cerr.Wrap(err, "reloading unit index"))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	logger.Info("Teardown complete", zap.String("unit", unit))
	return nil
}
