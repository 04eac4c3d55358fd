// pkg/deploy/artifacts.go

package deploy

import (
	"context"
	"os"
	"time"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/execute"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/python"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// deployArtifacts copies the operator-provided inputs into the
// installation directory and, when a schema definition is present, runs
// client generation plus an import smoke test. The smoke test is a
// correctness gate: a generated client the service cannot import would
// otherwise only fail at first request.
func (r *Runner) deployArtifacts(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	cfg := r.Config

	copies := []struct {
		label string
		src   string
		dst   string
		perm  os.FileMode
	}{
		{"application payload", cfg.PayloadPath, cfg.PayloadDest(), 0o644},
		// Written restrictive from the start; HARDEN_PERMISSIONS re-asserts.
		{"secrets file", cfg.SecretsPath, cfg.SecretsDest(), 0o600},
	}
	if r.schemaPresent {
		copies = append(copies, struct {
			label string
			src   string
			dst   string
			perm  os.FileMode
		}{"schema definition", cfg.SchemaPath, cfg.SchemaDest(), 0o644})
	}

	for _, c := range copies {
		logger.Info("Deploying artifact",
			zap.String("artifact", c.label),
			zap.String("destination", c.dst))
		if err := copyFile(c.src, c.dst, c.perm); err != nil {
			return mark(cerr.Wrapf(err, "copying %s to %s", c.label, c.dst), ErrCopy)
		}
	}

	if r.schemaPresent {
		if err := r.generateClient(ctx); err != nil {
			return mark(err, ErrGeneration)
		}
	}

	logger.Info("Artifacts deployed", zap.String("install_dir", cfg.InstallDir))
	return nil
}

// generateClient runs prisma client generation against the deployed
// schema, then proves the generated client imports inside the venv.
func (r *Runner) generateClient(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	cfg := r.Config

	logger.Info("Generating database client from schema",
		zap.String("schema", cfg.SchemaDest()))

	if _, err := execute.Run(ctx, execute.Options{
		Command: python.VenvBin(cfg.VenvDir(), "prisma"),
		Args:    []string{"generate", "--schema", cfg.SchemaDest()},
		Dir:     cfg.InstallDir,
		Timeout: 5 * time.Minute,
	}); err != nil {
		return cerr.Wrap(err, "prisma generate failed")
	}

	logger.Info("Running post-generation import smoke test")
	if _, err := execute.Run(ctx, execute.Options{
		Command: python.VenvBin(cfg.VenvDir(), "python"),
		Args:    []string{"-c", "from prisma import Prisma"},
		Dir:     cfg.InstallDir,
	}); err != nil {
		return cerr.Wrap(err, "generated client failed import smoke test")
	}

	logger.Info("Client generation verified")
	return nil
}
