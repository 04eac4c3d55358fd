// pkg/deploy/preconditions.go

package deploy

import (
	"context"
	"os"

	cerr "github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// checkPreconditions validates every required input artifact before any
// destructive stage runs. Read-only: no directories are created, no
// service is touched, so an abort here leaves the host byte-identical.
func (r *Runner) checkPreconditions(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	cfg := r.Config

	required := []struct {
		label string
		path  string
	}{
		{"application payload", cfg.PayloadPath},
		{"secrets file", cfg.SecretsPath},
	}

	for _, artifact := range required {
		logger.Info("Checking required artifact",
			zap.String("artifact", artifact.label),
			zap.String("path", artifact.path))

		info, err := os.Stat(artifact.path)
		if err != nil {
			return mark(cerr.Wrapf(err, "%s not found at %s", artifact.label, artifact.path), ErrMissingArtifact)
		}
		if info.IsDir() || info.Size() == 0 {
			return mark(cerr.Newf("%s at %s is empty", artifact.label, artifact.path), ErrMissingArtifact)
		}
	}

	// The secrets file becomes the unit's EnvironmentFile; a file systemd
	// cannot parse would only surface as a cryptic start failure later.
	secrets, err := godotenv.Read(cfg.SecretsPath)
	if err != nil {
		return mark(cerr.Wrapf(err, "secrets file %s is not parseable key=value", cfg.SecretsPath), ErrMissingArtifact)
	}
	if len(secrets) == 0 {
		return mark(cerr.Newf("secrets file %s contains no entries", cfg.SecretsPath), ErrMissingArtifact)
	}
	logger.Info("Secrets file parsed", zap.Int("keys", len(secrets)))

	// Schema is optional; remember whether it was provided so later stages
	// do not have to re-stat.
	if cfg.SchemaPath != "" {
		if info, err := os.Stat(cfg.SchemaPath); err == nil && !info.IsDir() && info.Size() > 0 {
			r.schemaPresent = true
			logger.Info("Schema definition present, client generation will run",
				zap.String("path", cfg.SchemaPath))
		} else {
			logger.Info("No schema definition found, skipping client generation",
				zap.String("path", cfg.SchemaPath))
		}
	}

	return nil
}
