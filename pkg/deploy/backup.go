// pkg/deploy/backup.go

package deploy

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// backupTimestampFormat gives second-resolution uniqueness. A collision
// within the same second surfaces as a backup failure and is handled per
// BackupMode; snapshots are never deduplicated or deleted.
const backupTimestampFormat = "20060102-150405"

// backup snapshots an existing installation directory to a timestamped
// sibling before teardown removes it. A host with no prior installation
// produces no backup record.
func (r *Runner) backup(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	cfg := r.Config

	info, err := os.Stat(cfg.InstallDir)
	if os.IsNotExist(err) {
		logger.Info("No prior installation, skipping backup",
			zap.String("install_dir", cfg.InstallDir))
		return nil
	}
	if err != nil {
		return r.backupFailed(ctx, cerr.Wrapf(err, "cannot stat %s", cfg.InstallDir))
	}
	if !info.IsDir() {
		return r.backupFailed(ctx, cerr.Newf("%s exists but is not a directory", cfg.InstallDir))
	}

	dest := BackupPath(cfg.InstallDir, time.Now())
	logger.Info("Backing up prior installation",
		zap.String("source", cfg.InstallDir),
		zap.String("destination", dest))

	if err := copyTree(cfg.InstallDir, dest); err != nil {
		return r.backupFailed(ctx, cerr.Wrapf(err, "snapshot to %s", dest))
	}

	r.backupCreated = dest
	logger.Info("Backup record created", zap.String("path", dest))
	return nil
}

// backupFailed applies the configured fatality policy.
func (r *Runner) backupFailed(ctx context.Context, cause error) error {
	logger := otelzap.Ctx(ctx)

	if r.Config.BackupMode == BackupLenient {
		logger.Warn("Backup failed, continuing per lenient backup mode",
			zap.Error(cause))
		return nil
	}
	return mark(cause, ErrBackup)
}

// BackupPath returns the timestamped sibling path for a snapshot of dir.
func BackupPath(dir string, at time.Time) string {
	return dir + ".backup." + at.Format(backupTimestampFormat)
}

// ListBackups enumerates existing backup records for dir, oldest first.
func ListBackups(dir string) ([]string, error) {
	parent := filepath.Dir(dir)
	prefix := filepath.Base(dir) + ".backup."

	entries, err := os.ReadDir(parent)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cerr.Wrapf(err, "reading %s", parent)
	}

	var backups []string
	for _, e := range entries {
		if e.IsDir() && len(e.Name()) > len(prefix) && e.Name()[:len(prefix)] == prefix {
			backups = append(backups, filepath.Join(parent, e.Name()))
		}
	}
	return backups, nil
}

// copyTree copies a directory tree preserving file modes. Symlinks inside
// an installation (venv interpreter links) are recreated, not followed.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		default:
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
