// pkg/deploy/harden.go

package deploy

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// hardenPermissions hands the installation to the unprivileged service
// account and enforces the permission invariant: the secrets file ends up
// owner-only (0600), strictly tighter than the 0755 installation tree the
// service reads its code from.
func (r *Runner) hardenPermissions(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	cfg := r.Config

	uid, gid, err := lookupServiceAccount(cfg.ServiceUser)
	if err != nil {
		return mark(err, ErrPermissionSetup)
	}

	logger.Info("Hardening permissions",
		zap.String("owner", cfg.ServiceUser),
		zap.String("install_dir", cfg.InstallDir))

	for _, root := range []string{cfg.InstallDir, cfg.LogDir} {
		if err := chownTree(root, uid, gid); err != nil {
			return mark(cerr.Wrapf(err, "chown %s", root), ErrPermissionSetup)
		}
	}

	if err := os.Chmod(cfg.InstallDir, 0o755); err != nil {
		return mark(cerr.Wrap(err, "chmod install dir"), ErrPermissionSetup)
	}
	if err := os.Chmod(cfg.SecretsDest(), 0o600); err != nil {
		return mark(cerr.Wrap(err, "chmod secrets file"), ErrPermissionSetup)
	}

	logger.Info("Permissions hardened",
		zap.String("secrets", cfg.SecretsDest()),
		zap.String("secrets_mode", "0600"),
		zap.String("install_mode", "0755"))
	return nil
}

func lookupServiceAccount(name string) (uid, gid int, err error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, 0, cerr.Wrapf(err,
			"service account %q not found (create it with: useradd --system --no-create-home %s)",
			name, name)
	}
	uid, err = strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, cerr.Wrapf(err, "parsing uid %q", u.Uid)
	}
	gid, err = strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, cerr.Wrapf(err, "parsing gid %q", u.Gid)
	}
	return uid, gid, nil
}

// chownTree changes ownership across a tree, skipping dangling symlinks
// venvs sometimes contain.
func chownTree(root string, uid, gid int) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return os.Lchown(path, uid, gid)
		}
		return os.Chown(path, uid, gid)
	})
}
