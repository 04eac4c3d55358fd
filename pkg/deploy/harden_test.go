// pkg/deploy/harden_test.go

package deploy

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHardenPermissionsEnforcesSecretsInvariant(t *testing.T) {
	current, err := user.Current()
	require.NoError(t, err)

	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.ServiceUser = current.Username
	cfg.InstallDir = filepath.Join(root, "video-server")
	cfg.LogDir = filepath.Join(root, "log")

	require.NoError(t, os.MkdirAll(cfg.InstallDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.LogDir, 0o755))
	// Deliberately too loose; hardening must tighten it.
	require.NoError(t, os.WriteFile(cfg.SecretsDest(), []byte("KEY=value\n"), 0o644))
	require.NoError(t, os.WriteFile(cfg.PayloadDest(), []byte("app = object()\n"), 0o644))

	r := &Runner{Config: cfg}
	require.NoError(t, r.hardenPermissions(context.Background()))

	secretsInfo, err := os.Stat(cfg.SecretsDest())
	require.NoError(t, err)
	dirInfo, err := os.Stat(cfg.InstallDir)
	require.NoError(t, err)

	assert.Equal(t, os.FileMode(0o600), secretsInfo.Mode().Perm())
	assert.Equal(t, os.FileMode(0o755), dirInfo.Mode().Perm())

	// The invariant proper: secrets must be strictly tighter than the
	// installation directory for group and other.
	groupOther := os.FileMode(0o077)
	assert.Zero(t, secretsInfo.Mode().Perm()&groupOther)
	assert.NotZero(t, dirInfo.Mode().Perm()&groupOther)
}

func TestHardenPermissionsUnknownAccount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServiceUser = "vulcan-test-no-such-user"
	cfg.InstallDir = t.TempDir()
	cfg.LogDir = t.TempDir()

	r := &Runner{Config: cfg}
	err := r.hardenPermissions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionSetup)
	assert.Contains(t, err.Error(), "useradd")
}
