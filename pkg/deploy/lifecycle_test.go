// pkg/deploy/lifecycle_test.go

package deploy

import (
	"context"
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/execute"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes for the host interfaces ---

type fakePackages struct {
	calls [][]string
	err   error
}

func (f *fakePackages) EnsurePackages(_ context.Context, packages []string) error {
	f.calls = append(f.calls, packages)
	return f.err
}

type fakeServices struct {
	active   map[string]bool
	enabled  map[string]bool
	startErr error
	calls    []string
}

func newFakeServices() *fakeServices {
	return &fakeServices{
		active:  make(map[string]bool),
		enabled: make(map[string]bool),
	}
}

func (f *fakeServices) IsActive(_ context.Context, unit string) (bool, error) {
	return f.active[unit], nil
}

func (f *fakeServices) IsEnabled(_ context.Context, unit string) (bool, error) {
	return f.enabled[unit], nil
}

func (f *fakeServices) Stop(_ context.Context, unit string) error {
	f.calls = append(f.calls, "stop "+unit)
	f.active[unit] = false
	return nil
}

func (f *fakeServices) Disable(_ context.Context, unit string) error {
	f.calls = append(f.calls, "disable "+unit)
	f.enabled[unit] = false
	return nil
}

func (f *fakeServices) Start(_ context.Context, unit string) error {
	f.calls = append(f.calls, "start "+unit)
	if f.startErr != nil {
		return f.startErr
	}
	f.active[unit] = true
	return nil
}

func (f *fakeServices) Enable(_ context.Context, unit string) error {
	f.calls = append(f.calls, "enable "+unit)
	f.enabled[unit] = true
	return nil
}

func (f *fakeServices) DaemonReload(_ context.Context) error {
	f.calls = append(f.calls, "daemon-reload")
	return nil
}

type fakeFirewall struct {
	allowed []int
	enabled bool
	err     error
}

func (f *fakeFirewall) AllowPort(_ context.Context, port int) error {
	if f.err != nil {
		return f.err
	}
	f.allowed = append(f.allowed, port)
	return nil
}

func (f *fakeFirewall) Enable(_ context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.enabled = true
	return nil
}

// --- harness ---

// testRunner builds a Runner over temp directories with input artifacts in
// place, faked host interfaces, and subprocess execution short-circuited.
func testRunner(t *testing.T) (*Runner, *fakePackages, *fakeServices, *fakeFirewall) {
	t.Helper()

	execute.DefaultDryRun = true
	t.Cleanup(func() { execute.DefaultDryRun = false })

	current, err := user.Current()
	require.NoError(t, err)

	root := t.TempDir()
	inputs := t.TempDir()

	payload := filepath.Join(inputs, "app.py")
	require.NoError(t, os.WriteFile(payload, []byte("app = object()\n"), 0o644))
	secrets := filepath.Join(inputs, "video-server.env")
	require.NoError(t, os.WriteFile(secrets, []byte("AWS_LAMBDA_ENDPOINT=https://example.invalid\n"), 0o600))

	cfg := DefaultConfig()
	cfg.ServiceUser = current.Username
	cfg.InstallDir = filepath.Join(root, "opt", "video-server")
	cfg.LogDir = filepath.Join(root, "log", "video-server")
	cfg.UnitPath = filepath.Join(root, "systemd", "video-server.service")
	cfg.PayloadPath = payload
	cfg.SecretsPath = secrets
	cfg.SchemaPath = "" // no schema unless a test opts in
	cfg.Port = 1        // nothing listens here; the HTTP probe is warn-only
	cfg.VerifyInterval = time.Millisecond
	cfg.VerifyTimeout = 50 * time.Millisecond
	require.NoError(t, os.MkdirAll(filepath.Join(root, "opt"), 0o755))
	require.NoError(t, cfg.Validate())

	packages := &fakePackages{}
	services := newFakeServices()
	firewall := &fakeFirewall{}

	return &Runner{
		Config:   cfg,
		Packages: packages,
		Services: services,
		Firewall: firewall,
	}, packages, services, firewall
}

func testContext(t *testing.T) *vulcan_io.RuntimeContext {
	t.Helper()
	return vulcan_io.NewContext(context.Background(), "test")
}

// --- scenarios ---

func TestDeployFreshHostReachesDone(t *testing.T) {
	r, packages, services, firewall := testRunner(t)

	err := r.Deploy(testContext(t))
	require.NoError(t, err)

	// Dependency installation ran with the configured apt set.
	require.Len(t, packages.calls, 1)
	assert.Equal(t, r.Config.AptPackages, packages.calls[0])

	// Service was enabled, started, and is active.
	assert.Contains(t, services.calls, "enable video-server.service")
	assert.Contains(t, services.calls, "start video-server.service")
	assert.True(t, services.active["video-server.service"])

	// Artifacts landed in the installation directory.
	assert.FileExists(t, r.Config.PayloadDest())
	assert.FileExists(t, r.Config.SecretsDest())
	assert.FileExists(t, r.Config.UnitPath)

	// Both ports open, firewall enforcing.
	assert.Equal(t, []int{r.Config.AdminPort, r.Config.Port}, firewall.allowed)
	assert.True(t, firewall.enabled)

	// No prior installation, so no backup record.
	backups, err := ListBackups(r.Config.InstallDir)
	require.NoError(t, err)
	assert.Empty(t, backups)

	// Lock released.
	assert.NoFileExists(t, r.Config.LockPath())
}

func TestDeployIsIdempotent(t *testing.T) {
	r, _, services, _ := testRunner(t)
	rc := testContext(t)

	require.NoError(t, r.Deploy(rc))

	// Second run over the leftover state of the first must also succeed,
	// and must snapshot the prior installation exactly once.
	second := &Runner{
		Config:   r.Config,
		Packages: &fakePackages{},
		Services: services,
		Firewall: &fakeFirewall{},
	}
	require.NoError(t, second.Deploy(rc))

	backups, err := ListBackups(r.Config.InstallDir)
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	assert.True(t, services.active["video-server.service"])
	assert.FileExists(t, r.Config.UnitPath)
}

func TestPreconditionGateLeavesHostUntouched(t *testing.T) {
	r, packages, services, firewall := testRunner(t)
	require.NoError(t, os.Remove(r.Config.SecretsPath))

	err := r.Deploy(testContext(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingArtifact)

	var abort *AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, StageCheckPreconditions, abort.Stage)

	// Zero mutation: nothing created, nothing stopped, nothing opened.
	assert.NoDirExists(t, r.Config.InstallDir)
	assert.NoDirExists(t, r.Config.LogDir)
	assert.NoFileExists(t, r.Config.UnitPath)
	assert.Empty(t, packages.calls)
	assert.Empty(t, services.calls)
	assert.Empty(t, firewall.allowed)
	assert.False(t, firewall.enabled)
	assert.NoFileExists(t, r.Config.LockPath())
}

func TestStartFailurePreventsNetworkExposure(t *testing.T) {
	r, _, services, firewall := testRunner(t)
	services.startErr = errors.New("unit entered failed state")

	err := r.Deploy(testContext(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStart)

	var abort *AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, StageStart, abort.Stage)

	// The firewall was never touched, so an aborted run cannot leave the
	// host freshly enforcing.
	assert.Empty(t, firewall.allowed)
	assert.False(t, firewall.enabled)
}

func TestDependencyFailureAbortsWithoutTouchingBackup(t *testing.T) {
	r, packages, _, _ := testRunner(t)

	// Simulate a prior installation so a backup record is created.
	require.NoError(t, os.MkdirAll(r.Config.InstallDir, 0o755))
	prior := filepath.Join(r.Config.InstallDir, "app.py")
	require.NoError(t, os.WriteFile(prior, []byte("old payload\n"), 0o644))

	packages.err = errors.New("apt repository unreachable")

	err := r.Deploy(testContext(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPackageInstall)

	var abort *AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, StageInstallDeps, abort.Stage)

	// The backup record survives the abort, untouched and unrestored.
	backups, err := ListBackups(r.Config.InstallDir)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	data, err := os.ReadFile(filepath.Join(backups[0], "app.py"))
	require.NoError(t, err)
	assert.Equal(t, "old payload\n", string(data))

	// Teardown already removed the prior installation; the failed run did
	// not restore it.
	assert.NoDirExists(t, r.Config.InstallDir)
}

func TestVerifyTimeoutAborts(t *testing.T) {
	r, _, services, firewall := testRunner(t)

	// Start "succeeds" as far as systemctl is concerned but the unit never
	// reports active, as when the process crashes on boot.
	r.Services = &flappingServices{fakeServices: services}

	err := r.Deploy(testContext(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVerify)

	var abort *AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, StageVerify, abort.Stage)

	assert.Empty(t, firewall.allowed)
}

// flappingServices reports the unit inactive no matter what Start did.
type flappingServices struct {
	*fakeServices
}

func (f *flappingServices) IsActive(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func TestConcurrentRunFailsFast(t *testing.T) {
	r, _, _, _ := testRunner(t)

	require.NoError(t, os.WriteFile(r.Config.LockPath(), []byte("12345\n"), 0o644))

	err := r.Deploy(testContext(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAnotherRunInProgress)

	// The pre-existing lock is not cleaned up by the losing run.
	assert.FileExists(t, r.Config.LockPath())
}

func TestTeardownAloneIsIdempotent(t *testing.T) {
	r, _, services, _ := testRunner(t)
	rc := testContext(t)

	// Nothing installed: teardown is a no-op that still succeeds.
	require.NoError(t, r.Teardown(rc))
	assert.NotContains(t, services.calls, "stop video-server.service")

	// Installed and running: teardown stops, disables and removes.
	require.NoError(t, r.Deploy(rc))
	services.calls = nil

	require.NoError(t, r.Teardown(rc))
	assert.Contains(t, services.calls, "stop video-server.service")
	assert.Contains(t, services.calls, "disable video-server.service")
	assert.NoDirExists(t, r.Config.InstallDir)
	assert.NoDirExists(t, r.Config.LogDir)
	assert.NoFileExists(t, r.Config.UnitPath)
}
