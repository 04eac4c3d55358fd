// pkg/deploy/lifecycle.go

package deploy

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/platform"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_err"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// errorLogTailLines is how much of the service error log an abort surfaces.
const errorLogTailLines = 20

// Runner owns one deployment run: the staged state machine plus the host
// interfaces it drives. One run per host at a time; the lock file makes a
// concurrent invocation fail fast instead of corrupting shared state.
type Runner struct {
	Config   Config
	Packages platform.PackageManager
	Services platform.ServiceManager
	Firewall platform.FirewallManager

	// run-scoped facts discovered by earlier stages
	schemaPresent bool
	backupCreated string
}

// NewRunner wires a Runner against the real host.
func NewRunner(cfg Config) *Runner {
	return &Runner{
		Config:   cfg,
		Packages: platform.Apt{},
		Services: platform.Systemd{},
		Firewall: platform.Ufw{},
	}
}

type stageStep struct {
	name Stage
	fn   func(ctx context.Context) error
}

func (r *Runner) stages() []stageStep {
	return []stageStep{
		{StageCheckPreconditions, r.checkPreconditions},
		{StageBackup, r.backup},
		{StageTeardown, r.teardown},
		{StageInstallDeps, r.installDeps},
		{StageDeployArtifacts, r.deployArtifacts},
		{StageConfigureService, r.configureService},
		{StageHardenPermissions, r.hardenPermissions},
		{StageStart, r.start},
		{StageVerify, r.verify},
		{StageExposeNetwork, r.exposeNetwork},
	}
}

// Deploy executes the full lifecycle. On any stage failure it transitions
// to the terminal aborted state: stage name, cause and the tail of the
// service error log are surfaced, and the error is returned for a
// non-zero exit. No retry, no automatic restore from a backup record.
func (r *Runner) Deploy(rc *vulcan_io.RuntimeContext) error {
	logger := otelzap.Ctx(rc.Ctx)

	unlock, err := r.acquireRunLock(rc.Ctx)
	if err != nil {
		return vulcan_err.NewExpectedError(rc.Ctx, err)
	}
	defer unlock()

	for _, step := range r.stages() {
		logger.Info("Stage starting", zap.String("stage", string(step.name)))

		if err := step.fn(rc.Ctx); err != nil {
			return r.abort(rc, step.name, err)
		}

		logger.Info("Stage completed", zap.String("stage", string(step.name)))
	}

	logger.Info("Stage completed", zap.String("stage", string(StageDone)))
	r.report(rc)
	return nil
}

// Teardown runs only the removal stage, for hosts being decommissioned.
// It takes the same run lock as a full deploy.
func (r *Runner) Teardown(rc *vulcan_io.RuntimeContext) error {
	unlock, err := r.acquireRunLock(rc.Ctx)
	if err != nil {
		return vulcan_err.NewExpectedError(rc.Ctx, err)
	}
	defer unlock()

	if err := r.teardown(rc.Ctx); err != nil {
		return r.abort(rc, StageTeardown, err)
	}
	return nil
}

// start activates the unit. Enable and start are separate verbs so a
// failure pinpoints which one the supervisor rejected.
func (r *Runner) start(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	unit := r.Config.UnitName()

	logger.Info("Enabling service", zap.String("unit", unit))
	if err := r.Services.Enable(ctx, unit); err != nil {
		return mark(cerr.Wrap(err, "enabling service"), ErrStart)
	}

	logger.Info("Starting service", zap.String("unit", unit))
	if err := r.Services.Start(ctx, unit); err != nil {
		return mark(cerr.Wrap(err, "starting service"), ErrStart)
	}
	return nil
}

// exposeNetwork opens the admin and service ports, then enables the
// firewall. Runs last by design: an abort anywhere earlier leaves the
// firewall exactly as the run found it.
func (r *Runner) exposeNetwork(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	cfg := r.Config

	for _, port := range []int{cfg.AdminPort, cfg.Port} {
		if err := r.Firewall.AllowPort(ctx, port); err != nil {
			return mark(cerr.Wrapf(err, "allowing port %d", port), ErrFirewallConfig)
		}
	}

	if err := r.Firewall.Enable(ctx); err != nil {
		return mark(cerr.Wrap(err, "enabling firewall"), ErrFirewallConfig)
	}

	logger.Info("Network exposure configured",
		zap.Int("admin_port", cfg.AdminPort),
		zap.Int("service_port", cfg.Port))
	return nil
}

// abort is the single transition into the terminal failure state.
func (r *Runner) abort(rc *vulcan_io.RuntimeContext, stage Stage, cause error) error {
	logger := otelzap.Ctx(rc.Ctx)

	logger.Error("Deploy aborted",
		zap.String("stage", string(stage)),
		zap.Error(cause))

	if lines, err := vulcan_err.TailFile(r.Config.ErrorLog(), errorLogTailLines); err == nil && len(lines) > 0 {
		logger.Error("Last lines of service error log",
			zap.String("path", r.Config.ErrorLog()))
		for _, line := range lines {
			logger.Error("  " + line)
		}
	}

	return vulcan_err.NewExpectedError(rc.Ctx, &AbortError{Stage: stage, Cause: cause})
}

// acquireRunLock creates the lock file keyed by installation path.
func (r *Runner) acquireRunLock(ctx context.Context) (func(), error) {
	logger := otelzap.Ctx(ctx)
	path := r.Config.LockPath()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, mark(
				cerr.Newf("lock file %s exists; remove it if no deploy is running", path),
				ErrAnotherRunInProgress)
		}
		return nil, cerr.Wrapf(err, "creating lock file %s", path)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	logger.Debug("Run lock acquired", zap.String("path", path))
	return func() {
		if err := os.Remove(path); err != nil {
			logger.Warn("Failed to remove run lock", zap.Error(err))
		}
	}, nil
}

// report prints the operator summary to stdout. Logs go to stderr, so
// this stays machine-scrapable.
func (r *Runner) report(rc *vulcan_io.RuntimeContext) {
	cfg := r.Config
	baseURL := fmt.Sprintf("http://%s:%d", primaryIP(), cfg.Port)

	fmt.Println()
	fmt.Println("Deployment complete.")
	fmt.Printf("  Run ID:       %s\n", rc.RunID)
	fmt.Printf("  Service:      %s\n", cfg.UnitName())
	fmt.Printf("  Base URL:     %s\n", baseURL)
	fmt.Printf("  Install path: %s\n", cfg.InstallDir)
	fmt.Printf("  Log path:     %s\n", cfg.LogDir)
	if r.backupCreated != "" {
		fmt.Printf("  Backup:       %s\n", r.backupCreated)
	}
	fmt.Println()
	fmt.Printf("Health check:   curl -i %s/\n", baseURL)
}

// primaryIP finds the address the host would route external traffic from.
// No packets are sent; the dial just resolves a source address.
func primaryIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
