// pkg/deploy/errors.go

package deploy

import (
	"fmt"

	cerr "github.com/cockroachdb/errors"
)

// Failure taxonomy. Stage implementations mark their errors with one of
// these references so callers and tests can match with errors.Is without
// parsing messages. Everything except the HTTP half of verification is
// fatal: no retries, no partial-success continuation, no automatic
// restore from a backup record.
var (
	ErrMissingArtifact      = cerr.New("missing artifact")
	ErrPackageInstall       = cerr.New("package install failed")
	ErrDependencyInstall    = cerr.New("dependency install failed")
	ErrCopy                 = cerr.New("copy failed")
	ErrGeneration           = cerr.New("client generation failed")
	ErrServiceConfigWrite   = cerr.New("service config write failed")
	ErrPermissionSetup      = cerr.New("permission setup failed")
	ErrStart                = cerr.New("service start failed")
	ErrVerify               = cerr.New("service verification failed")
	ErrFirewallConfig       = cerr.New("firewall config failed")
	ErrBackup               = cerr.New("backup failed")
	ErrAnotherRunInProgress = cerr.New("another deploy run holds the lock")
)

// AbortError is the terminal failure state: the stage that failed and the
// underlying cause. errors.Is sees through it to the taxonomy mark.
type AbortError struct {
	Stage Stage
	Cause error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("deploy aborted at %s: %v", e.Stage, e.Cause)
}

func (e *AbortError) Unwrap() error { return e.Cause }

// mark attaches a taxonomy reference to err while preserving the cause
// chain.
func mark(err, reference error) error {
	if err == nil {
		return nil
	}
	return cerr.Mark(err, reference)
}
