// pkg/platform/platform.go

// Package platform models the mutable host state vulcan drives: the OS
// package manager, the process supervisor, and the firewall. The deploy
// state machine only talks to these interfaces, so it can be exercised
// against fakes without a real host.
package platform

import "context"

// PackageManager installs OS-level prerequisites.
type PackageManager interface {
	// EnsurePackages installs the named packages, refreshing the package
	// index first. Already-installed packages are a no-op.
	EnsurePackages(ctx context.Context, packages []string) error
}

// ServiceManager drives the process supervisor that owns the service once
// vulcan hands it off.
//
// IsActive and IsEnabled tolerate units the supervisor has never heard of:
// an unknown unit reports (false, nil), not an error. That distinction is
// what lets teardown run safely on a host with no prior installation.
type ServiceManager interface {
	IsActive(ctx context.Context, unit string) (bool, error)
	IsEnabled(ctx context.Context, unit string) (bool, error)
	Stop(ctx context.Context, unit string) error
	Disable(ctx context.Context, unit string) error
	Start(ctx context.Context, unit string) error
	Enable(ctx context.Context, unit string) error
	DaemonReload(ctx context.Context) error
}

// FirewallManager opens inbound ports and flips the firewall to enforcing.
type FirewallManager interface {
	AllowPort(ctx context.Context, port int) error
	Enable(ctx context.Context) error
}
