// pkg/execute/execute.go

package execute

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/telemetry"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_err"
	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Package execute provides command execution with structured logging.
// Subprocess output is always captured so failures can surface a summary;
// it is mirrored to stderr so stdout stays reserved for operator reports.
// Shell execution is not supported; pass argv explicitly.

// Options controls a single subprocess invocation.
type Options struct {
	Command string
	Args    []string
	Dir     string
	Env     []string // appended to the parent environment
	Capture bool     // return captured output to the caller
	Timeout time.Duration
	Retries int
	Delay   time.Duration
	Logger  *zap.Logger
	DryRun  bool
}

var (
	// DefaultLogger is used when Options.Logger is nil.
	DefaultLogger *zap.Logger

	// DefaultDryRun short-circuits every invocation; set by --dry-run.
	DefaultDryRun bool
)

const defaultTimeoutDuration = 10 * time.Minute

// Run executes a command with structured logging and proper error handling.
func Run(ctx context.Context, opts Options) (string, error) {
	cmdStr := buildCommandString(opts.Command, opts.Args...)

	log := opts.Logger
	if log == nil {
		log = DefaultLogger
	}
	if log == nil {
		log = zap.NewNop()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithTimeout(ctx, defaultTimeout(opts.Timeout))
	defer cancel()

	runCtx, span := telemetry.Start(runCtx, "execute.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("command", opts.Command),
		attribute.String("args", strings.Join(opts.Args, " ")),
	)

	if opts.DryRun || DefaultDryRun {
		log.Info("Dry run mode - command not executed", zap.String("command", cmdStr))
		return "", nil
	}

	log.Debug("Starting execution", zap.String("command", cmdStr))

	attempts := max(1, opts.Retries)
	var output string
	var err error

	for i := 1; i <= attempts; i++ {
		cmd := exec.CommandContext(runCtx, opts.Command, opts.Args...)
		if opts.Dir != "" {
			cmd.Dir = opts.Dir
		}
		if len(opts.Env) > 0 {
			cmd.Env = append(os.Environ(), opts.Env...)
		}

		var buf bytes.Buffer
		writer := io.MultiWriter(os.Stderr, &buf)
		cmd.Stdout = writer
		cmd.Stderr = writer

		err = cmd.Run()
		output = buf.String()

		if err == nil {
			log.Debug("Execution succeeded", zap.String("command", cmdStr))
			break
		}

		summary := vulcan_err.ExtractSummary(output, 2)
		span.RecordError(err)
		log.Error("Execution failed",
			zap.Int("attempt", i),
			zap.String("command", cmdStr),
			zap.String("summary", summary),
			zap.Error(err),
		)

		if i < attempts {
			time.Sleep(opts.Delay)
		}
	}

	if err != nil {
		return output, cerr.Wrapf(err, "command %q failed after %d attempt(s)", cmdStr, attempts)
	}

	if opts.Capture {
		return output, nil
	}
	return "", nil
}

// RunSimple executes a command with minimal options.
func RunSimple(ctx context.Context, cmd string, args ...string) error {
	_, err := Run(ctx, Options{
		Command: cmd,
		Args:    args,
	})
	return err
}

// Cmd returns a function that executes the given command and args with
// default options; handy for step tables.
func Cmd(ctx context.Context, cmd string, args ...string) func() error {
	return func() error {
		return RunSimple(ctx, cmd, args...)
	}
}
