// pkg/vulcan_io/context.go

package vulcan_io

import (
	"context"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/telemetry"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/vulcan_err"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RuntimeContext carries the per-command context, logger, span and run
// identity through every stage of a deploy.
type RuntimeContext struct {
	Ctx        context.Context
	Log        *zap.Logger
	Span       trace.Span
	Timestamp  time.Time
	RunID      string
	Command    string
	Attributes map[string]string
}

// NewContext sets up tracing and a scoped logger for one command run.
func NewContext(ctx context.Context, cmdName string) *RuntimeContext {
	if ctx == nil {
		ctx = context.Background()
	}

	runID := uuid.NewString()
	ctx, span := telemetry.Start(ctx, cmdName, attribute.String("run_id", runID))

	log := zap.L().With(
		zap.String("command", cmdName),
		zap.String("run_id", runID),
	).Named(cmdName)

	logEnv(log)

	return &RuntimeContext{
		Ctx:        ctx,
		Log:        log,
		Span:       span,
		Timestamp:  time.Now(),
		RunID:      runID,
		Command:    cmdName,
		Attributes: make(map[string]string),
	}
}

// End logs the command outcome and closes the span. Intended for defer:
//
//	rc := vulcan_io.NewContext(ctx, cmd.Name())
//	defer rc.End(&err)
func (rc *RuntimeContext) End(errPtr *error) {
	defer rc.Span.End()

	duration := time.Since(rc.Timestamp)
	success := *errPtr == nil

	if success {
		rc.Log.Info("Command completed", zap.Duration("duration", duration))
	} else {
		rc.Log.Error("Command failed",
			zap.Duration("duration", duration),
			zap.Error(*errPtr))
	}

	rc.Span.SetAttributes(
		attribute.Bool("success", success),
		attribute.Int64("duration_ms", duration.Milliseconds()),
		attribute.String("args", strings.Join(os.Args[1:], " ")),
		attribute.String("error_type", classifyError(*errPtr)),
	)
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if vulcan_err.IsExpectedUserError(err) {
		return "user"
	}
	return "system"
}

func logEnv(log *zap.Logger) {
	if u, err := user.Current(); err == nil {
		log.Debug("user context",
			zap.String("username", u.Username),
			zap.String("uid", u.Uid),
			zap.String("gid", u.Gid),
		)
	}
	if exe, err := os.Executable(); err == nil {
		log.Debug("executable path", zap.String("path", exe))
	}
}
