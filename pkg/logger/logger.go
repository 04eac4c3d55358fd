// pkg/logger/logger.go

package logger

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  *zap.Logger
	once sync.Once
)

// DefaultLogPath is where vulcan writes its own run log when the directory
// is writable. Service logs live elsewhere and are owned by the unit.
const DefaultLogPath = "/var/log/vulcan/vulcan.log"

// Initialize sets up the global zap logger. Prefers console + file output;
// falls back to console-only when the log directory cannot be created
// (non-root invocations, CI).
func Initialize() {
	once.Do(func() {
		cfg := zap.Config{
			Level:            zap.NewAtomicLevelAt(zap.InfoLevel),
			Encoding:         "console",
			OutputPaths:      outputPaths(),
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig:    encoderConfig(),
		}

		built, err := cfg.Build()
		if err != nil {
			// Last resort: a bare production logger to stderr.
			built = zap.Must(zap.NewProduction())
		}

		log = built
		zap.ReplaceGlobals(log)
		otelzap.ReplaceGlobals(otelzap.New(log))
	})
}

// InitFallback guarantees a usable logger even if Initialize was never
// called, e.g. from test binaries or early panics.
func InitFallback() {
	if log == nil {
		Initialize()
	}
}

// L returns the process-wide logger.
func L() *zap.Logger {
	InitFallback()
	return log
}

// Sync flushes buffered log entries. Errors syncing stdout/stderr are
// expected on some platforms and ignored by callers.
func Sync() error {
	if log == nil {
		return nil
	}
	return log.Sync()
}

func outputPaths() []string {
	dir := filepath.Dir(DefaultLogPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return []string{"stderr"}
	}
	return []string{"stderr", DefaultLogPath}
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return ec
}
