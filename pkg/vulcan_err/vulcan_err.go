// pkg/vulcan_err/vulcan_err.go

package vulcan_err

import (
	"context"
	"errors"
	"os"
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// expectedError marks a failure caused by operator input or host state
// rather than a bug in vulcan. Expected errors are reported without a
// stack trace and still exit non-zero.
type expectedError struct {
	err error
}

func (e *expectedError) Error() string { return e.err.Error() }
func (e *expectedError) Unwrap() error { return e.err }

// NewExpectedError wraps err as an operator-facing failure. The context is
// accepted for parity with call sites that have one; it is not consulted.
func NewExpectedError(_ context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &expectedError{err: err}
}

// IsExpectedUserError reports whether err (or anything it wraps) was
// created by NewExpectedError.
func IsExpectedUserError(err error) bool {
	var ee *expectedError
	return errors.As(err, &ee)
}

// ExtractSummary returns the last n non-empty lines of subprocess output,
// trimmed. Package managers and pip bury the actual failure at the bottom
// of hundreds of lines; the tail is what an operator needs to see first.
func ExtractSummary(output string, n int) string {
	if n <= 0 {
		n = 1
	}
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	var kept []string
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		kept = append([]string{line}, kept...)
	}
	return strings.Join(kept, "\n")
}

// TailFile returns up to n trailing lines of the file at path. A missing
// file is not an error; diagnostics simply have nothing to show.
func TailFile(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cerr.Wrapf(err, "reading %s", path)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
