// pkg/vulcan_err/vulcan_err_test.go

package vulcan_err

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedErrorClassification(t *testing.T) {
	ctx := context.Background()

	base := cerr.New("service did not become active")
	expected := NewExpectedError(ctx, base)

	assert.True(t, IsExpectedUserError(expected))
	assert.True(t, IsExpectedUserError(cerr.Wrap(expected, "deploy")), "wrapping keeps the classification")
	assert.False(t, IsExpectedUserError(base))
	assert.False(t, IsExpectedUserError(nil))
	assert.Nil(t, NewExpectedError(ctx, nil))

	// The original error stays reachable through the wrapper.
	assert.ErrorIs(t, expected, base)
	assert.Equal(t, base.Error(), expected.Error())
}

func TestExtractSummary(t *testing.T) {
	tests := []struct {
		name   string
		output string
		n      int
		want   string
	}{
		{
			name:   "last_lines_of_noisy_output",
			output: "Reading package lists...\nBuilding dependency tree...\n\nE: Unable to locate package python3-venv\n",
			n:      2,
			want:   "Building dependency tree...\nE: Unable to locate package python3-venv",
		},
		{
			name:   "blank_lines_skipped",
			output: "error: build failed\n\n\n",
			n:      3,
			want:   "error: build failed",
		},
		{
			name:   "empty_output",
			output: "",
			n:      2,
			want:   "",
		},
		{
			name:   "zero_n_still_returns_something",
			output: "first\nlast",
			n:      0,
			want:   "last",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSummary(tt.output, tt.n))
		})
	}
}

func TestTailFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error.log")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\nfour\n"), 0o644))

	lines, err := TailFile(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "four"}, lines)

	lines, err = TailFile(path, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four"}, lines)
}

func TestTailFileMissingIsNotAnError(t *testing.T) {
	lines, err := TailFile(filepath.Join(t.TempDir(), "absent.log"), 5)
	require.NoError(t, err)
	assert.Nil(t, lines)
}
