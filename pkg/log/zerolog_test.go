package log

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bcErrors "github.com/YuminosukeSato/bcpredict/pkg/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestZerologLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.With(ComponentKey, "pipeline").Info("Training completed",
		OperationKey, OperationFit,
		SamplesKey, 455,
		AccuracyKey, 0.96,
	)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Training completed", entry["message"])
	assert.Equal(t, "pipeline", entry[ComponentKey])
	assert.Equal(t, OperationFit, entry[OperationKey])
	assert.Equal(t, 455.0, entry[SamplesKey])
	assert.Equal(t, 0.96, entry[AccuracyKey])
}

func TestZerologLogger_ErrorCarriesStacktrace(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "info", Output: &buf})
	require.NoError(t, err)

	cause := bcErrors.NewModelLoadError("classifier.gob", "missing", nil)
	logger.Error("Load failed", cause, ArtifactKey, "classifier.gob")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0]["error"], "cannot load classifier.gob")
	assert.Contains(t, entries[0][StacktraceKey], "zerolog_test.go")
	assert.Equal(t, "classifier.gob", entries[0][ArtifactKey])
}

func TestZerologLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)

	ctx := context.Background()
	assert.False(t, logger.Enabled(ctx, LevelInfo))
	assert.True(t, logger.Enabled(ctx, LevelWarn))
	assert.True(t, logger.Enabled(ctx, LevelError))

	logger.Info("dropped")
	logger.Warn("kept")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["message"])
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(Options{Level: "verbose"})
	assert.Error(t, err)
}

func TestNew_RotatingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bcpredict.log")

	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1, Output: &buf})
	require.NoError(t, err)

	logger.Info("written twice")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written twice")
	assert.Contains(t, buf.String(), "written twice")
}

func TestWarnFunc_EmbedsWarningFields(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "info", Output: &buf})
	require.NoError(t, err)

	warn := WarnFunc(logger.Zerolog())
	warn(bcErrors.NewConvergenceWarning("lbfgs", 1000, "iteration limit"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "ConvergenceWarning", entries[0]["type"])
	assert.Equal(t, "lbfgs", entries[0]["algorithm"])
}

func TestMarshalStack(t *testing.T) {
	assert.Nil(t, MarshalStack(os.ErrNotExist))
	assert.NotNil(t, MarshalStack(errors.WithStack(os.ErrNotExist)))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"trace", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
