package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/bcpredict/dataset/datasettest"
	"github.com/YuminosukeSato/bcpredict/pipeline"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
)

func TestRun_WritesArtifacts(t *testing.T) {
	data := datasettest.WriteFile(t, datasettest.CSV(datasettest.Synthetic(200, 1)))
	out := filepath.Join(t.TempDir(), "artifacts")
	t.Setenv("BCP_LOG_LEVEL", "error")

	require.NoError(t, run([]string{"-data", data, "-out", out, "-seed", "7"}))
	for _, name := range []string{pipeline.ClassifierFile, pipeline.ScalerFile, pipeline.WeightsFile} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
}

func TestRun_MissingDataset(t *testing.T) {
	out := filepath.Join(t.TempDir(), "artifacts")
	t.Setenv("BCP_LOG_LEVEL", "error")

	err := run([]string{"-data", filepath.Join(t.TempDir(), "missing.csv"), "-out", out})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDataUnavailable))
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_BadFlag(t *testing.T) {
	assert.Error(t, run([]string{"-epochs", "3"}))
}
