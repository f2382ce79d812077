package stats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deadsy/adgrid/refine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveTimingsWritesLabeledArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timings.json")
	values := make([]float64, len(TimerLabels))
	for i := range values {
		values[i] = float64(i)
	}
	require.NoError(t, SaveTimings(path, values))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "subdivision")
}

func TestSaveMetricsWritesTetMetric(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.json")
	res := &refine.Result{TotalTet: 10, ActiveTet: 3, MinRadiusRatio: 0.2, ActiveRadiusRatio: 0.5}
	require.NoError(t, SaveMetrics(path, res))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "active_tet")
}
