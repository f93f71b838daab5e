package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/miretskiy/firn/plan"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	o, err := Load("")
	require.NoError(t, err)
	require.Equal(t, SchedulerSynchronous, o.Executor.Scheduler)
	require.Equal(t, "warn", o.Executor.FallbackMode)
	require.Equal(t, 2, o.Executor.ClusterWorkers)
	require.False(t, o.PandasCompatible)
	require.Equal(t, plan.Options{FallbackMode: plan.FallbackWarn}, o.PlanOptions())
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("FIRN_EXECUTOR_SCHEDULER", "threads")
	t.Setenv("FIRN_EXECUTOR_MAX_ROWS_PER_PARTITION", "1000")
	t.Setenv("FIRN_EXECUTOR_FALLBACK_MODE", "raise")
	t.Setenv("FIRN_PANDAS_COMPATIBLE", "true")

	o, err := Load("")
	require.NoError(t, err)
	require.Equal(t, SchedulerThreads, o.Executor.Scheduler)
	require.Equal(t, 1000, o.Executor.MaxRowsPerPartition)
	require.True(t, o.PandasCompatible)
	require.Equal(t, plan.FallbackRaise, o.PlanOptions().FallbackMode)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firn.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
executor:
  scheduler: local-cluster
  cluster_workers: 3
  workers: 2
log:
  level: debug
`), 0o600))

	o, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, SchedulerCluster, o.Executor.Scheduler)
	require.Equal(t, 3, o.Executor.ClusterWorkers)
	require.Equal(t, 2, o.Executor.Workers)
	require.Equal(t, "debug", o.Log.Level)
	require.Equal(t, "text", o.Log.Format)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		err  string
	}{
		{"scheduler", map[string]string{"FIRN_EXECUTOR_SCHEDULER": "dask"}, `unknown scheduler "dask"`},
		{"fallback", map[string]string{"FIRN_EXECUTOR_FALLBACK_MODE": "ignore"}, "executor.fallback_mode"},
		{"rows", map[string]string{"FIRN_EXECUTOR_MAX_ROWS_PER_PARTITION": "-1"}, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.ErrorContains(t, err, tt.err)
		})
	}
}
