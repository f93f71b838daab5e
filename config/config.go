// Package config loads process options from defaults, an optional config
// file and FIRN_ environment variables.
package config

import (
	"strings"

	"github.com/miretskiy/firn/logger"
	"github.com/miretskiy/firn/plan"
	"github.com/miretskiy/firn/temporal"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g.
// FIRN_EXECUTOR_SCHEDULER.
const EnvPrefix = "FIRN"

// Scheduler names accepted by Executor.Scheduler.
const (
	SchedulerSynchronous = "synchronous"
	SchedulerThreads     = "threads"
	SchedulerCluster     = "local-cluster"
)

// Executor configures lowering and task scheduling.
type Executor struct {
	Scheduler           string `mapstructure:"scheduler"`
	FallbackMode        string `mapstructure:"fallback_mode"`
	MaxRowsPerPartition int    `mapstructure:"max_rows_per_partition"`
	// Workers sizes the thread pool, or the per-worker pools of a cluster.
	Workers int `mapstructure:"workers"`
	// ClusterWorkers is the number of local cluster workers.
	ClusterWorkers int `mapstructure:"cluster_workers"`
}

// Log configures the process logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Options is the full process configuration.
type Options struct {
	Executor         Executor `mapstructure:"executor"`
	PandasCompatible bool     `mapstructure:"pandas_compatible"`
	Log              Log      `mapstructure:"log"`
}

var defaults = map[string]any{
	"executor.scheduler":              SchedulerSynchronous,
	"executor.fallback_mode":          string(plan.FallbackWarn),
	"executor.max_rows_per_partition": 0,
	"executor.workers":                0,
	"executor.cluster_workers":        2,
	"pandas_compatible":               false,
	"log.level":                       "INFO",
	"log.format":                      "text",
}

// Load reads the configuration. path may be empty; a missing file is an
// error only when path names one explicitly.
func Load(path string) (Options, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Options{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	var o Options
	if err := v.Unmarshal(&o); err != nil {
		return Options{}, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}

// Validate fails fast on values no component would accept.
func (o Options) Validate() error {
	switch o.Executor.Scheduler {
	case SchedulerSynchronous, SchedulerThreads, SchedulerCluster:
	default:
		return errors.Errorf("executor.scheduler: unknown scheduler %q", o.Executor.Scheduler)
	}
	if _, err := plan.ParseFallbackMode(o.Executor.FallbackMode); err != nil {
		return errors.Wrap(err, "executor.fallback_mode")
	}
	if o.Executor.MaxRowsPerPartition < 0 {
		return errors.Errorf("executor.max_rows_per_partition: must not be negative, got %d", o.Executor.MaxRowsPerPartition)
	}
	if o.Executor.Workers < 0 || o.Executor.ClusterWorkers < 0 {
		return errors.New("executor: worker counts must not be negative")
	}
	return nil
}

// PlanOptions converts the executor section into lowering options.
func (o Options) PlanOptions() plan.Options {
	mode, _ := plan.ParseFallbackMode(o.Executor.FallbackMode)
	return plan.Options{FallbackMode: mode, MaxRowsPerPartition: o.Executor.MaxRowsPerPartition}
}

// Apply installs the process-wide pieces: logger and temporal options.
func (o Options) Apply() {
	logger.Init(logger.Config{Level: o.Log.Level, Format: o.Log.Format})
	temporal.SetOptions(temporal.Options{PandasCompatible: o.PandasCompatible})
}
