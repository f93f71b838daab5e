package executor

import (
	"github.com/miretskiy/firn/config"
	"github.com/miretskiy/firn/serialize"
	"github.com/pkg/errors"
)

// FromConfig builds a context with the configured scheduler. Close releases
// the scheduler's pools.
func FromConfig(o config.Options) (*Context, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	var s Scheduler
	switch o.Executor.Scheduler {
	case config.SchedulerSynchronous:
		s = Synchronous{}
	case config.SchedulerThreads:
		pool, err := NewThreadPool(o.Executor.Workers)
		if err != nil {
			return nil, err
		}
		s = pool
	case config.SchedulerCluster:
		cluster, err := NewLocalCluster(o.Executor.ClusterWorkers, o.Executor.Workers, serialize.ArrowStreamType)
		if err != nil {
			return nil, err
		}
		s = cluster
	default:
		return nil, errors.Errorf("unknown scheduler %q", o.Executor.Scheduler)
	}
	return NewContext(s, o.PlanOptions()), nil
}
