package executor

import (
	"context"
	"runtime"
	"time"

	"github.com/miretskiy/firn/frame"
	"github.com/miretskiy/firn/logger"
	"github.com/miretskiy/firn/plan"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
)

// ThreadPool runs tasks on a bounded pool of goroutines.
type ThreadPool struct {
	pool *ants.Pool
}

func newPool(workers int, name string) (*ants.Pool, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v any) {
		logger.Error("task panic", "scheduler", name, "panic", v)
	}))
	if err != nil {
		return nil, errors.Wrapf(err, "create %s pool", name)
	}
	return pool, nil
}

// NewThreadPool starts a pool of the given size; zero or less uses
// GOMAXPROCS.
func NewThreadPool(workers int) (*ThreadPool, error) {
	pool, err := newPool(workers, "threads")
	if err != nil {
		return nil, err
	}
	logger.Debug("thread pool started", "workers", pool.Cap())
	return &ThreadPool{pool: pool}, nil
}

func (*ThreadPool) Name() string { return "threads" }

// Workers returns the pool capacity.
func (p *ThreadPool) Workers() int { return p.pool.Cap() }

func (p *ThreadPool) Get(ctx context.Context, g plan.Graph, key plan.Key) (*frame.DataFrame, error) {
	submit := func(_ plan.Key, fn func()) error { return p.pool.Submit(fn) }
	return execute(ctx, p.Name(), g, key, submit, runTask)
}

// Close waits briefly for running tasks and releases the pool.
func (p *ThreadPool) Close() error {
	return p.pool.ReleaseTimeout(3 * time.Second)
}
