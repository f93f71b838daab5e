package executor

import (
	"context"
	"hash/fnv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/miretskiy/firn/frame"
	"github.com/miretskiy/firn/logger"
	"github.com/miretskiy/firn/plan"
	"github.com/miretskiy/firn/serialize"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
)

// Cluster is a scheduler whose workers only exchange encoded partitions.
// Every worker and the scheduler itself need the codecs installed before
// a graph can run.
type Cluster interface {
	Scheduler
	ID() string
	// RunOnWorkers calls fn once with each worker's registry.
	RunOnWorkers(fn func(*serialize.Registry) error) error
	// RunOnScheduler calls fn with the scheduler's registry.
	RunOnScheduler(fn func(*serialize.Registry) error) error
}

type worker struct {
	index    int
	pool     *ants.Pool
	registry *serialize.Registry
}

// LocalCluster emulates a distributed cluster in process. Each worker owns a
// pool and a codec registry; task inputs and outputs are encoded whenever
// they cross from the scheduler to a worker and back.
type LocalCluster struct {
	id       string
	codec    string
	workers  []*worker
	registry *serialize.Registry
	shipped  atomic.Int64
}

// NewLocalCluster starts n workers, each running up to threads tasks at once.
// Partitions are shipped with the codec called codec.
func NewLocalCluster(n, threads int, codec string) (*LocalCluster, error) {
	if n <= 0 {
		return nil, errors.Errorf("local cluster needs at least one worker, got %d", n)
	}
	c := &LocalCluster{
		id:       uuid.NewString(),
		codec:    codec,
		registry: serialize.NewRegistry(),
	}
	for i := 0; i < n; i++ {
		pool, err := newPool(threads, "local-cluster")
		if err != nil {
			c.Close()
			return nil, err
		}
		c.workers = append(c.workers, &worker{index: i, pool: pool, registry: serialize.NewRegistry()})
	}
	logger.Debug("local cluster started", "id", c.id, "workers", n)
	return c, nil
}

func (*LocalCluster) Name() string { return "local-cluster" }

// ID identifies the cluster for the lifetime of the process.
func (c *LocalCluster) ID() string { return c.id }

// Workers returns the number of workers.
func (c *LocalCluster) Workers() int { return len(c.workers) }

// Shipped returns the number of partitions encoded so far.
func (c *LocalCluster) Shipped() int64 { return c.shipped.Load() }

func (c *LocalCluster) RunOnWorkers(fn func(*serialize.Registry) error) error {
	for _, w := range c.workers {
		if err := fn(w.registry); err != nil {
			return errors.Wrapf(err, "worker %d", w.index)
		}
	}
	return nil
}

func (c *LocalCluster) RunOnScheduler(fn func(*serialize.Registry) error) error {
	return fn(c.registry)
}

// workerFor places a key on a worker by hashing its name, so all partitions
// of a node land on the same worker when the index agrees.
func (c *LocalCluster) workerFor(k plan.Key) *worker {
	h := fnv.New32a()
	h.Write([]byte(k.String()))
	return c.workers[int(h.Sum32()%uint32(len(c.workers)))]
}

// ship moves a partition across the worker boundary by encoding it with from
// and decoding it with to.
func (c *LocalCluster) ship(df *frame.DataFrame, from, to *serialize.Registry) (*frame.DataFrame, error) {
	enc, err := from.Lookup(c.codec)
	if err != nil {
		return nil, err
	}
	dec, err := to.Lookup(c.codec)
	if err != nil {
		return nil, err
	}
	b, err := enc.Encode(df)
	if err != nil {
		return nil, err
	}
	c.shipped.Add(1)
	return dec.Decode(b)
}

func (c *LocalCluster) Get(ctx context.Context, g plan.Graph, key plan.Key) (*frame.DataFrame, error) {
	submit := func(k plan.Key, fn func()) error { return c.workerFor(k).pool.Submit(fn) }
	run := func(k plan.Key, t plan.Task, inputs []*frame.DataFrame) (*frame.DataFrame, error) {
		w := c.workerFor(k)
		local := make([]*frame.DataFrame, len(inputs))
		for i, in := range inputs {
			var err error
			if local[i], err = c.ship(in, c.registry, w.registry); err != nil {
				return nil, errors.Wrapf(err, "ship input %s to worker %d", t.Deps[i], w.index)
			}
		}
		out, err := t.Run(local)
		if err != nil {
			return nil, err
		}
		back, err := c.ship(out, w.registry, c.registry)
		if err != nil {
			return nil, errors.Wrapf(err, "ship %s from worker %d", k, w.index)
		}
		return back, nil
	}
	return execute(ctx, c.Name(), g, key, submit, run)
}

// Close releases the worker pools.
func (c *LocalCluster) Close() error {
	var first error
	for _, w := range c.workers {
		if err := w.pool.ReleaseTimeout(3 * time.Second); err != nil && first == nil {
			first = err
		}
	}
	return first
}
