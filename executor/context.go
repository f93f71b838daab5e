package executor

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/miretskiy/firn/frame"
	"github.com/miretskiy/firn/logger"
	"github.com/miretskiy/firn/plan"
	"github.com/miretskiy/firn/serialize"
)

type clusterRegistration struct {
	once sync.Once
	err  error
}

// Context owns everything an evaluation needs beyond the plan: the
// scheduler, lowering options and the serializer registrations. Serializers
// are registered at most once per Context and at most once per cluster ID,
// however many goroutines evaluate concurrently.
type Context struct {
	Scheduler Scheduler
	Options   plan.Options

	codec    serialize.Codec
	registry *serialize.Registry
	once     sync.Once
	clusters sync.Map // cluster ID -> *clusterRegistration

	registrations atomic.Int64
}

// NewContext returns a context shipping partitions with the arrow stream
// codec.
func NewContext(s Scheduler, opts plan.Options) *Context {
	return &Context{
		Scheduler: s,
		Options:   opts,
		codec:     serialize.NewArrowStream(nil),
		registry:  serialize.NewRegistry(),
	}
}

// Registry is the calling process's codec registry.
func (c *Context) Registry() *serialize.Registry { return c.registry }

// Registrations counts the registry installs performed, in this process and
// on clusters.
func (c *Context) Registrations() int64 { return c.registrations.Load() }

func (c *Context) install(r *serialize.Registry) error {
	r.Register(c.codec)
	c.registrations.Add(1)
	return nil
}

// RegisterSerializers installs the codecs in this process. Only the first
// call does any work; concurrent callers return once it is done.
func (c *Context) RegisterSerializers() {
	c.once.Do(func() {
		_ = c.install(c.registry)
		logger.Debug("serializers registered", "codec", c.codec.Name())
	})
}

// RegisterOnCluster installs the codecs on every worker and the scheduler of
// cl, once per cluster ID.
func (c *Context) RegisterOnCluster(cl Cluster) error {
	v, _ := c.clusters.LoadOrStore(cl.ID(), &clusterRegistration{})
	reg := v.(*clusterRegistration)
	reg.once.Do(func() {
		if reg.err = cl.RunOnWorkers(c.install); reg.err != nil {
			return
		}
		reg.err = cl.RunOnScheduler(c.install)
		logger.Debug("serializers registered on cluster", "cluster", cl.ID(), "err", reg.err)
	})
	return reg.err
}

// Lower lowers the plan with the context's options and materializes its task
// graph.
func (c *Context) Lower(p *plan.Plan, root plan.NodeID) (*plan.Lowered, plan.Graph, plan.Key, error) {
	lowered, err := plan.Lower(p, root, c.Options)
	if err != nil {
		return nil, nil, plan.Key{}, err
	}
	g, key, err := plan.TaskGraph(lowered)
	if err != nil {
		return nil, nil, plan.Key{}, err
	}
	return lowered, g, key, nil
}

// Evaluate lowers the plan, builds its task graph and resolves the result
// through the scheduler.
func (c *Context) Evaluate(ctx context.Context, p *plan.Plan, root plan.NodeID) (*frame.DataFrame, error) {
	_, g, key, err := c.Lower(p, root)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, g, key)
}

// Run resolves key of a graph produced by Lower, registering serializers
// first.
func (c *Context) Run(ctx context.Context, g plan.Graph, key plan.Key) (*frame.DataFrame, error) {
	c.RegisterSerializers()
	if cl, ok := c.Scheduler.(Cluster); ok {
		if err := c.RegisterOnCluster(cl); err != nil {
			return nil, err
		}
	}
	return c.Scheduler.Get(ctx, g, key)
}

// Close releases the scheduler's resources when it holds any.
func (c *Context) Close() error {
	if closer, ok := c.Scheduler.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
