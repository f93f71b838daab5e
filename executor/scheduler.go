// Package executor runs plan task graphs on pluggable schedulers.
package executor

import (
	"context"
	"time"

	"github.com/miretskiy/firn/frame"
	"github.com/miretskiy/firn/metrics"
	"github.com/miretskiy/firn/plan"
	"github.com/pkg/errors"
)

// Scheduler resolves one key of a task graph. Tasks only wait for their
// dependencies; independent tasks may run concurrently.
type Scheduler interface {
	Name() string
	Get(ctx context.Context, g plan.Graph, key plan.Key) (*frame.DataFrame, error)
}

// submitFunc starts fn, possibly on another goroutine.
type submitFunc func(key plan.Key, fn func()) error

// runFunc computes a task from its inputs.
type runFunc func(key plan.Key, task plan.Task, inputs []*frame.DataFrame) (*frame.DataFrame, error)

type completion struct {
	key plan.Key
	out *frame.DataFrame
	err error
}

// execute drives g until key is computed. Only the calling goroutine touches
// the bookkeeping; tasks report back over a channel large enough that they
// never block. Cancellation is checked between tasks.
func execute(ctx context.Context, scheduler string, g plan.Graph, key plan.Key, submit submitFunc, run runFunc) (*frame.DataFrame, error) {
	start := time.Now()
	defer func() {
		metrics.GraphDuration.WithLabelValues(scheduler).Observe(time.Since(start).Seconds())
	}()

	order, err := g.Order(key)
	if err != nil {
		return nil, err
	}
	dependents := g.Dependents(order)
	waiting := make(map[plan.Key]int, len(order))
	results := make(map[plan.Key]*frame.DataFrame, len(order))
	done := make(chan completion, len(order))
	inflight := 0

	inputsOf := func(t plan.Task) []*frame.DataFrame {
		in := make([]*frame.DataFrame, len(t.Deps))
		for i, d := range t.Deps {
			in[i] = results[d]
		}
		return in
	}

	var ready []plan.Key
	for _, k := range order {
		waiting[k] = len(g[k].Deps)
		if waiting[k] == 0 {
			ready = append(ready, k)
		}
	}

	var firstErr error
	finish := func(k plan.Key, out *frame.DataFrame) {
		results[k] = out
		for _, d := range dependents[k] {
			if waiting[d]--; waiting[d] == 0 {
				ready = append(ready, d)
			}
		}
	}
	dispatch := func() {
		for len(ready) > 0 && firstErr == nil {
			k := ready[0]
			ready = ready[1:]
			t := g[k]
			if t.Alias() {
				finish(k, results[t.Deps[0]])
				continue
			}
			if err := ctx.Err(); err != nil {
				firstErr = err
				return
			}
			inputs := inputsOf(t)
			inflight++
			err := submit(k, func() {
				out, err := safeRun(run, k, t, inputs)
				metrics.TaskDone(scheduler, err)
				done <- completion{key: k, out: out, err: err}
			})
			if err != nil {
				inflight--
				firstErr = errors.Wrapf(err, "submit %s", k)
			}
		}
	}

	dispatch()
	for firstErr == nil {
		if _, ok := results[key]; ok {
			break
		}
		select {
		case <-ctx.Done():
			firstErr = ctx.Err()
		case c := <-done:
			inflight--
			if c.err != nil {
				firstErr = errors.Wrapf(c.err, "task %s", c.key)
				break
			}
			finish(c.key, c.out)
			dispatch()
		}
	}
	for ; inflight > 0; inflight-- {
		<-done
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results[key], nil
}

// safeRun turns a task panic into an error so the coordinator still hears
// back from the task.
func safeRun(run runFunc, k plan.Key, t plan.Task, inputs []*frame.DataFrame) (out *frame.DataFrame, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errors.Errorf("panic: %v", r)
		}
	}()
	return run(k, t, inputs)
}

func runTask(_ plan.Key, t plan.Task, inputs []*frame.DataFrame) (*frame.DataFrame, error) {
	return t.Run(inputs)
}

// Synchronous runs every task on the calling goroutine.
type Synchronous struct{}

func (Synchronous) Name() string { return "synchronous" }

func (s Synchronous) Get(ctx context.Context, g plan.Graph, key plan.Key) (*frame.DataFrame, error) {
	inline := func(_ plan.Key, fn func()) error {
		fn()
		return nil
	}
	return execute(ctx, s.Name(), g, key, inline, runTask)
}
