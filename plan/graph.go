package plan

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/miretskiy/firn/frame"
	"github.com/pkg/errors"
)

// Task computes the result of one key from the results of Deps, in order.
type Task struct {
	Deps []Key
	// Run is nil for an alias: the result is that of the single dependency.
	Run func(inputs []*frame.DataFrame) (*frame.DataFrame, error)
}

// Alias reports whether the task only forwards its dependency.
func (t Task) Alias() bool { return t.Run == nil }

// Graph maps keys to the tasks producing them.
type Graph map[Key]Task

// TaskGraph materializes a lowered plan. Every lowered node contributes one
// task per partition. When the root has several partitions a terminal task
// concatenates them; the returned key addresses the final result.
func TaskGraph(l *Lowered) (Graph, Key, error) {
	g := make(Graph)
	for id := NodeID(0); int(id) < l.Plan.Len(); id++ {
		if err := addTasks(g, l, id); err != nil {
			return nil, Key{}, err
		}
	}
	root := l.Plan.Node(l.Root)
	name := KeyName(root, l.Root)
	info := l.Partitions[l.Root]
	if info.Count > 1 {
		key := Key{Name: name, Index: Whole}
		g[key] = Task{Deps: slices.Collect(info.Keys(name)), Run: Concat}
		return g, key, nil
	}
	return g, Key{Name: name}, nil
}

func addTasks(g Graph, l *Lowered, id NodeID) error {
	n := l.Plan.Node(id)
	name := KeyName(n, id)
	info := l.Partitions[id]
	children := n.Children()
	childName := func(c NodeID) string { return KeyName(l.Plan.Node(c), c) }

	switch n := n.(type) {
	case *DataFrameScan:
		rows := n.partitionRows
		if rows == 0 {
			rows = n.Frame.Height()
		}
		for i := 0; i < info.Count; i++ {
			offset := i * rows
			g[Key{name, i}] = Task{Run: func([]*frame.DataFrame) (*frame.DataFrame, error) {
				return n.scan(offset, rows)
			}}
		}
		return nil

	case *Projection, *Filter, *HStack, *Cache, *Select:
		for i := 0; i < info.Count; i++ {
			deps := make([]Key, len(children))
			for j, c := range children {
				deps[j] = Key{childName(c), i}
			}
			g[Key{name, i}] = Task{Deps: deps, Run: n.evaluate}
		}
		return nil

	case *Union:
		if n.Slice != nil {
			break
		}
		i := 0
		for _, c := range children {
			for k := range l.Partitions[c].Keys(childName(c)) {
				g[Key{name, i}] = Task{Deps: []Key{k}}
				i++
			}
		}
		return nil

	case *Repartition:
		c := children[0]
		g[Key{name, 0}] = Task{
			Deps: slices.Collect(l.Partitions[c].Keys(childName(c))),
			Run:  n.evaluate,
		}
		return nil
	}

	// Single-partition default.
	if info.Count > 1 {
		return errors.Wrapf(ErrNotImplemented, "generating %d tasks for %s", info.Count, name)
	}
	deps := make([]Key, len(children))
	for j, c := range children {
		if l.Partitions[c].Count > 1 {
			return errors.Wrapf(ErrNotImplemented, "generating tasks for %s with child %s", name, childName(c))
		}
		deps[j] = Key{childName(c), 0}
	}
	g[Key{name, 0}] = Task{Deps: deps, Run: n.evaluate}
	return nil
}

// Order returns the keys target depends on, dependencies first, ending with
// target. It fails on missing keys and cycles.
func (g Graph) Order(target Key) ([]Key, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[Key]int)
	var order []Key
	var visit func(k Key) error
	visit = func(k Key) error {
		switch state[k] {
		case visiting:
			return errors.Errorf("task graph has a cycle through %s", k)
		case done:
			return nil
		}
		t, ok := g[k]
		if !ok {
			return errors.Errorf("task graph has no key %s", k)
		}
		if t.Alias() && len(t.Deps) != 1 {
			return errors.Errorf("alias %s must have exactly one dependency", k)
		}
		state[k] = visiting
		for _, d := range t.Deps {
			if err := visit(d); err != nil {
				return err
			}
		}
		state[k] = done
		order = append(order, k)
		return nil
	}
	if err := visit(target); err != nil {
		return nil, err
	}
	return order, nil
}

// Dependents inverts the dependency edges of the keys in order.
func (g Graph) Dependents(order []Key) map[Key][]Key {
	out := make(map[Key][]Key, len(order))
	for _, k := range order {
		for _, d := range g[k].Deps {
			out[d] = append(out[d], k)
		}
	}
	return out
}

func compareKeys(a, b Key) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// String lists the tasks sorted by key, one per line.
func (g Graph) String() string {
	keys := make([]Key, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	var b strings.Builder
	for _, k := range keys {
		t := g[k]
		deps := make([]string, len(t.Deps))
		for i, d := range t.Deps {
			deps[i] = d.String()
		}
		verb := "<-"
		if t.Alias() {
			verb = "="
		}
		fmt.Fprintf(&b, "%s %s [%s]\n", k, verb, strings.Join(deps, ", "))
	}
	return b.String()
}
