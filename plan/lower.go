package plan

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/miretskiy/firn/logger"
	"github.com/miretskiy/firn/metrics"
	"github.com/pkg/errors"
)

// FallbackMode selects what happens when a node cannot run on multiple
// partitions and has to be collapsed to one.
type FallbackMode string

const (
	// FallbackWarn logs the diagnostic and collapses the node.
	FallbackWarn FallbackMode = "warn"
	// FallbackRaise fails lowering with ErrNotImplemented.
	FallbackRaise FallbackMode = "raise"
	// FallbackSilent collapses the node without logging.
	FallbackSilent FallbackMode = "silent"
)

// ParseFallbackMode validates a mode name. The empty string is warn.
func ParseFallbackMode(s string) (FallbackMode, error) {
	switch m := FallbackMode(strings.ToLower(s)); m {
	case "":
		return FallbackWarn, nil
	case FallbackWarn, FallbackRaise, FallbackSilent:
		return m, nil
	}
	return "", errors.Errorf("unknown fallback mode %q (expected warn, raise or silent)", s)
}

// Options configures Lower.
type Options struct {
	FallbackMode FallbackMode
	// MaxRowsPerPartition splits a DataFrameScan into
	// ceil(rows / MaxRowsPerPartition) partitions. Zero keeps one partition.
	MaxRowsPerPartition int
	// Logger receives fallback warnings; nil uses the process logger.
	Logger *slog.Logger
}

// Diagnostic records a node collapsed to a single partition.
type Diagnostic struct {
	Node    NodeID // in the source plan
	Kind    string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %d: %s", d.Kind, d.Node, d.Message)
}

// Lowered is a partitioned plan. Partitions covers every node of Plan.
type Lowered struct {
	Plan       *Plan
	Root       NodeID
	Partitions map[NodeID]PartitionInfo
	// Diagnostics lists the fallbacks taken, in lowering order.
	Diagnostics []Diagnostic
	// RuleCalls counts rule applications per source node.
	RuleCalls map[NodeID]int
}

// Count returns the partition count of the lowered root.
func (l *Lowered) Count() int { return l.Partitions[l.Root].Count }

type lowerer struct {
	src         *Plan
	opts        Options
	log         *slog.Logger
	out         *Lowered
	memo        map[NodeID]NodeID
	repartition map[NodeID]NodeID
}

// Lower rewrites the plan rooted at root for partitioned execution. Nodes are
// lowered bottom-up and each source node exactly once, however many parents
// share it. The result is deterministic for a given plan and options.
func Lower(p *Plan, root NodeID, opts Options) (*Lowered, error) {
	if err := p.Validate(root); err != nil {
		return nil, err
	}
	if opts.FallbackMode == "" {
		opts.FallbackMode = FallbackWarn
	}
	l := &lowerer{
		src:  p,
		opts: opts,
		log:  opts.Logger,
		out: &Lowered{
			Plan:       New(),
			Partitions: make(map[NodeID]PartitionInfo),
			RuleCalls:  make(map[NodeID]int),
		},
		memo:        make(map[NodeID]NodeID),
		repartition: make(map[NodeID]NodeID),
	}
	if l.log == nil {
		l.log = logger.Get()
	}
	newRoot, err := l.lower(root)
	if err != nil {
		return nil, err
	}
	l.out.Root = newRoot
	return l.out, nil
}

func (l *lowerer) lower(id NodeID) (NodeID, error) {
	if out, ok := l.memo[id]; ok {
		return out, nil
	}
	n := l.src.Node(id)
	children := make([]NodeID, len(n.Children()))
	for i, c := range n.Children() {
		lowered, err := l.lower(c)
		if err != nil {
			return 0, err
		}
		children[i] = lowered
	}
	l.out.RuleCalls[id]++
	metrics.LoweredNodes.WithLabelValues(n.Kind()).Inc()
	out, err := l.apply(id, n, children)
	if err != nil {
		return 0, err
	}
	l.memo[id] = out
	return out, nil
}

func (l *lowerer) count(id NodeID) int { return l.out.Partitions[id].Count }

func (l *lowerer) emit(n Node, count int) NodeID {
	id := l.out.Plan.Add(n)
	l.out.Partitions[id] = PartitionInfo{Count: count}
	return id
}

func (l *lowerer) apply(id NodeID, n Node, children []NodeID) (NodeID, error) {
	switch n := n.(type) {
	case *DataFrameScan:
		scan := *n
		count := 1
		if rows, limit := n.Frame.Height(), l.opts.MaxRowsPerPartition; limit > 0 && rows > limit {
			count = (rows + limit - 1) / limit
			scan.partitionRows = limit
		}
		return l.emit(&scan, count), nil

	case *Projection, *Filter, *HStack, *Cache, *Select:
		count := l.count(children[0])
		for _, c := range children[1:] {
			if l.count(c) != count {
				return l.fallback(id, n, children, "children have mismatched partition counts")
			}
		}
		return l.emit(n.withChildren(children), count), nil

	case *Union:
		if n.Slice != nil {
			return l.fallback(id, n, children, "slice is not supported for multiple partitions")
		}
		count := 0
		for _, c := range children {
			count += l.count(c)
		}
		return l.emit(n.withChildren(children), count), nil

	case *Repartition:
		return l.emit(n.withChildren(children), 1), nil

	default:
		if len(children) == 0 {
			return l.emit(n.withChildren(children), 1), nil
		}
		return l.fallback(id, n, children, fmt.Sprintf("%s does not support multiple partitions", n.Kind()))
	}
}

// fallback collapses n to a single partition, wrapping every multi-partition
// child in a Repartition.
func (l *lowerer) fallback(id NodeID, n Node, children []NodeID, reason string) (NodeID, error) {
	var multi []string
	for _, c := range children {
		if k := l.count(c); k > 1 {
			multi = append(multi, fmt.Sprintf("%s has %d partitions", KeyName(l.out.Plan.Node(c), c), k))
		}
	}
	if len(multi) == 0 {
		return l.emit(n.withChildren(children), 1), nil
	}

	diag := Diagnostic{Node: id, Kind: n.Kind(), Message: reason + " (" + strings.Join(multi, ", ") + ")"}
	metrics.Fallbacks.WithLabelValues(n.Kind(), string(l.opts.FallbackMode)).Inc()
	switch l.opts.FallbackMode {
	case FallbackRaise:
		return 0, errors.Wrap(ErrNotImplemented, diag.String())
	case FallbackWarn:
		l.log.Warn("falling back to a single partition", "node", id, "kind", n.Kind(), "reason", diag.Message)
	}
	l.out.Diagnostics = append(l.out.Diagnostics, diag)

	collapsed := append([]NodeID(nil), children...)
	for i, c := range collapsed {
		if l.count(c) <= 1 {
			continue
		}
		r, ok := l.repartition[c]
		if !ok {
			r = l.emit(&Repartition{Input: c}, 1)
			l.repartition[c] = r
		}
		collapsed[i] = r
	}
	return l.emit(n.withChildren(collapsed), 1), nil
}
