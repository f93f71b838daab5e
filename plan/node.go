// Package plan lowers single-partition logical plans into partitioned plans
// and materializes them as task graphs.
package plan

import (
	"fmt"

	"github.com/miretskiy/firn/frame"
	"github.com/pkg/errors"
)

// NodeID addresses a node in its Plan. IDs are stable for the life of the
// plan and a node's children always have smaller IDs.
type NodeID int

// Expr builds a fresh expression. Expressions are consumed by the frame they
// are added to, so every partition builds its own.
type Expr func() *frame.ExprNode

// Node is a logical plan operation. The set of kinds is closed.
type Node interface {
	// Kind names the node type, e.g. "filter".
	Kind() string
	// Children returns the input node IDs in order.
	Children() []NodeID

	withChildren(children []NodeID) Node
	// evaluate computes one partition from the matching input partitions.
	evaluate(inputs []*frame.DataFrame) (*frame.DataFrame, error)
}

// DataFrameScan reads an in-memory frame. It is the only leaf kind.
type DataFrameScan struct {
	Frame *frame.DataFrame
	// Columns optionally restricts the scanned columns.
	Columns []string

	partitionRows int // set by Lower when the scan is split
}

// Projection keeps the named columns.
type Projection struct {
	Input   NodeID
	Columns []string
}

// Filter keeps rows matching Predicate.
type Filter struct {
	Input     NodeID
	Predicate Expr
}

// HStack appends or replaces computed columns.
type HStack struct {
	Input   NodeID
	Columns []Expr
}

// Cache marks a subtree whose result is shared by several parents.
type Cache struct {
	Input NodeID
	Key   string
}

// Select replaces the columns with computed expressions. Expressions are
// evaluated per partition.
type Select struct {
	Input NodeID
	Exprs []Expr
}

// SliceRange is an offset/length window.
type SliceRange struct {
	Offset int
	Length int
}

// Union concatenates its inputs vertically, optionally keeping only a window
// of the result.
type Union struct {
	Inputs []NodeID
	Slice  *SliceRange
}

// Sort orders rows by the given fields.
type Sort struct {
	Input NodeID
	By    []frame.SortField
}

// Join joins Left with Right.
type Join struct {
	Left  NodeID
	Right NodeID
	Spec  frame.JoinSpec
}

// Repartition concatenates every partition of its input into one. Lowering
// inserts it when a node must run on a single partition.
type Repartition struct {
	Input NodeID
}

// Slice keeps a window of rows.
type Slice struct {
	Input NodeID
	SliceRange
}

func (*DataFrameScan) Kind() string { return "dataframescan" }
func (*Projection) Kind() string    { return "projection" }
func (*Filter) Kind() string        { return "filter" }
func (*HStack) Kind() string        { return "hstack" }
func (*Cache) Kind() string         { return "cache" }
func (*Select) Kind() string        { return "select" }
func (*Union) Kind() string         { return "union" }
func (*Sort) Kind() string          { return "sort" }
func (*Join) Kind() string          { return "join" }
func (*Repartition) Kind() string   { return "repartition" }
func (*Slice) Kind() string         { return "slice" }

func (*DataFrameScan) Children() []NodeID { return nil }
func (n *Projection) Children() []NodeID  { return []NodeID{n.Input} }
func (n *Filter) Children() []NodeID      { return []NodeID{n.Input} }
func (n *HStack) Children() []NodeID      { return []NodeID{n.Input} }
func (n *Cache) Children() []NodeID       { return []NodeID{n.Input} }
func (n *Select) Children() []NodeID      { return []NodeID{n.Input} }
func (n *Union) Children() []NodeID       { return n.Inputs }
func (n *Sort) Children() []NodeID        { return []NodeID{n.Input} }
func (n *Join) Children() []NodeID        { return []NodeID{n.Left, n.Right} }
func (n *Repartition) Children() []NodeID { return []NodeID{n.Input} }
func (n *Slice) Children() []NodeID       { return []NodeID{n.Input} }

func (n *DataFrameScan) withChildren([]NodeID) Node  { c := *n; return &c }
func (n *Projection) withChildren(ch []NodeID) Node  { c := *n; c.Input = ch[0]; return &c }
func (n *Filter) withChildren(ch []NodeID) Node      { c := *n; c.Input = ch[0]; return &c }
func (n *HStack) withChildren(ch []NodeID) Node      { c := *n; c.Input = ch[0]; return &c }
func (n *Cache) withChildren(ch []NodeID) Node       { c := *n; c.Input = ch[0]; return &c }
func (n *Select) withChildren(ch []NodeID) Node      { c := *n; c.Input = ch[0]; return &c }
func (n *Sort) withChildren(ch []NodeID) Node        { c := *n; c.Input = ch[0]; return &c }
func (n *Repartition) withChildren(ch []NodeID) Node { c := *n; c.Input = ch[0]; return &c }
func (n *Slice) withChildren(ch []NodeID) Node       { c := *n; c.Input = ch[0]; return &c }
func (n *Join) withChildren(ch []NodeID) Node {
	c := *n
	c.Left, c.Right = ch[0], ch[1]
	return &c
}
func (n *Union) withChildren(ch []NodeID) Node {
	c := *n
	c.Inputs = append([]NodeID(nil), ch...)
	return &c
}

// Plan is an arena of nodes. Shared subtrees are expressed by referencing
// the same NodeID from several parents.
type Plan struct {
	nodes []Node
}

// New returns an empty plan.
func New() *Plan { return &Plan{} }

// Add appends n and returns its ID.
func (p *Plan) Add(n Node) NodeID {
	p.nodes = append(p.nodes, n)
	return NodeID(len(p.nodes) - 1)
}

// Len returns the number of nodes.
func (p *Plan) Len() int { return len(p.nodes) }

// Node returns the node with the given ID, or nil.
func (p *Plan) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(p.nodes) {
		return nil
	}
	return p.nodes[id]
}

// Validate checks that every node reachable from root exists and only
// references earlier nodes, that scans hold collected frames and that
// unions have inputs.
func (p *Plan) Validate(root NodeID) error {
	if p.Node(root) == nil {
		return errors.Wrapf(ErrInvalidPlan, "root %d not in plan of %d nodes", root, len(p.nodes))
	}
	seen := make(map[NodeID]bool)
	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		if seen[id] {
			return nil
		}
		seen[id] = true
		n := p.nodes[id]
		for _, c := range n.Children() {
			if c < 0 || c >= id {
				return errors.Wrapf(ErrInvalidPlan, "%s %d references node %d", n.Kind(), id, c)
			}
			if err := visit(c); err != nil {
				return err
			}
		}
		switch n := n.(type) {
		case *DataFrameScan:
			if n.Frame == nil || n.Frame.Pending() {
				return errors.Wrapf(ErrInvalidPlan, "dataframescan %d needs a collected frame", id)
			}
		case *Union:
			if len(n.Inputs) == 0 {
				return errors.Wrapf(ErrInvalidPlan, "union %d has no inputs", id)
			}
		}
		return nil
	}
	return visit(root)
}

// KeyName is the task-graph name of node id.
func KeyName(n Node, id NodeID) string {
	return fmt.Sprintf("%s-%d", n.Kind(), id)
}
