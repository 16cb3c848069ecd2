package plan

import "context"

type ColumnType int

const (
	TypeDouble ColumnType = iota
	TypeInteger
	TypeVarchar
	TypeTimestamp
)

type Column struct {
	Name string
	Type ColumnType
}

// Row is one output row of a table scan, addressable by column name.
type Row interface {
	Column(name string) (any, bool)
}

// Cursor produces rows in bounded batches. Next returns an empty slice only
// when the scan is finished; resource transitions never surface as empty
// batches. Close is idempotent.
type Cursor interface {
	Next(ctx context.Context, max int) ([]Row, error)
	Close() error
}

// Table is the contract a virtual table offers the host.
type Table interface {
	Name() string
	Columns() []Column

	// PushDownFilters inspects the scan's filter set and returns the
	// predicates the table could not (or must not) resolve remotely. The
	// host keeps evaluating exactly the returned set.
	PushDownFilters(filters []Expr) []Expr

	// EstimatedRows is an optimizer hint only. It must never be used to
	// size buffers or bound row counts.
	EstimatedRows() uint64

	Open(ctx context.Context) (Cursor, error)
}

// ProgressReporter is optionally implemented by cursors that can report
// fractional scan progress in [0,100].
type ProgressReporter interface {
	Progress() (fraction float64, known bool)
}

// Node is an operator in a plan fragment.
type Node interface {
	Children() []Node
}

// ScanNode reads a virtual table. Filters holds the residual predicate set
// after pushdown.
type ScanNode struct {
	Table   Table
	Filters []Expr
}

// FilterNode evaluates predicates above its input.
type FilterNode struct {
	Input      Node
	Predicates []Expr
}

// ProjectionNode is a pass-through column selection. It never changes row
// cardinality, which is what lets a limit above it reach the scan.
type ProjectionNode struct {
	Input   Node
	Columns []string
}

// LimitNode bounds the row count. Bound is only meaningful when Constant is
// true; a parameterized limit is unknown until execution and is never
// pushed into a scan.
type LimitNode struct {
	Input    Node
	Bound    uint64
	Constant bool
}

// JoinNode exists so optimizer passes have a non-pass-through operator to
// stop at; the service itself never builds joins.
type JoinNode struct {
	Left  Node
	Right Node
}

func (n *ScanNode) Children() []Node       { return nil }
func (n *FilterNode) Children() []Node     { return []Node{n.Input} }
func (n *ProjectionNode) Children() []Node { return []Node{n.Input} }
func (n *LimitNode) Children() []Node      { return []Node{n.Input} }
func (n *JoinNode) Children() []Node       { return []Node{n.Left, n.Right} }

// Walk visits every node of the fragment in pre-order.
func Walk(root Node, visit func(Node)) {
	if root == nil {
		return
	}
	visit(root)
	for _, c := range root.Children() {
		Walk(c, visit)
	}
}
