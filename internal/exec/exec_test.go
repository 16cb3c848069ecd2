package exec

import (
	"context"
	"errors"
	"testing"

	"github.com/onnimonni/gridscan/internal/plan"
)

// mapRow addresses columns through a plain map.
type mapRow map[string]any

func (r mapRow) Column(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

// memTable serves canned rows and records pushdown calls.
type memTable struct {
	rows       []plan.Row
	pushedDown []plan.Expr
	residual   []plan.Expr
}

func (t *memTable) Name() string           { return "mem" }
func (t *memTable) Columns() []plan.Column { return nil }
func (t *memTable) EstimatedRows() uint64  { return uint64(len(t.rows)) }

func (t *memTable) PushDownFilters(filters []plan.Expr) []plan.Expr {
	t.pushedDown = filters
	return t.residual
}

func (t *memTable) Open(context.Context) (plan.Cursor, error) {
	return &memCursor{rows: t.rows}, nil
}

type memCursor struct {
	rows   []plan.Row
	pos    int
	closed bool
}

func (c *memCursor) Next(_ context.Context, max int) ([]plan.Row, error) {
	if c.pos >= len(c.rows) {
		return nil, nil
	}
	end := c.pos + max
	if end > len(c.rows) {
		end = len(c.rows)
	}
	out := c.rows[c.pos:end]
	c.pos = end
	return out, nil
}

func (c *memCursor) Close() error {
	c.closed = true
	return nil
}

func valueRows(vals ...float64) []plan.Row {
	rows := make([]plan.Row, len(vals))
	for i, v := range vals {
		rows[i] = mapRow{"value": v, "variable": "temperature"}
	}
	return rows
}

func collect(t *testing.T, root plan.Node) []plan.Row {
	t.Helper()
	var out []plan.Row
	if err := Run(t.Context(), root, 2, func(r plan.Row) error {
		out = append(out, r)
		return nil
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out
}

func TestOptimizeAppliesPushdownThenPasses(t *testing.T) {
	table := &memTable{residual: nil}
	gt := &plan.Comparison{
		Op:    plan.CompareGreater,
		Left:  &plan.ColumnRef{Name: "value"},
		Right: &plan.Constant{Value: 1.0},
	}
	scan := &plan.ScanNode{Table: table, Filters: []plan.Expr{gt}}

	var passSawResidual bool
	Optimize(scan, func(n plan.Node) {
		passSawResidual = len(scan.Filters) == 0
	})

	if len(table.pushedDown) != 1 {
		t.Fatalf("table saw %d filters, want 1", len(table.pushedDown))
	}
	if len(scan.Filters) != 0 {
		t.Errorf("absorbed filter left on the scan: %v", scan.Filters)
	}
	if !passSawResidual {
		t.Error("passes must run after pushdown finalized the scan filters")
	}
}

func TestRunScanWithResidualFilter(t *testing.T) {
	gt := &plan.Comparison{
		Op:    plan.CompareGreater,
		Left:  &plan.ColumnRef{Name: "value"},
		Right: &plan.Constant{Value: 2.0},
	}
	table := &memTable{rows: valueRows(1, 2, 3, 4, 5)}
	scan := &plan.ScanNode{Table: table, Filters: []plan.Expr{gt}}

	rows := collect(t, scan)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
}

func TestRunFilterNode(t *testing.T) {
	eq := &plan.Comparison{
		Op:    plan.CompareEqual,
		Left:  &plan.ColumnRef{Name: "variable"},
		Right: &plan.Constant{Value: "TEMPERATURE"},
	}
	root := &plan.FilterNode{
		Predicates: []plan.Expr{eq},
		Input:      &plan.ScanNode{Table: &memTable{rows: valueRows(1, 2)}},
	}
	// string comparison is case-insensitive
	if rows := collect(t, root); len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestRunProjectionHidesColumns(t *testing.T) {
	root := &plan.ProjectionNode{
		Columns: []string{"value"},
		Input:   &plan.ScanNode{Table: &memTable{rows: valueRows(7)}},
	}
	rows := collect(t, root)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if _, ok := rows[0].Column("variable"); ok {
		t.Error("projected-out column still visible")
	}
	if v, ok := rows[0].Column("value"); !ok || v != 7.0 {
		t.Errorf("value = %v, want 7", v)
	}
}

func TestRunLimit(t *testing.T) {
	root := &plan.LimitNode{
		Bound:    3,
		Constant: true,
		Input:    &plan.ScanNode{Table: &memTable{rows: valueRows(1, 2, 3, 4, 5)}},
	}
	if rows := collect(t, root); len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
}

func TestRunEmitErrorStops(t *testing.T) {
	scan := &plan.ScanNode{Table: &memTable{rows: valueRows(1, 2, 3)}}
	sentinel := errors.New("sink full")
	n := 0
	err := Run(t.Context(), scan, 2, func(plan.Row) error {
		n++
		if n == 2 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}
	if n != 2 {
		t.Errorf("emit called %d times, want 2", n)
	}
}

func TestRunRejectsJoins(t *testing.T) {
	root := &plan.JoinNode{
		Left:  &plan.ScanNode{Table: &memTable{}},
		Right: &plan.ScanNode{Table: &memTable{}},
	}
	if err := Run(t.Context(), root, 2, func(plan.Row) error { return nil }); err == nil {
		t.Fatal("want error for unsupported join node")
	}
}
