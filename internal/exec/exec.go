// Package exec optimizes and runs linear plan fragments over virtual
// tables: scan at the bottom, filters, projections and a limit above it.
package exec

import (
	"context"
	"fmt"

	"github.com/onnimonni/gridscan/internal/plan"
)

// Pass is a whole-fragment rewrite applied after filter pushdown.
type Pass func(plan.Node)

// Optimize resolves each scan's filters into its table and then applies
// the extra passes in order. Pushdown must come first so a later pass
// sees the finalized descriptor fields.
func Optimize(root plan.Node, passes ...Pass) {
	plan.Walk(root, func(n plan.Node) {
		if scan, ok := n.(*plan.ScanNode); ok {
			scan.Filters = scan.Table.PushDownFilters(scan.Filters)
		}
	})
	for _, p := range passes {
		p(root)
	}
}

// Run executes the fragment, handing each output row to emit. A non-nil
// error from emit stops the run and is returned as-is.
func Run(ctx context.Context, root plan.Node, batchSize int, emit func(plan.Row) error) error {
	src, err := build(ctx, root, batchSize)
	if err != nil {
		return err
	}
	defer src.close()

	for {
		row, ok, err := src.next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := emit(row); err != nil {
			return err
		}
	}
}

// rowSource is a pull-based operator.
type rowSource interface {
	next(ctx context.Context) (plan.Row, bool, error)
	close()
}

func build(ctx context.Context, n plan.Node, batchSize int) (rowSource, error) {
	switch node := n.(type) {
	case *plan.ScanNode:
		cur, err := node.Table.Open(ctx)
		if err != nil {
			return nil, err
		}
		return &scanSource{cursor: cur, filters: node.Filters, batchSize: batchSize}, nil
	case *plan.FilterNode:
		in, err := build(ctx, node.Input, batchSize)
		if err != nil {
			return nil, err
		}
		return &filterSource{in: in, predicates: node.Predicates}, nil
	case *plan.ProjectionNode:
		in, err := build(ctx, node.Input, batchSize)
		if err != nil {
			return nil, err
		}
		return &projectSource{in: in, columns: node.Columns}, nil
	case *plan.LimitNode:
		in, err := build(ctx, node.Input, batchSize)
		if err != nil {
			return nil, err
		}
		return &limitSource{in: in, bound: node.Bound, bounded: node.Constant}, nil
	default:
		return nil, fmt.Errorf("exec: unsupported plan node %T", n)
	}
}

// scanSource drains a table cursor and applies the residual predicates
// the table declined to absorb.
type scanSource struct {
	cursor    plan.Cursor
	filters   []plan.Expr
	batchSize int
	buf       []plan.Row
	pos       int
	done      bool
}

func (s *scanSource) next(ctx context.Context) (plan.Row, bool, error) {
	for {
		for s.pos < len(s.buf) {
			row := s.buf[s.pos]
			s.pos++
			keep, err := matches(s.filters, row)
			if err != nil {
				return nil, false, err
			}
			if keep {
				return row, true, nil
			}
		}
		if s.done {
			return nil, false, nil
		}
		rows, err := s.cursor.Next(ctx, s.batchSize)
		if err != nil {
			return nil, false, err
		}
		if len(rows) == 0 {
			s.done = true
			return nil, false, nil
		}
		s.buf = rows
		s.pos = 0
	}
}

func (s *scanSource) close() { _ = s.cursor.Close() }

func matches(filters []plan.Expr, row plan.Row) (bool, error) {
	for _, f := range filters {
		ok, err := plan.Eval(f, row)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

type filterSource struct {
	in         rowSource
	predicates []plan.Expr
}

func (f *filterSource) next(ctx context.Context) (plan.Row, bool, error) {
	for {
		row, ok, err := f.in.next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		keep, err := matches(f.predicates, row)
		if err != nil {
			return nil, false, err
		}
		if keep {
			return row, true, nil
		}
	}
}

func (f *filterSource) close() { f.in.close() }

// projectSource narrows the visible column set; rows themselves are
// passed through untouched.
type projectSource struct {
	in      rowSource
	columns []string
}

func (p *projectSource) next(ctx context.Context) (plan.Row, bool, error) {
	row, ok, err := p.in.next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	return &projectedRow{row: row, columns: p.columns}, true, nil
}

func (p *projectSource) close() { p.in.close() }

type projectedRow struct {
	row     plan.Row
	columns []string
}

func (r *projectedRow) Column(name string) (any, bool) {
	for _, c := range r.columns {
		if c == name {
			return r.row.Column(name)
		}
	}
	return nil, false
}

type limitSource struct {
	in      rowSource
	bound   uint64
	bounded bool
	emitted uint64
}

func (l *limitSource) next(ctx context.Context) (plan.Row, bool, error) {
	if l.bounded && l.emitted >= l.bound {
		return nil, false, nil
	}
	row, ok, err := l.in.next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	l.emitted++
	return row, true, nil
}

func (l *limitSource) close() { l.in.close() }
