// Package plan holds the small relational plan fragment the service hands to
// virtual tables: filter expressions, operator nodes and the table contract.
package plan

import (
	"fmt"
	"strings"
	"time"
)

type CompareOp int

const (
	CompareEqual CompareOp = iota
	CompareGreater
	CompareGreaterEqual
	CompareLess
	CompareLessEqual
)

func (op CompareOp) String() string {
	switch op {
	case CompareEqual:
		return "="
	case CompareGreater:
		return ">"
	case CompareGreaterEqual:
		return ">="
	case CompareLess:
		return "<"
	case CompareLessEqual:
		return "<="
	}
	return "?"
}

// Expr is a bound filter expression attached to a scan.
type Expr interface {
	fmt.Stringer
	expr()
}

// ColumnRef names an output column of the table being scanned.
type ColumnRef struct {
	Name string
}

// Constant is a literal. Value is one of string, int64, float64, bool or
// time.Time; anything else is treated as opaque and never matches a
// pushdown shape.
type Constant struct {
	Value any
}

// Comparison is <column> <op> <constant>. Left is expected to be a
// ColumnRef and Right a Constant for pushdown purposes; other shapes are
// legal but stay with the relational layer.
type Comparison struct {
	Op    CompareOp
	Left  Expr
	Right Expr
}

// InList is <column> IN (<items>...).
type InList struct {
	Input Expr
	Items []Expr
}

func (ColumnRef) expr()  {}
func (Constant) expr()   {}
func (Comparison) expr() {}
func (InList) expr()     {}

func (c ColumnRef) String() string { return c.Name }

func (c Constant) String() string {
	switch v := c.Value.(type) {
	case string:
		return "'" + v + "'"
	case time.Time:
		return "'" + v.Format("2006-01-02") + "'"
	default:
		return fmt.Sprint(v)
	}
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

func (l InList) String() string {
	items := make([]string, len(l.Items))
	for i, it := range l.Items {
		items[i] = it.String()
	}
	return fmt.Sprintf("%s IN (%s)", l.Input, strings.Join(items, ", "))
}
