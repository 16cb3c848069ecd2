package gfs

import (
	"strings"
	"time"

	"github.com/onnimonni/gridscan/internal/plan"
)

// Translate examines each predicate over the scan's columns once and
// resolves what it can into the descriptor. The returned slice holds the
// predicates that must still be evaluated row-by-row.
//
// Resolution is all-or-nothing: a variable/level/forecast_hour list is
// absorbed only when every literal in it resolves, because an absorbed
// predicate is never re-checked and a partial match would silently widen
// the result. Latitude/longitude ranges only narrow the bounding box and
// are always kept, since the remote subregion cut is a rectangle
// over-approximation of the exact comparison.
//
// When several equalities target the same column the later one wins,
// matching the order the predicates arrive in.
func Translate(d *Descriptor, filters []plan.Expr) []plan.Expr {
	residual := make([]plan.Expr, 0, len(filters))
	for _, f := range filters {
		if !translateOne(d, f) {
			residual = append(residual, f)
		}
	}
	return residual
}

// translateOne reports whether the predicate was fully absorbed.
func translateOne(d *Descriptor, f plan.Expr) bool {
	switch e := f.(type) {
	case *plan.InList:
		col, ok := e.Input.(*plan.ColumnRef)
		if !ok {
			return false
		}
		return translateList(d, col.Name, e.Items)
	case *plan.Comparison:
		col, okL := e.Left.(*plan.ColumnRef)
		con, okR := e.Right.(*plan.Constant)
		if !okL || !okR {
			return false
		}
		if e.Op == plan.CompareEqual {
			if translateEquality(d, col.Name, con.Value) {
				return true
			}
		}
		// range predicates narrow the bbox but always stay attached
		translateBound(d, col.Name, e.Op, con.Value)
		return false
	}
	return false
}

func translateList(d *Descriptor, column string, items []plan.Expr) bool {
	switch column {
	case "variable":
		vars := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := constString(it)
			if !ok {
				return false
			}
			tok := NormalizeVariable(s)
			if tok == "" {
				return false
			}
			vars = append(vars, tok)
		}
		if len(vars) == 0 {
			return false
		}
		d.Variables = vars
		return true
	case "level":
		levs := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := constString(it)
			if !ok {
				return false
			}
			tok := NormalizeLevel(s)
			if tok == "" {
				return false
			}
			levs = append(levs, tok)
		}
		if len(levs) == 0 {
			return false
		}
		d.Levels = levs
		return true
	case "forecast_hour":
		hours := make([]int, 0, len(items))
		for _, it := range items {
			n, ok := constInt(it)
			if !ok {
				return false
			}
			hours = append(hours, n)
		}
		if len(hours) == 0 {
			return false
		}
		d.ForecastHours = hours
		return true
	}
	return false
}

func translateEquality(d *Descriptor, column string, value any) bool {
	switch column {
	case "run_date":
		var date string
		switch v := value.(type) {
		case string:
			date = v
		case time.Time:
			date = v.Format("20060102")
		default:
			return false
		}
		date = strings.ReplaceAll(date, "-", "")
		if date == "" {
			return false
		}
		d.RunDate = date
		return true
	case "run_hour":
		n, ok := intValue(value)
		if !ok {
			return false
		}
		d.RunHour = n
		return true
	case "forecast_hour":
		n, ok := intValue(value)
		if !ok {
			return false
		}
		d.ForecastHours = []int{n}
		return true
	case "variable":
		s, ok := value.(string)
		if !ok {
			return false
		}
		tok := NormalizeVariable(s)
		if tok == "" {
			return false
		}
		d.Variables = []string{tok}
		return true
	case "level":
		s, ok := value.(string)
		if !ok {
			return false
		}
		tok := NormalizeLevel(s)
		if tok == "" {
			return false
		}
		d.Levels = []string{tok}
		return true
	}
	return false
}

// translateBound applies one side of a latitude/longitude range to the
// bounding box. Each side lands independently, so a single-sided range
// still narrows the rectangle.
func translateBound(d *Descriptor, column string, op plan.CompareOp, value any) {
	v, ok := floatValue(value)
	if !ok {
		return
	}
	switch column {
	case "latitude":
		switch op {
		case plan.CompareGreater, plan.CompareGreaterEqual:
			d.LatMin = v
			d.HasBBox = true
		case plan.CompareLess, plan.CompareLessEqual:
			d.LatMax = v
			d.HasBBox = true
		}
	case "longitude":
		if v < 0 {
			v += 360
		}
		switch op {
		case plan.CompareGreater, plan.CompareGreaterEqual:
			d.LonMin = v
			d.HasBBox = true
		case plan.CompareLess, plan.CompareLessEqual:
			d.LonMax = v
			d.HasBBox = true
		}
	}
}

func constString(e plan.Expr) (string, bool) {
	c, ok := e.(*plan.Constant)
	if !ok {
		return "", false
	}
	s, ok := c.Value.(string)
	return s, ok
}

func constInt(e plan.Expr) (int, bool) {
	c, ok := e.(*plan.Constant)
	if !ok {
		return 0, false
	}
	return intValue(c.Value)
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	}
	return 0, false
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
