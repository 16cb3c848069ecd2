package plan

import (
	"fmt"
	"strings"
	"time"
)

// Eval evaluates a predicate against a row. Comparisons against NULL
// columns are false, matching SQL three-valued logic collapsed to a filter.
func Eval(e Expr, r Row) (bool, error) {
	switch ex := e.(type) {
	case *Comparison:
		col, okCol := ex.Left.(*ColumnRef)
		con, okCon := ex.Right.(*Constant)
		if !okCol || !okCon {
			return false, fmt.Errorf("unsupported comparison shape: %s", ex)
		}
		v, ok := r.Column(col.Name)
		if !ok {
			return false, fmt.Errorf("unknown column %q", col.Name)
		}
		if v == nil {
			return false, nil
		}
		return compare(ex.Op, v, con.Value)
	case *InList:
		col, ok := ex.Input.(*ColumnRef)
		if !ok {
			return false, fmt.Errorf("unsupported IN shape: %s", ex)
		}
		v, found := r.Column(col.Name)
		if !found {
			return false, fmt.Errorf("unknown column %q", col.Name)
		}
		if v == nil {
			return false, nil
		}
		for _, item := range ex.Items {
			con, okc := item.(*Constant)
			if !okc {
				return false, fmt.Errorf("non-constant IN item: %s", item)
			}
			eq, err := compare(CompareEqual, v, con.Value)
			if err != nil {
				return false, err
			}
			if eq {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unsupported predicate: %s", e)
	}
}

func compare(op CompareOp, left, right any) (bool, error) {
	if lf, lok := toFloat(left); lok {
		rf, rok := toFloat(right)
		if !rok {
			return false, nil
		}
		return cmpOrdered(op, lf, rf), nil
	}
	switch lv := left.(type) {
	case string:
		rv, ok := right.(string)
		if !ok {
			if t, isTime := right.(time.Time); isTime {
				rv = t.Format("2006-01-02")
			} else {
				return false, nil
			}
		}
		return cmpOrdered(op, strings.ToLower(lv), strings.ToLower(rv)), nil
	case bool:
		rv, ok := right.(bool)
		if !ok || op != CompareEqual {
			return false, nil
		}
		return lv == rv, nil
	case time.Time:
		rv, ok := right.(time.Time)
		if !ok {
			return false, nil
		}
		switch op {
		case CompareEqual:
			return lv.Equal(rv), nil
		case CompareGreater:
			return lv.After(rv), nil
		case CompareGreaterEqual:
			return !lv.Before(rv), nil
		case CompareLess:
			return lv.Before(rv), nil
		case CompareLessEqual:
			return !lv.After(rv), nil
		}
	}
	return false, fmt.Errorf("uncomparable value of type %T", left)
}

func cmpOrdered[T float64 | string](op CompareOp, a, b T) bool {
	switch op {
	case CompareEqual:
		return a == b
	case CompareGreater:
		return a > b
	case CompareGreaterEqual:
		return a >= b
	case CompareLess:
		return a < b
	case CompareLessEqual:
		return a <= b
	}
	return false
}

func toFloat(v any) (float64, bool) {
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
	case uint64:
		return float64(n), true
	}
	return 0, false
}
