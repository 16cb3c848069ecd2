package gfs

import (
	"reflect"
	"testing"
	"time"

	"github.com/onnimonni/gridscan/internal/plan"
)

func col(name string) *plan.ColumnRef { return &plan.ColumnRef{Name: name} }

func eq(name string, v any) plan.Expr {
	return &plan.Comparison{Op: plan.CompareEqual, Left: col(name), Right: &plan.Constant{Value: v}}
}

func cmp(op plan.CompareOp, name string, v any) plan.Expr {
	return &plan.Comparison{Op: op, Left: col(name), Right: &plan.Constant{Value: v}}
}

func inList(name string, vals ...any) plan.Expr {
	items := make([]plan.Expr, len(vals))
	for i, v := range vals {
		items[i] = &plan.Constant{Value: v}
	}
	return &plan.InList{Input: col(name), Items: items}
}

func TestTranslateVariableList(t *testing.T) {
	d := NewDescriptor(time.Now())
	residual := Translate(d, []plan.Expr{inList("variable", "temperature", "gust")})
	if len(residual) != 0 {
		t.Fatalf("fully resolved list must be removed, got %d residual", len(residual))
	}
	want := []string{"var_TMP", "var_GUST"}
	if !reflect.DeepEqual(d.Variables, want) {
		t.Errorf("variables = %v, want %v", d.Variables, want)
	}
}

func TestTranslateVariableListAllOrNothing(t *testing.T) {
	// scenario: one bogus literal leaves the whole predicate unresolved
	d := NewDescriptor(time.Now())
	f := inList("variable", "temperature", "bogus_name")
	residual := Translate(d, []plan.Expr{f})
	if len(residual) != 1 || residual[0] != f {
		t.Fatal("predicate with an unresolvable literal must stay attached")
	}
	if len(d.Variables) != 0 {
		t.Errorf("descriptor must not be narrowed, got variables %v", d.Variables)
	}
}

func TestTranslateLevelAndForecastHour(t *testing.T) {
	d := NewDescriptor(time.Now())
	residual := Translate(d, []plan.Expr{
		inList("level", "2m", "surface"),
		inList("forecast_hour", 0, 3, 6),
	})
	if len(residual) != 0 {
		t.Fatalf("got %d residual predicates, want 0", len(residual))
	}
	if !reflect.DeepEqual(d.Levels, []string{"lev_2_m_above_ground", "lev_surface"}) {
		t.Errorf("levels = %v", d.Levels)
	}
	if !reflect.DeepEqual(d.ForecastHours, []int{0, 3, 6}) {
		t.Errorf("forecast hours = %v", d.ForecastHours)
	}
}

func TestTranslateRunDate(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"20260120", "20260120"},
		{"2026-01-20", "20260120"},
		{time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), "20260120"},
	}
	for _, tt := range tests {
		d := NewDescriptor(time.Now())
		residual := Translate(d, []plan.Expr{eq("run_date", tt.value)})
		if len(residual) != 0 {
			t.Errorf("run_date = %v not removed", tt.value)
		}
		if d.RunDate != tt.want {
			t.Errorf("run_date = %q, want %q", d.RunDate, tt.want)
		}
	}
}

func TestTranslateRunHourAndEqualities(t *testing.T) {
	d := NewDescriptor(time.Now())
	residual := Translate(d, []plan.Expr{
		eq("run_hour", 12),
		eq("forecast_hour", 24),
		eq("variable", "temperature"),
		eq("level", "2m"),
	})
	if len(residual) != 0 {
		t.Fatalf("got %d residual predicates, want 0", len(residual))
	}
	if d.RunHour != 12 {
		t.Errorf("run_hour = %d, want 12", d.RunHour)
	}
	if !reflect.DeepEqual(d.ForecastHours, []int{24}) {
		t.Errorf("forecast hours = %v, want [24]", d.ForecastHours)
	}
	if !reflect.DeepEqual(d.Variables, []string{"var_TMP"}) {
		t.Errorf("variables = %v", d.Variables)
	}
	if !reflect.DeepEqual(d.Levels, []string{"lev_2_m_above_ground"}) {
		t.Errorf("levels = %v", d.Levels)
	}
}

func TestTranslateBBoxNeverRemoved(t *testing.T) {
	d := NewDescriptor(time.Now())
	filters := []plan.Expr{
		cmp(plan.CompareGreaterEqual, "latitude", 59.0),
		cmp(plan.CompareLessEqual, "latitude", 62.0),
		cmp(plan.CompareGreaterEqual, "longitude", 20.0),
		cmp(plan.CompareLess, "longitude", 32.0),
	}
	residual := Translate(d, filters)
	if len(residual) != 4 {
		t.Fatalf("bbox predicates must all stay attached, got %d of 4", len(residual))
	}
	if !d.HasBBox {
		t.Fatal("HasBBox not set")
	}
	if d.LatMin != 59 || d.LatMax != 62 || d.LonMin != 20 || d.LonMax != 32 {
		t.Errorf("bbox = [%v %v %v %v]", d.LatMin, d.LatMax, d.LonMin, d.LonMax)
	}
}

func TestTranslateNegativeLongitude(t *testing.T) {
	// scenario: longitude >= -30 narrows the west bound to 330
	d := NewDescriptor(time.Now())
	f := cmp(plan.CompareGreaterEqual, "longitude", -30.0)
	residual := Translate(d, []plan.Expr{f})
	if len(residual) != 1 || residual[0] != f {
		t.Fatal("longitude range must stay attached for exact evaluation")
	}
	if !d.HasBBox || d.LonMin != 330.0 {
		t.Errorf("lon_min = %v, has_bbox = %v; want 330, true", d.LonMin, d.HasBBox)
	}
}

func TestTranslateOneSidedBBox(t *testing.T) {
	// a single bound still narrows its side of the rectangle
	d := NewDescriptor(time.Now())
	Translate(d, []plan.Expr{cmp(plan.CompareGreater, "latitude", 45.0)})
	if !d.HasBBox || d.LatMin != 45 {
		t.Errorf("lat_min = %v, has_bbox = %v; want 45, true", d.LatMin, d.HasBBox)
	}
	if d.LatMax != 90 {
		t.Errorf("lat_max = %v, want untouched 90", d.LatMax)
	}
}

func TestTranslateLastEqualityWins(t *testing.T) {
	d := NewDescriptor(time.Now())
	Translate(d, []plan.Expr{eq("run_hour", 6), eq("run_hour", 18)})
	if d.RunHour != 18 {
		t.Errorf("run_hour = %d, want 18 (insertion order, last wins)", d.RunHour)
	}
}

func TestTranslateLeavesForeignShapesAlone(t *testing.T) {
	d := NewDescriptor(time.Now())
	filters := []plan.Expr{
		eq("value", 280.0),                       // not a pushdown column
		cmp(plan.CompareGreater, "value", 100.0), // ditto
		eq("run_date", 42),                       // wrong literal type
		inList("forecast_hour", 0, "three"),      // mixed literal types
		&plan.Comparison{Op: plan.CompareEqual, Left: &plan.Constant{Value: 1}, Right: &plan.Constant{Value: 1}},
	}
	residual := Translate(d, filters)
	if len(residual) != len(filters) {
		t.Fatalf("got %d residual predicates, want %d", len(residual), len(filters))
	}
	if len(d.ForecastHours) != 1 || d.ForecastHours[0] != 0 {
		t.Errorf("forecast hours mutated: %v", d.ForecastHours)
	}
}
