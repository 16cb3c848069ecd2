package gfs

import (
	"fmt"
	"math"
	"time"
)

// RunHourUnset marks a descriptor whose model run hour was never pinned by
// a predicate; the locator builder substitutes the 00z run.
const RunHourUnset = -1

// Descriptor is the compact remote-query form of one table scan: which
// model run, which forecast hours, which variables and levels, and an
// optional bounding box. It is populated at bind time, narrowed by
// pushdown, finalized by the limit rewrite, and read-only during the scan.
type Descriptor struct {
	RunDate       string // 8-digit YYYYMMDD
	RunHour       int
	ForecastHours []int // resource sequence, scanned in list order

	// empty Variables or Levels means the fixed default sets, not "none"
	Variables []string
	Levels    []string

	// bounding box, longitudes stored in [0,360)
	LatMin, LatMax float64
	LonMin, LonMax float64
	HasBBox        bool

	// RowLimit bounds execution; zero is unlimited. It is deliberately
	// separate from the inflated planner estimate (EstimatedScanRows).
	RowLimit uint64
}

// NewDescriptor returns the bind-time defaults: today's 00z run, forecast
// hour 0 only, default variable and level sets, whole globe.
func NewDescriptor(now time.Time) *Descriptor {
	return &Descriptor{
		RunDate:       now.UTC().Format("20060102"),
		RunHour:       0,
		ForecastHours: []int{0},
		LatMin:        -90,
		LatMax:        90,
		LonMin:        0,
		LonMax:        360,
	}
}

// NormalizeLongitude maps any longitude onto [0,360).
func NormalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lon
}

// BindError reports a descriptor field a locator cannot be built from.
// It is client input, not an upstream failure.
type BindError struct {
	Field string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Field, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// Validate rejects descriptors a locator cannot be built from.
func (d *Descriptor) Validate() error {
	if len(d.RunDate) != 8 {
		return &BindError{Field: "run_date", Err: fmt.Errorf("%q is not an 8-digit date", d.RunDate)}
	}
	if d.RunHour != RunHourUnset && d.RunHour != 0 && d.RunHour != 6 && d.RunHour != 12 && d.RunHour != 18 {
		return &BindError{Field: "run_hour", Err: fmt.Errorf("%d is not one of 0, 6, 12, 18", d.RunHour)}
	}
	for _, h := range d.ForecastHours {
		if h < 0 {
			return &BindError{Field: "forecast_hour", Err: fmt.Errorf("negative forecast hour %d", h)}
		}
	}
	if d.LatMin > d.LatMax {
		return &BindError{Field: "bbox", Err: fmt.Errorf("latitude bounds inverted: %v > %v", d.LatMin, d.LatMax)}
	}
	return nil
}
