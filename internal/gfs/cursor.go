package gfs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/onnimonni/gridscan/internal/core/observability"
	"github.com/onnimonni/gridscan/internal/fetch"
	"github.com/onnimonni/gridscan/internal/grib"
	"github.com/onnimonni/gridscan/internal/plan"
)

// ScanError tags a fetch or decode failure with the forecast hour whose
// resource failed. One bad resource fails the whole scan; skipping it
// would silently return an incomplete result set.
type ScanError struct {
	ForecastHour int
	Err          error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("forecast hour %d: %v", e.ForecastHour, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Row is one output row of the forecast table.
type Row struct {
	Latitude     float64
	Longitude    float64
	Value        float64
	Unit         any // string or nil for unitless variables
	Variable     string
	Level        string
	ForecastHour int
	RunDate      string
	RunHour      int
}

func (r *Row) Column(name string) (any, bool) {
	switch name {
	case "latitude":
		return r.Latitude, true
	case "longitude":
		return r.Longitude, true
	case "value":
		return r.Value, true
	case "unit":
		return r.Unit, true
	case "variable":
		return r.Variable, true
	case "level":
		return r.Level, true
	case "forecast_hour":
		return r.ForecastHour, true
	case "run_date":
		return r.RunDate, true
	case "run_hour":
		return r.RunHour, true
	}
	return nil, false
}

// Cursor walks the descriptor's forecast-hour sequence one resource at a
// time: build locator, fetch, open the decoder, drain it in batches, then
// move on. It is single-owner; only the progress counters are shared.
type Cursor struct {
	desc     *Descriptor
	baseURL  string
	fetcher  fetch.Fetcher
	opener   grib.Opener
	progress *Progress
	log      *slog.Logger

	resourceIdx int
	reader      grib.Reader
	opened      bool
	rowsEmitted uint64
	finished    bool
}

func NewCursor(log *slog.Logger, desc *Descriptor, baseURL string, fetcher fetch.Fetcher, opener grib.Opener) *Cursor {
	if log == nil {
		log = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultFilterURL
	}
	return &Cursor{
		desc:     desc,
		baseURL:  baseURL,
		fetcher:  fetcher,
		opener:   opener,
		progress: NewProgress(len(desc.ForecastHours)),
		log:      log,
	}
}

// Progress reports the scan's overall fraction in [0,100].
func (c *Cursor) Progress() (float64, bool) {
	return c.progress.Fraction()
}

// Next returns up to max rows. An empty slice with a nil error means the
// scan is complete; resource boundaries are never visible as empty
// results because exhausting one resource rolls straight into the next.
func (c *Cursor) Next(ctx context.Context, max int) ([]plan.Row, error) {
	if c.finished {
		return nil, nil
	}
	if max <= 0 {
		max = 2048
	}

	for {
		if c.desc.RowLimit > 0 && c.rowsEmitted >= c.desc.RowLimit {
			c.finish()
			return nil, nil
		}

		// Open the next resource if none is in flight. Written as a loop
		// so a run of empty resources cannot grow the stack.
		for !c.opened {
			if c.resourceIdx >= len(c.desc.ForecastHours) {
				c.finish()
				return nil, nil
			}
			if err := ctx.Err(); err != nil {
				c.finish()
				return nil, err
			}
			if err := c.openResource(ctx); err != nil {
				c.finish()
				return nil, err
			}
		}

		fhour := c.desc.ForecastHours[c.resourceIdx]

		want := max
		if c.desc.RowLimit > 0 {
			if left := c.desc.RowLimit - c.rowsEmitted; uint64(want) > left {
				want = int(left)
			}
		}

		batch, err := c.reader.ReadBatch(want)
		if err != nil {
			c.finish()
			observability.IncScanResource("gfs", "decode_error")
			return nil, &ScanError{ForecastHour: fhour, Err: err}
		}

		if len(batch.Points) == 0 && !batch.HasMore {
			c.releaseResource()
			c.progress.completeResource()
			observability.IncScanResource("gfs", "ok")
			c.resourceIdx++
			continue
		}

		rows := make([]plan.Row, len(batch.Points))
		for i, p := range batch.Points {
			rows[i] = c.project(p, fhour)
		}
		c.rowsEmitted += uint64(len(rows))
		observability.AddScanRows("gfs", len(rows))

		if !batch.HasMore {
			c.releaseResource()
			c.progress.completeResource()
			observability.IncScanResource("gfs", "ok")
			c.resourceIdx++
		} else {
			c.progress.stepBatch()
		}

		if c.desc.RowLimit > 0 && c.rowsEmitted >= c.desc.RowLimit {
			c.finish()
		}
		return rows, nil
	}
}

func (c *Cursor) openResource(ctx context.Context) error {
	fhour := c.desc.ForecastHours[c.resourceIdx]
	c.progress.setPhase(phaseStart)

	locator := BuildLocator(c.baseURL, c.desc, fhour)
	c.log.Debug("opening resource",
		slog.Int("forecast_hour", fhour),
		slog.String("locator", locator))

	c.progress.setPhase(phaseFetching)
	body, err := c.fetcher.Fetch(ctx, locator)
	if err != nil {
		observability.IncScanResource("gfs", "fetch_error")
		return &ScanError{ForecastHour: fhour, Err: err}
	}

	c.progress.setPhase(phaseDecoding)
	reader, err := c.opener.Open(body)
	if err != nil {
		observability.IncScanResource("gfs", "decode_error")
		return &ScanError{ForecastHour: fhour, Err: err}
	}

	c.progress.setPhase(phaseReady)
	c.reader = reader
	c.opened = true
	return nil
}

func (c *Cursor) project(p grib.Point, fhour int) *Row {
	lon := p.Longitude
	if lon > 180 {
		lon -= 360
	}
	variable := ParameterName(p.Discipline, p.ParameterCategory, p.ParameterNumber)
	var unit any
	if u := VariableUnit(variable); u != "" {
		unit = u
	}
	return &Row{
		Latitude:     p.Latitude,
		Longitude:    lon,
		Value:        p.Value,
		Unit:         unit,
		Variable:     variable,
		Level:        SurfaceName(p.SurfaceType, p.SurfaceValue),
		ForecastHour: fhour,
		RunDate:      c.desc.RunDate,
		RunHour:      c.desc.RunHour,
	}
}

func (c *Cursor) releaseResource() {
	if c.reader != nil {
		_ = c.reader.Close()
		c.reader = nil
	}
	c.opened = false
}

func (c *Cursor) finish() {
	c.releaseResource()
	c.finished = true
}

// Close releases the in-flight resource, if any. Safe on every exit path.
func (c *Cursor) Close() error {
	c.finish()
	return nil
}
