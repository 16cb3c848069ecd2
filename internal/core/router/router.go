// Package router validates query parameters and serves the two feed
// endpoints: a streaming NDJSON grid scan and a point forecast.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/onnimonni/gridscan/internal/convert"
	"github.com/onnimonni/gridscan/internal/core/observability"
	"github.com/onnimonni/gridscan/internal/exec"
	"github.com/onnimonni/gridscan/internal/gfs"
	"github.com/onnimonni/gridscan/internal/met"
	"github.com/onnimonni/gridscan/internal/plan"
)

// TableFactory binds a fresh forecast table per request; a descriptor is
// single-query state and must never be shared between scans.
type TableFactory func() *gfs.Table

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// HandleForecast parses the query into plan predicates, lets pushdown
// narrow the remote fetch, and streams result rows as NDJSON. Predicates
// pushdown could not absorb stay on the scan and are applied row-by-row.
func HandleForecast(logger *slog.Logger, factory TableFactory, batchSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		filters, limit, err := parseForecastRequest(r)
		if err != nil {
			http.Error(sw, err.Error(), http.StatusBadRequest)
			observability.ObserveHTTP(r.Method, "/v1/gfs", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}

		table := factory()
		var root plan.Node = &plan.ScanNode{Table: table, Filters: filters}
		if limit > 0 {
			root = &plan.LimitNode{Input: root, Bound: limit, Constant: true}
		}
		exec.Optimize(root, gfs.PushLimit)

		sw.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(sw)
		streamed := false
		err = exec.Run(r.Context(), root, batchSize, func(row plan.Row) error {
			streamed = true
			return enc.Encode(forecastJSON(row))
		})
		if err != nil {
			logger.Error("forecast scan failed", slog.Any("err", err))
			if !streamed {
				status := http.StatusBadGateway
				var bindErr *gfs.BindError
				var scanErr *gfs.ScanError
				switch {
				case errors.As(err, &bindErr):
					status = http.StatusBadRequest
				case !errors.As(err, &scanErr):
					status = http.StatusInternalServerError
				}
				http.Error(sw, err.Error(), status)
			}
			// mid-stream failures can only truncate the response
		}
		observability.ObserveHTTP(r.Method, "/v1/gfs", sw.code, time.Since(start).Seconds())
	}
}

func parseForecastRequest(r *http.Request) (filters []plan.Expr, limit uint64, err error) {
	q := r.URL.Query()

	colEq := func(name string, value any) {
		filters = append(filters, &plan.Comparison{
			Op:    plan.CompareEqual,
			Left:  &plan.ColumnRef{Name: name},
			Right: &plan.Constant{Value: value},
		})
	}
	colCmp := func(name string, op plan.CompareOp, value float64) {
		filters = append(filters, &plan.Comparison{
			Op:    op,
			Left:  &plan.ColumnRef{Name: name},
			Right: &plan.Constant{Value: value},
		})
	}
	colIn := func(name string, values []any) {
		items := make([]plan.Expr, len(values))
		for i, v := range values {
			items[i] = &plan.Constant{Value: v}
		}
		filters = append(filters, &plan.InList{Input: &plan.ColumnRef{Name: name}, Items: items})
	}

	if v := strings.TrimSpace(q.Get("run_date")); v != "" {
		colEq("run_date", v)
	}
	if v := strings.TrimSpace(q.Get("run_hour")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid run_hour: %q", v)
		}
		colEq("run_hour", n)
	}
	if v := strings.TrimSpace(q.Get("forecast_hour")); v != "" {
		var hours []any
		for _, p := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, 0, fmt.Errorf("invalid forecast_hour: %q", p)
			}
			hours = append(hours, n)
		}
		colIn("forecast_hour", hours)
	}
	if v := strings.TrimSpace(q.Get("variable")); v != "" {
		colIn("variable", splitAny(v))
	}
	if v := strings.TrimSpace(q.Get("level")); v != "" {
		colIn("level", splitAny(v))
	}

	for _, b := range []struct {
		param  string
		column string
		op     plan.CompareOp
	}{
		{"min_lat", "latitude", plan.CompareGreaterEqual},
		{"max_lat", "latitude", plan.CompareLessEqual},
		{"min_lon", "longitude", plan.CompareGreaterEqual},
		{"max_lon", "longitude", plan.CompareLessEqual},
	} {
		if v := strings.TrimSpace(q.Get(b.param)); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, 0, fmt.Errorf("invalid %s: %q", b.param, v)
			}
			colCmp(b.column, b.op, f)
		}
	}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return nil, 0, fmt.Errorf("invalid limit: %q", v)
		}
		limit = n
	}
	return filters, limit, nil
}

func splitAny(s string) []any {
	var out []any
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

type forecastRowJSON struct {
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Value        *float64 `json:"value"`
	Unit         *string  `json:"unit"`
	Variable     string   `json:"variable"`
	Level        string   `json:"level"`
	ForecastHour int      `json:"forecast_hour"`
	RunDate      string   `json:"run_date"`
	RunHour      int      `json:"run_hour"`
}

func forecastJSON(row plan.Row) forecastRowJSON {
	out := forecastRowJSON{}
	if v, ok := row.Column("latitude"); ok {
		out.Latitude, _ = v.(float64)
	}
	if v, ok := row.Column("longitude"); ok {
		out.Longitude, _ = v.(float64)
	}
	if v, ok := row.Column("value"); ok {
		// bitmap-masked grid points decode as NaN, which JSON spells null
		if f, ok := v.(float64); ok && !math.IsNaN(f) {
			out.Value = &f
		}
	}
	if v, ok := row.Column("unit"); ok {
		if s, ok := v.(string); ok {
			out.Unit = &s
		}
	}
	if v, ok := row.Column("variable"); ok {
		out.Variable, _ = v.(string)
	}
	if v, ok := row.Column("level"); ok {
		out.Level, _ = v.(string)
	}
	if v, ok := row.Column("forecast_hour"); ok {
		out.ForecastHour, _ = v.(int)
	}
	if v, ok := row.Column("run_date"); ok {
		out.RunDate, _ = v.(string)
	}
	if v, ok := row.Column("run_hour"); ok {
		out.RunHour, _ = v.(int)
	}
	return out
}

type pointStepJSON struct {
	Time              time.Time `json:"time"`
	AirTemperature    *float64  `json:"air_temperature_celsius"`
	RelativeHumidity  *float64  `json:"relative_humidity_percentage"`
	WindSpeed         *float64  `json:"wind_speed_ms"`
	WindSpeedKmh      *float64  `json:"wind_speed_kmh"`
	WindFromDirection *float64  `json:"wind_direction_deg"`
	WindCardinal      *string   `json:"wind_direction_cardinal"`
	WindGust          *float64  `json:"wind_gust_ms"`
	PressureMSL       *float64  `json:"pressure_hpa"`
	CloudCover        *float64  `json:"cloud_cover_percentage"`
	Precipitation     *float64  `json:"precipitation_mm"`
	DewPoint          *float64  `json:"dew_point_celsius"`
	FeelsLike         *float64  `json:"feels_like_celsius"`
	Beaufort          *int      `json:"beaufort"`
}

// HandlePoint serves one coordinate's hourly forecast with the derived
// comfort quantities filled in where the inputs exist.
func HandlePoint(logger *slog.Logger, client *met.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		q := r.URL.Query()
		lat, err := strconv.ParseFloat(strings.TrimSpace(q.Get("lat")), 64)
		if err != nil {
			http.Error(sw, "missing or invalid lat", http.StatusBadRequest)
			observability.ObserveHTTP(r.Method, "/v1/point", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(q.Get("lon")), 64)
		if err != nil {
			http.Error(sw, "missing or invalid lon", http.StatusBadRequest)
			observability.ObserveHTTP(r.Method, "/v1/point", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}
		altitude := float64(met.AltitudeUnset)
		if v := strings.TrimSpace(q.Get("altitude")); v != "" {
			altitude, err = strconv.ParseFloat(v, 64)
			if err != nil || altitude < 0 {
				http.Error(sw, "invalid altitude", http.StatusBadRequest)
				observability.ObserveHTTP(r.Method, "/v1/point", http.StatusBadRequest, time.Since(start).Seconds())
				return
			}
		}

		points, err := client.Forecast(r.Context(), lat, lon, altitude)
		if err != nil {
			logger.Error("point forecast failed", slog.Any("err", err))
			http.Error(sw, err.Error(), http.StatusBadGateway)
			observability.ObserveHTTP(r.Method, "/v1/point", http.StatusBadGateway, time.Since(start).Seconds())
			return
		}

		out := make([]pointStepJSON, len(points))
		for i, p := range points {
			out[i] = pointJSON(p)
		}
		sw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(sw).Encode(out)
		observability.ObserveHTTP(r.Method, "/v1/point", sw.code, time.Since(start).Seconds())
	}
}

func pointJSON(p met.Point) pointStepJSON {
	out := pointStepJSON{
		Time:              p.Time,
		AirTemperature:    p.AirTemperature,
		RelativeHumidity:  p.RelativeHumidity,
		WindSpeed:         p.WindSpeed,
		WindFromDirection: p.WindFromDirection,
		WindGust:          p.WindGust,
		PressureMSL:       p.PressureMSL,
		CloudCover:        p.CloudCover,
		Precipitation:     p.Precipitation,
	}
	if p.WindSpeed != nil {
		kmh := convert.MsToKmh(*p.WindSpeed)
		out.WindSpeedKmh = &kmh
		bf := convert.BeaufortScale(*p.WindSpeed)
		out.Beaufort = &bf
	}
	if p.WindFromDirection != nil {
		card := convert.CardinalDirection(*p.WindFromDirection)
		out.WindCardinal = &card
	}
	if p.AirTemperature != nil && p.RelativeHumidity != nil {
		dp := convert.DewPoint(*p.AirTemperature, *p.RelativeHumidity)
		out.DewPoint = &dp
		if p.WindSpeed != nil {
			fl := convert.FeelsLike(*p.AirTemperature, *p.RelativeHumidity, convert.MsToKmh(*p.WindSpeed))
			out.FeelsLike = &fl
		}
	}
	return out
}
