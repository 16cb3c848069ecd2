// Package met queries the met.no locationforecast feed for one
// coordinate's hourly timeseries.
//
// Responses are cached per H3 cell rather than per raw coordinate, so
// nearby lookups within one cell share a cached body instead of hitting
// the upstream again. met.no requires an identifying User-Agent; the
// fetcher is expected to carry it.
package met

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/onnimonni/gridscan/internal/cache"
	"github.com/onnimonni/gridscan/internal/cache/keys"
	"github.com/onnimonni/gridscan/internal/core/observability"
	"github.com/onnimonni/gridscan/internal/fetch"
)

// DefaultBaseURL is the compact locationforecast endpoint.
const DefaultBaseURL = "https://api.met.no/weatherapi/locationforecast/2.0/compact"

// AltitudeUnset leaves the altitude to the feed's own terrain model.
const AltitudeUnset = -1

// Point is one forecast timestep. Nil fields were absent from the
// response, which the feed uses for parameters it cannot provide.
type Point struct {
	Time              time.Time
	AirTemperature    *float64 // degrees C
	RelativeHumidity  *float64 // percent
	WindSpeed         *float64 // m/s
	WindFromDirection *float64 // degrees
	WindGust          *float64 // m/s
	PressureMSL       *float64 // hPa
	CloudCover        *float64 // percent
	Precipitation     *float64 // mm over the next hour
}

type Client struct {
	baseURL    string
	fetcher    fetch.Fetcher
	store      cache.Store
	ttl        time.Duration
	resolution int
	log        *slog.Logger
}

// NewClient builds a point-forecast client. store may be nil to disable
// response caching; resolution is the H3 snap resolution for cache keys.
func NewClient(log *slog.Logger, fetcher fetch.Fetcher, baseURL string, store cache.Store, ttl time.Duration, resolution int) *Client {
	if log == nil {
		log = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		fetcher:    fetcher,
		store:      store,
		ttl:        ttl,
		resolution: resolution,
		log:        log,
	}
}

// Forecast returns the hourly timeseries for one coordinate. altitude is
// in meters; pass AltitudeUnset to omit it.
func (c *Client) Forecast(ctx context.Context, lat, lon, altitude float64) ([]Point, error) {
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("latitude %v out of range", lat)
	}

	locator := c.baseURL + fmt.Sprintf("?lat=%.6f&lon=%.6f", lat, lon)
	if altitude >= 0 {
		locator += fmt.Sprintf("&altitude=%.0f", altitude)
	}

	body, err := c.fetchCached(ctx, lat, lon, altitude, locator)
	if err != nil {
		return nil, err
	}
	return parseForecast(body)
}

func (c *Client) fetchCached(ctx context.Context, lat, lon, altitude float64, locator string) ([]byte, error) {
	if c.store == nil {
		return c.fetcher.Fetch(ctx, locator)
	}

	key, err := c.cacheKey(lat, lon, altitude)
	if err != nil {
		// an unmappable coordinate only disables caching
		c.log.Warn("h3 cell lookup failed", slog.Any("err", err))
		return c.fetcher.Fetch(ctx, locator)
	}

	if val, ok, err := c.store.Get(ctx, key); err != nil {
		c.log.Warn("cache get failed", slog.String("key", key), slog.Any("err", err))
	} else if ok {
		observability.IncCacheHit()
		return val, nil
	}
	observability.IncCacheMiss()

	body, err := c.fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, body, c.ttl); err != nil {
		c.log.Warn("cache set failed", slog.String("key", key), slog.Any("err", err))
	}
	return body, nil
}

func (c *Client) cacheKey(lat, lon, altitude float64) (string, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), c.resolution)
	if err != nil {
		return "", err
	}
	alt := AltitudeUnset
	if altitude >= 0 {
		alt = int(altitude)
	}
	return keys.Point("met", c.resolution, cell.String(), alt), nil
}

// wire types for the compact locationforecast payload

type wireResponse struct {
	Properties struct {
		Timeseries []wireStep `json:"timeseries"`
	} `json:"properties"`
}

type wireStep struct {
	Time time.Time `json:"time"`
	Data struct {
		Instant struct {
			Details wireInstant `json:"details"`
		} `json:"instant"`
		Next1Hours *struct {
			Details struct {
				PrecipitationAmount *float64 `json:"precipitation_amount"`
			} `json:"details"`
		} `json:"next_1_hours"`
	} `json:"data"`
}

type wireInstant struct {
	AirTemperature        *float64 `json:"air_temperature"`
	RelativeHumidity      *float64 `json:"relative_humidity"`
	WindSpeed             *float64 `json:"wind_speed"`
	WindFromDirection     *float64 `json:"wind_from_direction"`
	WindSpeedOfGust       *float64 `json:"wind_speed_of_gust"`
	AirPressureAtSeaLevel *float64 `json:"air_pressure_at_sea_level"`
	CloudAreaFraction     *float64 `json:"cloud_area_fraction"`
}

func parseForecast(body []byte) ([]Point, error) {
	var resp wireResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse locationforecast response: %w", err)
	}
	if resp.Properties.Timeseries == nil {
		return nil, fmt.Errorf("locationforecast response missing timeseries")
	}

	points := make([]Point, 0, len(resp.Properties.Timeseries))
	for _, step := range resp.Properties.Timeseries {
		p := Point{
			Time:              step.Time,
			AirTemperature:    step.Data.Instant.Details.AirTemperature,
			RelativeHumidity:  step.Data.Instant.Details.RelativeHumidity,
			WindSpeed:         step.Data.Instant.Details.WindSpeed,
			WindFromDirection: step.Data.Instant.Details.WindFromDirection,
			WindGust:          step.Data.Instant.Details.WindSpeedOfGust,
			PressureMSL:       step.Data.Instant.Details.AirPressureAtSeaLevel,
			CloudCover:        step.Data.Instant.Details.CloudAreaFraction,
		}
		if step.Data.Next1Hours != nil {
			p.Precipitation = step.Data.Next1Hours.Details.PrecipitationAmount
		}
		points = append(points, p)
	}
	return points, nil
}
