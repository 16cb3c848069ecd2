package met

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/onnimonni/gridscan/internal/cache/memstore"
)

const sampleResponse = `{
  "properties": {
    "timeseries": [
      {
        "time": "2026-01-20T12:00:00Z",
        "data": {
          "instant": {
            "details": {
              "air_temperature": -3.2,
              "relative_humidity": 87.5,
              "wind_speed": 4.1,
              "wind_from_direction": 210.0,
              "air_pressure_at_sea_level": 1003.6,
              "cloud_area_fraction": 92.0
            }
          },
          "next_1_hours": {
            "details": {
              "precipitation_amount": 0.4
            }
          }
        }
      },
      {
        "time": "2026-01-20T13:00:00Z",
        "data": {
          "instant": {
            "details": {
              "air_temperature": -2.9
            }
          }
        }
      }
    ]
  }
}`

type stubFetcher struct {
	body     []byte
	locators []string
}

func (f *stubFetcher) Fetch(_ context.Context, locator string) ([]byte, error) {
	f.locators = append(f.locators, locator)
	return f.body, nil
}

func TestForecastParsesTimeseries(t *testing.T) {
	fetcher := &stubFetcher{body: []byte(sampleResponse)}
	c := NewClient(nil, fetcher, "", nil, 0, 8)

	points, err := c.Forecast(t.Context(), 60.1699, 24.9384, AltitudeUnset)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}

	p := points[0]
	if !p.Time.Equal(time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("time = %v", p.Time)
	}
	if p.AirTemperature == nil || *p.AirTemperature != -3.2 {
		t.Errorf("air temperature = %v", p.AirTemperature)
	}
	if p.Precipitation == nil || *p.Precipitation != 0.4 {
		t.Errorf("precipitation = %v", p.Precipitation)
	}

	// second step has no wind or next_1_hours block
	if points[1].WindSpeed != nil || points[1].Precipitation != nil {
		t.Error("absent parameters must stay nil")
	}
}

func TestForecastLocatorFormat(t *testing.T) {
	fetcher := &stubFetcher{body: []byte(sampleResponse)}
	c := NewClient(nil, fetcher, DefaultBaseURL, nil, 0, 8)

	if _, err := c.Forecast(t.Context(), 60.1699, 24.9384, 12); err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	want := DefaultBaseURL + "?lat=60.169900&lon=24.938400&altitude=12"
	if fetcher.locators[0] != want {
		t.Errorf("locator = %s\n     want %s", fetcher.locators[0], want)
	}

	if _, err := c.Forecast(t.Context(), 60.1699, 24.9384, AltitudeUnset); err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if strings.Contains(fetcher.locators[1], "altitude") {
		t.Errorf("unset altitude must be omitted: %s", fetcher.locators[1])
	}
}

func TestForecastCachesPerCell(t *testing.T) {
	store := memstore.New(16)
	fetcher := &stubFetcher{body: []byte(sampleResponse)}
	c := NewClient(nil, fetcher, "", store, time.Hour, 6)

	// two coordinates close enough to share a resolution-6 cell
	if _, err := c.Forecast(t.Context(), 60.16990, 24.93840, AltitudeUnset); err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if _, err := c.Forecast(t.Context(), 60.16991, 24.93841, AltitudeUnset); err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(fetcher.locators) != 1 {
		t.Errorf("made %d upstream fetches, want 1 (second should hit cache)", len(fetcher.locators))
	}
}

func TestForecastRejectsBadLatitude(t *testing.T) {
	c := NewClient(nil, &stubFetcher{}, "", nil, 0, 8)
	if _, err := c.Forecast(t.Context(), 91, 0, AltitudeUnset); err == nil {
		t.Fatal("want error for latitude out of range")
	}
}

func TestParseForecastMissingTimeseries(t *testing.T) {
	if _, err := parseForecast([]byte(`{"properties": {}}`)); err == nil {
		t.Fatal("want error for missing timeseries")
	}
	if _, err := parseForecast([]byte(`not json`)); err == nil {
		t.Fatal("want error for malformed json")
	}
}
