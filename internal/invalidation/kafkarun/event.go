// Package kafkarun invalidates cached feed resources when a new model run
// is published. Publishers emit one event per run on a Kafka topic; the
// runner drops every cached resource belonging to that run so the next
// scan fetches fresh output.
package kafkarun

import (
	"fmt"
	"time"
)

// RunEvent announces that a model run was refreshed upstream.
type RunEvent struct {
	Model   string    `json:"model"`
	RunDate string    `json:"run_date"`
	RunHour int       `json:"run_hour"`
	Version uint64    `json:"version"`
	TS      time.Time `json:"ts"`
}

func (e *RunEvent) Validate() error {
	if e.Model == "" {
		return fmt.Errorf("run event missing model")
	}
	if len(e.RunDate) != 8 {
		return fmt.Errorf("run event run_date %q is not an 8-digit date", e.RunDate)
	}
	if e.RunHour < 0 || e.RunHour > 23 {
		return fmt.Errorf("run event run_hour %d out of range", e.RunHour)
	}
	return nil
}

// dedupeKey identifies a run for version comparison.
func (e *RunEvent) dedupeKey() string {
	return fmt.Sprintf("%s:%s:%02d", e.Model, e.RunDate, e.RunHour)
}
