package model

import (
	"bytes"
	"fmt"
	"time"
)

// timestampLayouts are tried in order when decoding backend timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp is a time.Time that tolerates the zone-less layouts the backend emits.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("timestamp must be a string, got %s", data)
	}
	raw := string(data[1 : len(data)-1])
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// OccupancyResult is the occupancy sample of a single auditorium.
type OccupancyResult struct {
	PersonCount     int       `json:"person_count"`
	ActualTimestamp Timestamp `json:"actual_timestamp"`
	IsFresh         bool      `json:"is_fresh"`
	TimeDiffMinutes float64   `json:"time_diff_minutes"`
	Warning         *string   `json:"warning,omitempty"`
}

// AuditoriumOccupancy is one entry of the per-building occupancy batch.
type AuditoriumOccupancy struct {
	AuditoriumID    int64     `json:"auditorium_id"`
	PersonCount     int       `json:"person_count"`
	ActualTimestamp Timestamp `json:"actual_timestamp"`
	IsFresh         bool      `json:"is_fresh"`
	TimeDiffMinutes float64   `json:"time_diff_minutes"`
	Warning         *string   `json:"warning,omitempty"`
}

// AuditoriumStatistic is the average head count for one hour of a day.
type AuditoriumStatistic struct {
	Hour           int     `json:"hour"`
	AvgPersonCount float64 `json:"avg_person_count"`
}

// StatisticsResponse is the normalized statistics payload.
type StatisticsResponse struct {
	Stats   []AuditoriumStatistic `json:"stats"`
	Warning *string               `json:"warning"`
}

// OccupancyLevel buckets a percentage the way the list colours it.
type OccupancyLevel string

const (
	LevelLow    OccupancyLevel = "low"
	LevelMedium OccupancyLevel = "medium"
	LevelHigh   OccupancyLevel = "high"
)

// AuditoriumWithOccupancy joins an auditorium with its live sample.
type AuditoriumWithOccupancy struct {
	Auditorium          Auditorium     `json:"auditorium"`
	CurrentOccupancy    int            `json:"current_occupancy"`
	OccupancyPercentage int            `json:"occupancy_percentage"`
	IsFresh             bool           `json:"is_fresh"`
	Level               OccupancyLevel `json:"level"`
}

// OccupancyDataPoint is one hourly point of the historical graph.
type OccupancyDataPoint struct {
	Timestamp      time.Time      `json:"timestamp"`
	Hour           int            `json:"hour"`
	AvgPersonCount float64        `json:"avg_person_count"`
	Capacity       int            `json:"capacity"`
	Percentage     int            `json:"percentage"`
	Level          OccupancyLevel `json:"level"`
}

// OccupancyHistory is the graph payload for a day.
type OccupancyHistory struct {
	Day         string               `json:"day"`
	Points      []OccupancyDataPoint `json:"points"`
	Warning     *string              `json:"warning,omitempty"`
	LastUpdated time.Time            `json:"last_updated"`
}
