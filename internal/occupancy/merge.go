package occupancy

import (
	"log"

	"trackoccupancy/internal/model"
)

// Percentage returns floor(count/capacity*100), or 0 for a non-positive capacity.
// It is not clamped: an over-full auditorium reports more than 100.
func Percentage(count, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	return count * 100 / capacity
}

// GraphPercentage is the historical-graph variant of Percentage, clamped to [0, 100].
func GraphPercentage(avg float64, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	p := int(avg / float64(capacity) * 100)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// LevelFor buckets a percentage: high from 90, medium from 70.
func LevelFor(percentage int) model.OccupancyLevel {
	switch {
	case percentage >= 90:
		return model.LevelHigh
	case percentage >= 70:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

// Merge joins every auditorium with the sample carrying its id.
// The first sample wins when ids repeat; an auditorium without a sample gets zero, unfresh occupancy.
func Merge(auditoriums []model.Auditorium, samples []model.AuditoriumOccupancy) []model.AuditoriumWithOccupancy {
	byID := make(map[int64]model.AuditoriumOccupancy, len(samples))
	for _, s := range samples {
		if _, dup := byID[s.AuditoriumID]; dup {
			log.Printf("Warning: duplicate occupancy sample for auditorium %d ignored", s.AuditoriumID)
			continue
		}
		byID[s.AuditoriumID] = s
	}

	merged := make([]model.AuditoriumWithOccupancy, 0, len(auditoriums))
	for _, a := range auditoriums {
		entry := model.AuditoriumWithOccupancy{Auditorium: a}
		if s, ok := byID[a.ID]; ok {
			entry.CurrentOccupancy = s.PersonCount
			entry.OccupancyPercentage = Percentage(s.PersonCount, a.Capacity)
			entry.IsFresh = s.IsFresh
		}
		entry.Level = LevelFor(entry.OccupancyPercentage)
		merged = append(merged, entry)
	}
	return merged
}
