package occupancy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"trackoccupancy/internal/model"
)

// DayLayout is the format of the statistics day parameter.
const DayLayout = "2006-01-02"

var (
	// ErrAuditoriumInfo is returned when the capacity of an auditorium cannot be resolved.
	ErrAuditoriumInfo = errors.New("Failed to load auditorium information")
	// ErrInvalidDay is returned for a day not in YYYY-MM-DD form.
	ErrInvalidDay = errors.New("invalid day, expected YYYY-MM-DD")
)

// Source is the part of the remote facade the aggregator reads from.
type Source interface {
	Auditoriums(ctx context.Context, cityID, buildingID int64) ([]model.Auditorium, error)
	BuildingOccupancy(ctx context.Context, cityID, buildingID int64, timestamp string) ([]model.AuditoriumOccupancy, error)
	Statistics(ctx context.Context, cityID, buildingID, auditoriumID int64, day string) (*model.StatisticsResponse, error)
}

// Service combines facade calls into the views the screens render.
type Service struct {
	source Source
	loc    *time.Location
	now    func() time.Time
}

// NewService creates a service that stamps requests and data points in loc.
func NewService(source Source, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{source: source, loc: loc, now: time.Now}
}

// Building loads the auditoriums and the occupancy batch of a building concurrently and merges them.
// When both calls fail, the auditorium error is reported.
func (s *Service) Building(ctx context.Context, cityID, buildingID int64) ([]model.AuditoriumWithOccupancy, error) {
	timestamp := s.now().In(s.loc).Format(time.RFC3339)
	log.Printf("Requesting building occupancy with timestamp: %s", timestamp)

	var (
		auditoriums []model.Auditorium
		samples     []model.AuditoriumOccupancy
		audErr      error
		occErr      error
		g           errgroup.Group
	)
	g.Go(func() error {
		auditoriums, audErr = s.source.Auditoriums(ctx, cityID, buildingID)
		return audErr
	})
	g.Go(func() error {
		samples, occErr = s.source.BuildingOccupancy(ctx, cityID, buildingID, timestamp)
		return occErr
	})

	if err := g.Wait(); err != nil {
		if audErr != nil {
			log.Printf("Error loading auditoriums for building %d: %v", buildingID, audErr)
			return nil, audErr
		}
		log.Printf("Error loading occupancy for building %d: %v", buildingID, occErr)
		return nil, occErr
	}

	merged := Merge(auditoriums, samples)
	log.Printf("Loaded %d auditoriums with occupancy data", len(merged))
	return merged, nil
}

// History loads the hourly statistics of a day and scales them against the auditorium capacity.
func (s *Service) History(ctx context.Context, cityID, buildingID, auditoriumID int64, day string) (*model.OccupancyHistory, error) {
	date, err := time.ParseInLocation(DayLayout, day, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}

	auditoriums, err := s.source.Auditoriums(ctx, cityID, buildingID)
	if err != nil {
		log.Printf("Error loading auditoriums for building %d: %v", buildingID, err)
		return nil, ErrAuditoriumInfo
	}
	capacity, ok := capacityOf(auditoriums, auditoriumID)
	if !ok {
		return nil, ErrAuditoriumInfo
	}

	stats, err := s.source.Statistics(ctx, cityID, buildingID, auditoriumID, day)
	if err != nil {
		return nil, fmt.Errorf("Failed to load occupancy data: %w", err)
	}

	points := make([]model.OccupancyDataPoint, 0, len(stats.Stats))
	for _, stat := range stats.Stats {
		percentage := GraphPercentage(stat.AvgPersonCount, capacity)
		points = append(points, model.OccupancyDataPoint{
			Timestamp:      time.Date(date.Year(), date.Month(), date.Day(), stat.Hour, 0, 0, 0, s.loc),
			Hour:           stat.Hour,
			AvgPersonCount: stat.AvgPersonCount,
			Capacity:       capacity,
			Percentage:     percentage,
			Level:          LevelFor(percentage),
		})
	}

	return &model.OccupancyHistory{
		Day:         day,
		Points:      points,
		Warning:     stats.Warning,
		LastUpdated: s.now().In(s.loc),
	}, nil
}

func capacityOf(auditoriums []model.Auditorium, id int64) (int, bool) {
	for _, a := range auditoriums {
		if a.ID == id {
			return a.Capacity, true
		}
	}
	return 0, false
}
