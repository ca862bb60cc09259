package remote

import (
	"encoding/json"

	"trackoccupancy/internal/model"
)

// NoDataWarning is attached to the empty result that stands in for a 404.
const NoDataWarning = "No data available"

// NoStatistics returns the normalized "no data" statistics result.
func NoStatistics() *model.StatisticsResponse {
	warning := NoDataWarning
	return &model.StatisticsResponse{
		Stats:   []model.AuditoriumStatistic{},
		Warning: &warning,
	}
}

// ParseStatistics decodes a statistics body that is either
// {"stats": [...], "warning": ...} or a bare array of entries.
func ParseStatistics(body []byte) (*model.StatisticsResponse, error) {
	if isEmptyJSON(body) {
		return nil, ErrEmptyBody
	}

	var wrapper model.StatisticsResponse
	objErr := json.Unmarshal(body, &wrapper)
	if objErr == nil {
		if wrapper.Stats == nil {
			wrapper.Stats = []model.AuditoriumStatistic{}
		}
		return &wrapper, nil
	}

	var entries []model.AuditoriumStatistic
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &ParseError{Err: err}
	}
	if entries == nil {
		entries = []model.AuditoriumStatistic{}
	}
	return &model.StatisticsResponse{Stats: entries}, nil
}
