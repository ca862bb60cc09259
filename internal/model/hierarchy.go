package model

// LocalizedString carries the Russian and English variants of a backend label.
type LocalizedString struct {
	RU string `json:"ru"`
	EN string `json:"en"`
}

// Value returns the variant for the given two-letter language code.
// Anything other than "ru" falls back to English.
func (s LocalizedString) Value(lang string) string {
	if lang == "ru" {
		return s.RU
	}
	return s.EN
}

// City is the root of the browsing hierarchy.
type City struct {
	ID   int64           `json:"id"`
	Name LocalizedString `json:"name"`
}

// Building belongs to a city.
type Building struct {
	ID          int64           `json:"id"`
	CityID      int64           `json:"city_id"`
	Address     LocalizedString `json:"address"`
	FloorsCount int             `json:"floors_count"`
}

// Auditorium belongs to a building.
type Auditorium struct {
	ID               int64           `json:"id"`
	BuildingID       int64           `json:"building_id"`
	FloorNumber      int             `json:"floor_number"`
	Capacity         int             `json:"capacity"`
	AuditoriumNumber string          `json:"auditorium_number"`
	Type             LocalizedString `json:"type"`
	ImageURL         *string         `json:"image_url"`
}

// Camera is a snapshot source installed in an auditorium.
type Camera struct {
	ID           int64  `json:"id"`
	MAC          string `json:"mac"`
	AuditoriumID *int64 `json:"auditorium_id,omitempty"`
}
