package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trackoccupancy/internal/model"
	"trackoccupancy/internal/occupancy"
)

type cityResponse struct {
	model.City
	DisplayName string `json:"display_name"`
}

type buildingResponse struct {
	model.Building
	DisplayAddress string `json:"display_address"`
}

type auditoriumResponse struct {
	model.AuditoriumWithOccupancy
	DisplayType string `json:"display_type"`
}

// GetCities handles GET /api/cities.
func (h *Handler) GetCities(c *gin.Context) {
	cities, err := h.remote.Cities(c.Request.Context())
	if err != nil {
		upstreamError(c, err)
		return
	}

	lang := h.language(c)
	response := make([]cityResponse, 0, len(cities))
	for _, city := range cities {
		response = append(response, cityResponse{City: city, DisplayName: city.Name.Value(lang)})
	}
	c.JSON(http.StatusOK, response)
}

// GetBuildings handles GET /api/cities/{city}/buildings.
func (h *Handler) GetBuildings(c *gin.Context) {
	cityID, ok := pathID(c, "city")
	if !ok {
		return
	}

	buildings, err := h.remote.Buildings(c.Request.Context(), cityID)
	if err != nil {
		upstreamError(c, err)
		return
	}

	lang := h.language(c)
	response := make([]buildingResponse, 0, len(buildings))
	for _, b := range buildings {
		response = append(response, buildingResponse{Building: b, DisplayAddress: b.Address.Value(lang)})
	}
	c.JSON(http.StatusOK, response)
}

// GetAuditoriums handles GET /api/cities/{city}/buildings/{building}/auditoriums.
// Every auditorium of the building is returned joined with its current occupancy.
func (h *Handler) GetAuditoriums(c *gin.Context) {
	cityID, ok := pathID(c, "city")
	if !ok {
		return
	}
	buildingID, ok := pathID(c, "building")
	if !ok {
		return
	}

	merged, err := h.occupancy.Building(c.Request.Context(), cityID, buildingID)
	if err != nil {
		upstreamError(c, err)
		return
	}

	lang := h.language(c)
	response := make([]auditoriumResponse, 0, len(merged))
	for _, a := range merged {
		response = append(response, auditoriumResponse{AuditoriumWithOccupancy: a, DisplayType: a.Auditorium.Type.Value(lang)})
	}
	c.JSON(http.StatusOK, response)
}

// GetOccupancy handles GET .../auditoriums/{auditorium}/occupancy.
func (h *Handler) GetOccupancy(c *gin.Context) {
	cityID, buildingID, auditoriumID, ok := auditoriumPath(c)
	if !ok {
		return
	}

	timestamp := h.now().In(h.loc).Format(time.RFC3339)
	result, err := h.remote.AuditoriumOccupancy(c.Request.Context(), cityID, buildingID, auditoriumID, timestamp)
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetStatistics handles GET .../auditoriums/{auditorium}/statistics?day=YYYY-MM-DD.
// The day defaults to today in the configured timezone.
func (h *Handler) GetStatistics(c *gin.Context) {
	cityID, buildingID, auditoriumID, ok := auditoriumPath(c)
	if !ok {
		return
	}

	day := c.Query("day")
	if day == "" {
		day = h.now().In(h.loc).Format(occupancy.DayLayout)
	}

	history, err := h.occupancy.History(c.Request.Context(), cityID, buildingID, auditoriumID, day)
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// GetCameras handles GET .../auditoriums/{auditorium}/cameras.
func (h *Handler) GetCameras(c *gin.Context) {
	cityID, buildingID, auditoriumID, ok := auditoriumPath(c)
	if !ok {
		return
	}

	cameras, err := h.remote.Cameras(c.Request.Context(), cityID, buildingID, auditoriumID)
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, cameras)
}

func auditoriumPath(c *gin.Context) (cityID, buildingID, auditoriumID int64, ok bool) {
	if cityID, ok = pathID(c, "city"); !ok {
		return
	}
	if buildingID, ok = pathID(c, "building"); !ok {
		return
	}
	auditoriumID, ok = pathID(c, "auditorium")
	return
}
