package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"trackoccupancy/internal/model"
	"trackoccupancy/internal/mw"
	"trackoccupancy/internal/occupancy"
	"trackoccupancy/internal/session"
	"trackoccupancy/internal/snapshot"
)

// Sessions is the session store as seen by the gateway.
type Sessions interface {
	Login(ctx context.Context, login, password string) (*model.LoginResponse, error)
	Clear(ctx context.Context) error
	LoggedIn() bool
	Language(ctx context.Context) (string, error)
	SetLanguage(ctx context.Context, lang string) error
}

// Remote is the subset of the backend facade served without aggregation.
type Remote interface {
	Cities(ctx context.Context) ([]model.City, error)
	Buildings(ctx context.Context, cityID int64) ([]model.Building, error)
	AuditoriumOccupancy(ctx context.Context, cityID, buildingID, auditoriumID int64, timestamp string) (*model.OccupancyResult, error)
	Cameras(ctx context.Context, cityID, buildingID, auditoriumID int64) ([]model.Camera, error)
}

// Occupancy builds the merged and historical occupancy views.
type Occupancy interface {
	Building(ctx context.Context, cityID, buildingID int64) ([]model.AuditoriumWithOccupancy, error)
	History(ctx context.Context, cityID, buildingID, auditoriumID int64, day string) (*model.OccupancyHistory, error)
}

// Frames produces camera snapshots.
type Frames interface {
	Once(ctx context.Context, mac string) (snapshot.Frame, error)
	Run(ctx context.Context, mac string, sink func(snapshot.Frame))
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	sessions    Sessions
	remote      Remote
	occupancy   Occupancy
	frames      Frames
	loc         *time.Location
	jpegQuality int
	now         func() time.Time
}

// NewHandler creates a new API handler. Times are rendered in loc.
func NewHandler(sessions Sessions, remote Remote, occ Occupancy, frames Frames, loc *time.Location, jpegQuality int) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		sessions:    sessions,
		remote:      remote,
		occupancy:   occ,
		frames:      frames,
		loc:         loc,
		jpegQuality: jpegQuality,
		now:         time.Now,
	}
}

// language returns the saved preference, falling back to the default on a settings failure.
func (h *Handler) language(c *gin.Context) string {
	lang, err := h.sessions.Language(c.Request.Context())
	if err != nil {
		return session.DefaultLanguage
	}
	return lang
}

// pathID parses a numeric path parameter, answering 400 when it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " ID"})
		return 0, false
	}
	return id, true
}

// upstreamError reports a failed backend call. Nothing is retried; the client re-requests.
func upstreamError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, occupancy.ErrInvalidDay) {
		status = http.StatusBadRequest
	}
	log.Printf("request %s %s failed: %v", mw.GetRequestID(c), c.Request.URL.Path, err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
