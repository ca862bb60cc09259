package api

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"trackoccupancy/config"
	"trackoccupancy/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID())

	rateLimiter := mw.RateLimiter(mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst))

	// Only hierarchy listings are cached, and only briefly.
	cacheStore := mw.NewCacheStore(cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)
	purge := mw.Purge(cacheStore)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/session", h.GetSession)
		api.POST("/session", purge, h.PostSession)
		api.DELETE("/session", purge, h.DeleteSession)
		api.PUT("/session/language", purge, h.PutLanguage)

		authed := api.Group("")
		authed.Use(mw.RequireSession(h.sessions))

		authed.GET("/cities", caching, h.GetCities)
		authed.GET("/cities/:city/buildings", caching, h.GetBuildings)
		authed.GET("/cities/:city/buildings/:building/auditoriums", h.GetAuditoriums)
		authed.GET("/cities/:city/buildings/:building/auditoriums/:auditorium/occupancy", h.GetOccupancy)
		authed.GET("/cities/:city/buildings/:building/auditoriums/:auditorium/statistics", h.GetStatistics)
		authed.GET("/cities/:city/buildings/:building/auditoriums/:auditorium/cameras", h.GetCameras)

		authed.GET("/cameras/:mac/snapshot", h.GetSnapshot)
		authed.GET("/cameras/:mac/live", h.GetLiveStream)
	}

	return r
}
