package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"trackoccupancy/internal/session"
)

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	LoggedIn bool   `json:"logged_in"`
	Language string `json:"language"`
}

// PostSession logs in with the submitted credentials.
func (h *Handler) PostSession(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "login and password are required"})
		return
	}

	if _, err := h.sessions.Login(c.Request.Context(), req.Login, req.Password); err != nil {
		var loginErr *session.LoginError
		if errors.As(err, &loginErr) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		upstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{LoggedIn: true, Language: h.language(c)})
}

// DeleteSession logs out.
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSession reports the login state and language preference.
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, sessionResponse{LoggedIn: h.sessions.LoggedIn(), Language: h.language(c)})
}

type languageRequest struct {
	Language string `json:"language" binding:"required"`
}

// PutLanguage saves the language preference.
func (h *Handler) PutLanguage(c *gin.Context) {
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "language is required"})
		return
	}

	if err := h.sessions.SetLanguage(c.Request.Context(), req.Language); err != nil {
		if errors.Is(err, session.ErrUnsupportedLanguage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, sessionResponse{LoggedIn: h.sessions.LoggedIn(), Language: req.Language})
}
