package api

import (
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/gin-gonic/gin"

	"trackoccupancy/internal/snapshot"
)

// GetSnapshot handles GET /api/cameras/{mac}/snapshot and returns one JPEG frame.
func (h *Handler) GetSnapshot(c *gin.Context) {
	frame, err := h.frames.Once(c.Request.Context(), c.Param("mac"))
	if err != nil {
		upstreamError(c, err)
		return
	}

	data, err := frame.JPEG(h.jpegQuality)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

// GetLiveStream handles GET /api/cameras/{mac}/live.
// Frames are pushed as a multipart/x-mixed-replace stream until the client disconnects.
func (h *Handler) GetLiveStream(c *gin.Context) {
	mac := c.Param("mac")
	parts := multipart.NewWriter(c.Writer)

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary="+parts.Boundary())
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	h.frames.Run(c.Request.Context(), mac, func(frame snapshot.Frame) {
		data, err := frame.JPEG(h.jpegQuality)
		if err != nil {
			log.Printf("Error encoding frame for camera %s: %v", mac, err)
			return
		}

		part, err := parts.CreatePart(textproto.MIMEHeader{
			"Content-Type":   {"image/jpeg"},
			"Content-Length": {strconv.Itoa(len(data))},
		})
		if err != nil {
			return
		}
		if _, err := part.Write(data); err != nil {
			return
		}
		c.Writer.Flush()
	})
}
