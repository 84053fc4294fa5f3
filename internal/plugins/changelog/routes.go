package changelog

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the landing page and note submission.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/", h.Landing)
	e.POST("/changelog", h.AddNote)
}
