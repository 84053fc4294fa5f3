package charts

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the chart pages on the given Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/mindmap", h.MindMap)
	e.GET("/gantt", h.Gantt)
	e.GET("/sankey", h.Sankey)
}
