package charts

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roadmap/internal/middleware"
	"github.com/keyxmakerx/roadmap/internal/templates/pages"
)

// Handler serves the chart pages.
type Handler struct {
	service       ChartService
	defaultHeight int
}

// NewHandler creates a chart handler. defaultHeight is the Sankey drawing
// height used when the request does not override it.
func NewHandler(service ChartService, defaultHeight int) *Handler {
	return &Handler{service: service, defaultHeight: defaultHeight}
}

// MindMap renders the mind-map view (GET /mindmap).
func (h *Handler) MindMap(c echo.Context) error {
	payload, err := h.service.MindMap(c.Request().Context())
	if err != nil {
		return err
	}
	return middleware.Render(c, http.StatusOK, pages.MindMap(payload))
}

// Gantt renders the Gantt view (GET /gantt).
func (h *Handler) Gantt(c echo.Context) error {
	payload, err := h.service.Gantt(c.Request().Context())
	if err != nil {
		return err
	}
	return middleware.Render(c, http.StatusOK, pages.Gantt(payload))
}

// Sankey renders the Sankey view (GET /sankey?h=<int>).
func (h *Handler) Sankey(c echo.Context) error {
	payload, err := h.service.Sankey(c.Request().Context())
	if err != nil {
		return err
	}
	return middleware.Render(c, http.StatusOK, pages.Sankey(payload, h.height(c.QueryParam("h"))))
}

// height reads the h override. Missing, non-integer or non-positive values
// fall back to the configured default.
func (h *Handler) height(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return h.defaultHeight
	}
	return n
}
