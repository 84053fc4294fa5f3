package changelog

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roadmap/internal/middleware"
	"github.com/keyxmakerx/roadmap/internal/templates/pages"
)

// Handler handles the landing page and note submission.
type Handler struct {
	service ChangelogService
}

// NewHandler creates a new changelog handler.
func NewHandler(service ChangelogService) *Handler {
	return &Handler{service: service}
}

// Landing renders the change feed and release notes (GET /).
func (h *Handler) Landing(c echo.Context) error {
	ctx := c.Request().Context()

	feed, err := h.service.Feed(ctx)
	if err != nil {
		return err
	}

	// Release notes live in the workbook; the log alone is still worth
	// showing when they cannot be read.
	notes, err := h.service.ReleaseNotes(ctx)
	if err != nil {
		slog.Warn("release notes unavailable", slog.Any("error", err))
		notes = nil
	}

	return middleware.Render(c, http.StatusOK, pages.Landing(pages.LandingData{
		Columns:      feed.Columns,
		Rows:         feed.Rows,
		ReleaseNotes: notes,
	}))
}

// AddNote appends a hand-written note and returns to the landing page
// (POST /changelog).
func (h *Handler) AddNote(c echo.Context) error {
	if err := h.service.AddNote(c.Request().Context(), c.FormValue("note"), c.FormValue("author")); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
