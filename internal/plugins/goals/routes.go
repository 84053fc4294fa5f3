package goals

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all goal and link routes on the given Echo
// instance. Page routes render HTML; the /goals/... POST routes are JSON
// endpoints used by the inline editors.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/goals", h.List)

	// Link editors: the submitted checkbox set replaces the current links.
	e.GET("/links/goal/:id", h.ChildLinks)
	e.POST("/links/goal/:id", h.SaveChildLinks)
	e.GET("/links/parents/:id", h.ParentLinks)
	e.POST("/links/parents/:id", h.SaveParentLinks)

	// Inline JSON endpoints.
	e.POST("/goals/add-inline", h.AddInline)
	e.POST("/goals/:id/edit-inline", h.EditInline)
	e.POST("/goals/:id/delete-inline", h.DeleteInline)
	e.POST("/goals/:id/add-parent/:pid", h.AddParent)
	e.POST("/goals/:id/add-child/:cid", h.AddChild)
	e.POST("/goals/:id/create-and-link-parent", h.CreateAndLinkParent)
	e.POST("/goals/:id/create-and-link-child", h.CreateAndLinkChild)
}
