package goals

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roadmap/internal/apperror"
	"github.com/keyxmakerx/roadmap/internal/middleware"
	"github.com/keyxmakerx/roadmap/internal/templates/pages"
)

// Handler handles HTTP requests for goal and link operations. Handlers are
// thin: bind request, call service, render response. No business logic lives
// here.
type Handler struct {
	service GoalService
}

// NewHandler creates a new goal handler backed by the given service.
func NewHandler(service GoalService) *Handler {
	return &Handler{service: service}
}

// okResponse is the success body of every JSON endpoint.
type okResponse struct {
	OK bool `json:"ok"`
	ID int  `json:"id,omitempty"`
}

// --- Pages ---

// List renders the goal list (GET /goals). Clients asking for JSON get the
// view model instead.
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, list)
	}
	return middleware.Render(c, http.StatusOK, pages.Goals(list))
}

// ChildLinks renders the child link editor (GET /links/goal/:id).
func (h *Handler) ChildLinks(c echo.Context) error {
	return h.linkPage(c, DirectionChildren)
}

// ParentLinks renders the parent link editor (GET /links/parents/:id).
func (h *Handler) ParentLinks(c echo.Context) error {
	return h.linkPage(c, DirectionParents)
}

// SaveChildLinks replaces the goal's children (POST /links/goal/:id).
func (h *Handler) SaveChildLinks(c echo.Context) error {
	return h.saveLinks(c, DirectionChildren)
}

// SaveParentLinks replaces the goal's parents (POST /links/parents/:id).
func (h *Handler) SaveParentLinks(c echo.Context) error {
	return h.saveLinks(c, DirectionParents)
}

func (h *Handler) linkPage(c echo.Context, dir Direction) error {
	goalID, err := pathID(c, "id")
	if err != nil {
		return c.Redirect(http.StatusFound, "/goals")
	}

	page, err := h.service.LinkPage(c.Request().Context(), goalID, dir)
	if apperror.IsNotFound(err) {
		return c.Redirect(http.StatusFound, "/goals")
	}
	if err != nil {
		return err
	}
	return middleware.Render(c, http.StatusOK, pages.Links(page))
}

func (h *Handler) saveLinks(c echo.Context, dir Direction) error {
	goalID, err := pathID(c, "id")
	if err != nil {
		return c.Redirect(http.StatusFound, "/goals")
	}

	field := "child_id"
	if dir == DirectionParents {
		field = "parent_id"
	}
	form, err := c.FormParams()
	if err != nil {
		return apperror.NewBadRequest("invalid form body")
	}
	submitted := make([]int, 0, len(form[field]))
	for _, raw := range form[field] {
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return apperror.NewBadRequest("invalid goal ID " + strconv.Quote(raw))
		}
		submitted = append(submitted, id)
	}

	err = h.service.ReplaceLinks(c.Request().Context(), goalID, dir, submitted)
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}
	return c.Redirect(http.StatusFound, "/goals")
}

// --- JSON endpoints ---

// AddParent links one parent (POST /goals/:id/add-parent/:pid).
func (h *Handler) AddParent(c echo.Context) error {
	goalID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	parentID, err := pathID(c, "pid")
	if err != nil {
		return err
	}
	if err := h.service.AddParent(c.Request().Context(), goalID, parentID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

// AddChild links one child (POST /goals/:id/add-child/:cid).
func (h *Handler) AddChild(c echo.Context) error {
	goalID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	childID, err := pathID(c, "cid")
	if err != nil {
		return err
	}
	if err := h.service.AddChild(c.Request().Context(), goalID, childID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

// CreateAndLinkParent creates a goal and makes it a parent
// (POST /goals/:id/create-and-link-parent).
func (h *Handler) CreateAndLinkParent(c echo.Context) error {
	return h.createAndLink(c, DirectionParents)
}

// CreateAndLinkChild creates a goal and makes it a child
// (POST /goals/:id/create-and-link-child).
func (h *Handler) CreateAndLinkChild(c echo.Context) error {
	return h.createAndLink(c, DirectionChildren)
}

func (h *Handler) createAndLink(c echo.Context, dir Direction) error {
	goalID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	in, err := bindGoalInput(c)
	if err != nil {
		return err
	}
	newID, err := h.service.CreateAndLink(c.Request().Context(), goalID, dir, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: true, ID: newID})
}

// EditInline updates a goal's fields (POST /goals/:id/edit-inline).
func (h *Handler) EditInline(c echo.Context) error {
	goalID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	in, err := bindGoalInput(c)
	if err != nil {
		return err
	}
	if err := h.service.Update(c.Request().Context(), goalID, in); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

// DeleteInline removes an unlinked goal (POST /goals/:id/delete-inline).
func (h *Handler) DeleteInline(c echo.Context) error {
	goalID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), goalID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

// AddInline creates a goal (POST /goals/add-inline).
func (h *Handler) AddInline(c echo.Context) error {
	in, err := bindGoalInput(c)
	if err != nil {
		return err
	}
	newID, err := h.service.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: true, ID: newID})
}

// --- Helpers ---

// pathID parses an integer path parameter. Non-integers are a 404, the same
// as a route that does not match.
func pathID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, apperror.NewNotFound("Not Found")
	}
	return id, nil
}

// wantsJSON reports whether the client prefers a JSON response.
func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
