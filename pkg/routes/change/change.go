// Package change exposes the detected leadership change log
package change

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/banyan/internal/repositories/businessunit"
	"github.com/Ramsey-B/banyan/internal/repositories/leadershipchange"
)

// Handler serves change routes
type Handler struct {
	units   *businessunit.Repository
	changes *leadershipchange.Repository
}

// NewHandler creates a change handler
func NewHandler(units *businessunit.Repository, changes *leadershipchange.Repository) *Handler {
	return &Handler{
		units:   units,
		changes: changes,
	}
}

// Register registers change routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/units/:id/changes", h.ListChanges)
}

// ListChanges returns a unit's change log, newest first, optionally filtered
// by ?min_significance=N
func (h *Handler) ListChanges(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if _, err := h.units.Get(ctx, id); err != nil {
		return err
	}

	minSignificance := 0
	if raw := c.QueryParam("min_significance"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 10 {
			return httperror.NewHTTPError(http.StatusBadRequest, "min_significance must be 1-10")
		}
		minSignificance = parsed
	}

	changes, err := h.changes.ListByUnit(ctx, id, minSignificance)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, changes)
}
