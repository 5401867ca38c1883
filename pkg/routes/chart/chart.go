// Package chart exposes org chart snapshot reads and the functional view
package chart

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/banyan/internal/repositories/businessunit"
	"github.com/Ramsey-B/banyan/internal/repositories/orgchartsnapshot"
	"github.com/Ramsey-B/banyan/internal/repositories/position"
	"github.com/Ramsey-B/banyan/pkg/orgchart"
)

// Handler serves org chart routes
type Handler struct {
	units     *businessunit.Repository
	positions *position.Repository
	snapshots *orgchartsnapshot.Repository
}

// NewHandler creates a chart handler
func NewHandler(units *businessunit.Repository, positions *position.Repository, snapshots *orgchartsnapshot.Repository) *Handler {
	return &Handler{
		units:     units,
		positions: positions,
		snapshots: snapshots,
	}
}

// Register registers chart routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/units/:id/orgchart", h.GetLatest)
	g.GET("/units/:id/orgchart/functional", h.GetFunctional)
}

// GetLatest returns a unit's most recent persisted snapshot
func (h *Handler) GetLatest(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if _, err := h.units.Get(ctx, id); err != nil {
		return err
	}
	snapshot, err := h.snapshots.GetLatest(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

// GetFunctional renders one function's leadership line across the unit and
// its children, e.g. ?function=Technology
func (h *Handler) GetFunctional(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	function, ok := orgchart.FunctionFor(c.QueryParam("function"))
	if !ok {
		return httperror.NewHTTPError(http.StatusBadRequest, "unknown function; try Technology or Finance")
	}

	parent, err := h.units.Get(ctx, id)
	if err != nil {
		return err
	}
	parentRoster, err := h.positions.ListCurrentByUnit(ctx, parent.ID)
	if err != nil {
		return err
	}

	children, err := h.units.ListChildren(ctx, parent.ID)
	if err != nil {
		return err
	}

	subsidiaries := make([]orgchart.UnitRoster, 0, len(children))
	for i := range children {
		roster, err := h.positions.ListCurrentByUnit(ctx, children[i].ID)
		if err != nil {
			return err
		}
		if len(roster) == 0 {
			continue
		}
		subsidiaries = append(subsidiaries, orgchart.UnitRoster{Unit: &children[i], Roster: roster})
	}

	tree := orgchart.BuildFunctionalChart(function, orgchart.UnitRoster{Unit: parent, Roster: parentRoster}, subsidiaries)
	return c.JSON(http.StatusOK, map[string]any{
		"function": function.Name,
		"unit_id":  parent.ID,
		"tree":     tree,
	})
}
