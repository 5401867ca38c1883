// Package unit exposes business unit CRUD and roster reads
package unit

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/banyan/internal/repositories/businessunit"
	"github.com/Ramsey-B/banyan/internal/repositories/position"
	"github.com/Ramsey-B/banyan/pkg/models"
)

// Handler serves unit routes
type Handler struct {
	units     *businessunit.Repository
	positions *position.Repository
	validate  *validator.Validate
}

// NewHandler creates a unit handler
func NewHandler(units *businessunit.Repository, positions *position.Repository) *Handler {
	return &Handler{
		units:     units,
		positions: positions,
		validate:  validator.New(),
	}
}

// Register registers unit routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/units", h.UpsertUnit)
	g.GET("/units", h.ListUnits)
	g.GET("/units/:id", h.GetUnit)
	g.GET("/units/:id/children", h.ListChildren)
	g.GET("/units/:id/positions", h.ListPositions)
}

// UpsertUnit creates or updates a unit by natural key. Root parents are
// created here before their first collection run.
func (h *Handler) UpsertUnit(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.UpsertBusinessUnitRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UnitType == "" {
		req.UnitType = models.UnitTypeParent
	}
	if err := h.validate.Struct(&req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid unit: %v", err)
	}
	if !req.UnitType.IsValid() {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid unit_type %q", req.UnitType)
	}

	unit, err := h.units.Upsert(ctx, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, unit)
}

// ListUnits returns every unit, roots first
func (h *Handler) ListUnits(c echo.Context) error {
	units, err := h.units.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, units)
}

// GetUnit returns one unit by ID
func (h *Handler) GetUnit(c echo.Context) error {
	unit, err := h.units.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, unit)
}

// ListChildren returns a unit's direct children
func (h *Handler) ListChildren(c echo.Context) error {
	units, err := h.units.ListChildren(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, units)
}

// ListPositions returns a unit's current roster
func (h *Handler) ListPositions(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if _, err := h.units.Get(ctx, id); err != nil {
		return err
	}
	positions, err := h.positions.ListCurrentByUnit(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, positions)
}
