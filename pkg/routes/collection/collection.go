// Package collection exposes the collection-run trigger
package collection

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/collector"
	"github.com/Ramsey-B/banyan/pkg/models"
)

// Handler serves collection routes
type Handler struct {
	runner   *collector.Runner
	defaults models.CollectionConfig
	logger   *zap.Logger
}

// NewHandler creates a collection handler. defaults fill any budget the
// request leaves at zero.
func NewHandler(runner *collector.Runner, defaults models.CollectionConfig, logger *zap.Logger) *Handler {
	return &Handler{
		runner:   runner,
		defaults: defaults,
		logger:   logger,
	}
}

// Register registers collection routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/units/:id/collect", h.Collect)
}

// Collect runs a collection for one parent unit synchronously and returns
// the aggregate result. The request body is an optional partial
// CollectionConfig overriding the configured defaults.
func (h *Handler) Collect(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	cfg := h.defaults
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&cfg); err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "invalid collection config")
		}
	}
	cfg = cfg.Normalize()

	result, err := h.runner.Run(ctx, id, cfg)
	if err != nil {
		// The runner only errors on an unknown parent unit
		return err
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, result)
}
