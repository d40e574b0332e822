package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"github.com/openjordan/healthatlas/internal/pkg/store"
)

func (c *Controller) ListUnits(ctx echo.Context) error {
	opts := store.ListUnitsOpts{}

	if raw := ctx.QueryParams().Get("level"); raw != "" {
		level := domain.Level(raw)
		if !level.Valid() {
			return constants.ErrBadRequest
		}
		opts.Level = &level
	}

	units, err := c.store.ListUnits(ctx.Request().Context(), opts)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, units)
}

func (c *Controller) GetUnitRates(ctx echo.Context) error {
	unitID := ctx.Param("id")

	// 404 for unknown units rather than an empty list
	if _, err := c.store.GetUnitByID(ctx.Request().Context(), unitID); err != nil {
		return err
	}

	rates, err := c.store.ListRatesByUnitID(ctx.Request().Context(), unitID)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, rates)
}
