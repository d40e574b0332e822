package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) ListViolations(ctx echo.Context) error {
	violations, err := c.store.ListViolations(ctx.Request().Context())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, violations)
}
