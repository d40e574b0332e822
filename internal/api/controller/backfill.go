package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) BackfillWikidataLabels(ctx echo.Context) error {
	updated, err := c.wikidata.BackfillLabels(ctx.Request().Context())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, updated)
}
