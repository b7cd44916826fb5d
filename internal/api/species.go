// internal/api/species.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SpeciesSuggestions handles GET /api/species/suggestions?query=. It returns
// bird name suggestions matching the query from the built-in directory. An
// empty or missing query yields an empty list rather than the whole table.
func (c *Controller) SpeciesSuggestions(ctx echo.Context) error {
	query := ctx.QueryParam("query")
	return ctx.JSON(http.StatusOK, c.Directory.Suggest(query))
}
