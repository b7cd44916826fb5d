// internal/api/media.go
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/featherframe/featherframe/internal/blobstore"
	"github.com/featherframe/featherframe/internal/errors"
)

// ServeImage handles GET /api/images/:name and streams the stored image
// bytes back to the client with the content type recorded at upload time.
func (c *Controller) ServeImage(ctx echo.Context) error {
	name := ctx.Param("name")

	// A name outside the generated grammar can never resolve, so it gets the
	// same not-found answer as any other never-written name. The check also
	// keeps such names away from the storage layer.
	if !blobstore.ValidName(name) {
		return c.HandleError(ctx, fmt.Errorf("image not found"),
			"Image not found", http.StatusNotFound)
	}

	reader, meta, err := c.Blobs.Get(ctx.Request().Context(), name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return c.HandleError(ctx, err, "Image not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to retrieve image", http.StatusInternalServerError)
	}
	defer reader.Close()

	contentType := meta.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return ctx.Stream(http.StatusOK, contentType, reader)
}
