// internal/api/sightings.go
package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/featherframe/featherframe/internal/ingest"
	"github.com/featherframe/featherframe/internal/security"
)

// UploadSightings handles POST /api/sightings. It accepts a multipart form
// with one or more files under the "images" field plus optional shared
// metadata fields, and ingests each image as a sighting owned by the caller.
// On success it answers 201 with the array of created sightings.
func (c *Controller) UploadSightings(ctx echo.Context) error {
	owner := security.OwnerFromContext(ctx)

	form, err := ctx.MultipartForm()
	if err != nil {
		return c.HandleError(ctx, err, "Invalid multipart form", http.StatusBadRequest)
	}

	files := form.File["images"]
	if len(files) == 0 {
		return c.HandleError(ctx, fmt.Errorf("no images provided"),
			"At least one image is required", http.StatusBadRequest)
	}

	images := make([]ingest.Image, 0, len(files))
	for _, fh := range files {
		img, err := readUpload(fh)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to read uploaded file", http.StatusBadRequest)
		}
		images = append(images, img)
	}

	meta := ingest.Metadata{
		Name:        ctx.FormValue("name"),
		Species:     ctx.FormValue("species"),
		Region:      ctx.FormValue("region"),
		Description: ctx.FormValue("description"),
	}

	sightings, err := c.Orchestrator.Ingest(ctx.Request().Context(), owner, images, meta)

	// A failed batch may still have committed sightings for earlier images,
	// so the owner's cached list is stale whether or not ingestion succeeded.
	c.invalidateOwnerCache(owner)

	if err != nil {
		return c.HandleError(ctx, err, "Failed to process upload", statusForError(err))
	}

	return ctx.JSON(http.StatusCreated, sightings)
}

// readUpload materializes a multipart file header into an ingest image. Size
// and MIME type enforcement is performed by the ingest pipeline.
func readUpload(fh *multipart.FileHeader) (ingest.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return ingest.Image{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return ingest.Image{}, err
	}

	return ingest.Image{
		Filename: fh.Filename,
		MIMEType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

// ListSightings handles GET /api/sightings, returning every sighting owned
// by the caller, newest first. Results are cached briefly per owner.
func (c *Controller) ListSightings(ctx echo.Context) error {
	owner := security.OwnerFromContext(ctx)

	cacheKey := "sightings:" + owner
	if cached, found := c.sightingCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	sightings, err := c.DS.GetByOwner(owner)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to retrieve sightings", statusForError(err))
	}

	c.sightingCache.SetDefault(cacheKey, sightings)
	return ctx.JSON(http.StatusOK, sightings)
}

// SightingsByRegion handles GET /api/sightings/region/:region.
func (c *Controller) SightingsByRegion(ctx echo.Context) error {
	owner := security.OwnerFromContext(ctx)
	region := ctx.Param("region")

	sightings, err := c.DS.GetByRegion(owner, region)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to retrieve sightings", statusForError(err))
	}
	return ctx.JSON(http.StatusOK, sightings)
}

// SightingsBySpecies handles GET /api/sightings/species/:species.
func (c *Controller) SightingsBySpecies(ctx echo.Context) error {
	owner := security.OwnerFromContext(ctx)
	species := ctx.Param("species")

	sightings, err := c.DS.GetBySpecies(owner, species)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to retrieve sightings", statusForError(err))
	}
	return ctx.JSON(http.StatusOK, sightings)
}

// SearchSightings handles GET /api/sightings/search?query=. The query matches
// names and descriptions case-insensitively; an empty query returns every
// sighting the caller owns.
func (c *Controller) SearchSightings(ctx echo.Context) error {
	owner := security.OwnerFromContext(ctx)
	query := ctx.QueryParam("query")

	sightings, err := c.DS.Search(owner, query)
	if err != nil {
		return c.HandleError(ctx, err, "Search failed", statusForError(err))
	}
	return ctx.JSON(http.StatusOK, sightings)
}

func (c *Controller) invalidateOwnerCache(owner string) {
	c.sightingCache.Delete("sightings:" + owner)
}
