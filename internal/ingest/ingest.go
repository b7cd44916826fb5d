// Package ingest implements the sighting ingestion pipeline: for each
// uploaded image it durably stores the blob, resolves identification either
// from caller-supplied metadata or from the species classifier, and persists
// the sighting record. A sighting is never persisted before its blob write
// has been acknowledged.
package ingest

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/featherframe/featherframe/internal/blobstore"
	"github.com/featherframe/featherframe/internal/classifier"
	"github.com/featherframe/featherframe/internal/datastore"
	"github.com/featherframe/featherframe/internal/errors"
	"github.com/featherframe/featherframe/internal/observability/metrics"
)

// RollbackOnFailure controls whether sightings committed earlier in a batch
// are rolled back when a later image fails. The current behavior is
// fail-fast without compensation: earlier commits stay committed and blobs
// written for failed images are not retracted. Flipping this constant is the
// single switch point for a future all-or-nothing revision.
const RollbackOnFailure = false

// allowedImageTypes are the declared MIME types accepted for upload.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// Image is one uploaded image with its declared metadata.
type Image struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Metadata is the optional shared metadata applying to every image in a
// batch. When both Name and Species are present, classification is skipped
// and the sighting is marked user-provided.
type Metadata struct {
	Name        string
	Species     string
	Region      string
	Description string
}

// Orchestrator coordinates blob storage, classification fallback and record
// persistence per image. It is constructed with injected collaborators so
// tests can substitute in-memory fakes.
type Orchestrator struct {
	blobs        blobstore.Store
	classifier   classifier.Classifier
	ds           datastore.Interface
	metrics      *metrics.IngestMetrics
	logger       *slog.Logger
	maxBatchSize int
	maxFileSize  int64
}

// Option is a functional option for configuring the Orchestrator.
type Option func(*Orchestrator)

// WithMetrics attaches ingestion metric collectors.
func WithMetrics(m *metrics.IngestMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLogger sets the structured logger for pipeline events. A nil logger
// keeps the default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLimits sets the per-request batch size and per-image byte limits.
func WithLimits(maxBatchSize int, maxFileSize int64) Option {
	return func(o *Orchestrator) {
		o.maxBatchSize = maxBatchSize
		o.maxFileSize = maxFileSize
	}
}

// New creates an Orchestrator with the given collaborators.
func New(blobs blobstore.Store, cls classifier.Classifier, ds datastore.Interface, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		blobs:        blobs,
		classifier:   cls,
		ds:           ds,
		logger:       slog.Default(),
		maxBatchSize: 10,
		maxFileSize:  5 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ingest processes a batch of images for the given owner sequentially. On
// the first failure the remaining images are abandoned and an error for the
// whole request is returned; sightings committed for earlier images in the
// same batch remain committed.
func (o *Orchestrator) Ingest(ctx context.Context, owner string, images []Image, meta Metadata) ([]datastore.Sighting, error) {
	batchStart := time.Now()

	if err := o.validateBatch(owner, images); err != nil {
		o.recordBatch("error", batchStart)
		return nil, err
	}

	created := make([]datastore.Sighting, 0, len(images))
	for i := range images {
		// Abandon remaining images if the caller has gone away.
		if err := ctx.Err(); err != nil {
			o.recordBatch("error", batchStart)
			return nil, errors.New(err).
				Component("ingest").
				Category(errors.CategoryHTTP).
				Context("images_committed", len(created)).
				Build()
		}

		sighting, err := o.ingestOne(ctx, owner, &images[i], &meta)
		if err != nil {
			o.recordImage("failed")
			o.recordBatch("error", batchStart)
			o.logger.Error("batch aborted",
				"owner", owner,
				"image", images[i].Filename,
				"images_committed", len(created),
				"error", err)
			return nil, err
		}
		created = append(created, sighting)
	}

	o.recordBatch("success", batchStart)
	o.logger.Info("batch ingested", "owner", owner, "count", len(created))
	return created, nil
}

// validateBatch rejects the whole request before any storage writes happen.
func (o *Orchestrator) validateBatch(owner string, images []Image) error {
	if owner == "" {
		return errors.Newf("missing caller identity").
			Component("ingest").
			Category(errors.CategoryValidation).
			Build()
	}
	if len(images) == 0 {
		return errors.Newf("no images uploaded").
			Component("ingest").
			Category(errors.CategoryValidation).
			Build()
	}
	if len(images) > o.maxBatchSize {
		return errors.Newf("too many images: %d exceeds the limit of %d", len(images), o.maxBatchSize).
			Component("ingest").
			Category(errors.CategoryValidation).
			Build()
	}
	for i := range images {
		img := &images[i]
		if !allowedImageTypes[strings.ToLower(img.MIMEType)] {
			return errors.Newf("unsupported image type %q for %s, only jpeg and png are allowed", img.MIMEType, img.Filename).
				Component("ingest").
				Category(errors.CategoryValidation).
				Build()
		}
		if len(img.Data) == 0 {
			return errors.Newf("empty image file: %s", img.Filename).
				Component("ingest").
				Category(errors.CategoryValidation).
				Build()
		}
		if int64(len(img.Data)) > o.maxFileSize {
			return errors.Newf("image %s exceeds the size limit of %d bytes", img.Filename, o.maxFileSize).
				Component("ingest").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	return nil
}

// ingestOne runs the per-image state machine:
// received -> stored -> {classified | user-labeled} -> persisted.
func (o *Orchestrator) ingestOne(ctx context.Context, owner string, img *Image, meta *Metadata) (datastore.Sighting, error) {
	blobName := blobstore.NewBlobName(img.Filename)

	putStart := time.Now()
	err := o.blobs.Put(ctx, blobName, bytes.NewReader(img.Data), blobstore.Metadata{
		OriginalFilename: img.Filename,
		MIMEType:         img.MIMEType,
	})
	if err != nil {
		return datastore.Sighting{}, err
	}
	if o.metrics != nil {
		o.metrics.RecordBlobWrite(time.Since(putStart).Seconds())
	}
	o.recordImage("stored")
	o.logger.Debug("blob stored", "blob", blobName, "file", img.Filename)

	name := strings.TrimSpace(meta.Name)
	speciesLabel := strings.TrimSpace(meta.Species)
	source := datastore.SourceUserProvided
	var confidence *float64

	if name == "" || speciesLabel == "" {
		result, err := o.classify(ctx, img.Data)
		if err != nil {
			// The blob written above is intentionally not retracted.
			return datastore.Sighting{}, errors.Newf("automatic identification failed, please provide bird name and species manually").
				Component("ingest").
				Category(errors.CategoryValidation).
				Context("blob_name", blobName).
				Context("cause", err.Error()).
				Build()
		}
		if !result.Identified {
			return datastore.Sighting{}, errors.Newf("please provide bird name and species, or upload a clearer image for identification").
				Component("ingest").
				Category(errors.CategoryValidation).
				Context("blob_name", blobName).
				Build()
		}

		// The top candidate's label serves as both common name and species
		// label at first pass.
		top := result.Top()
		name = top.Label
		speciesLabel = top.Label
		source = datastore.SourceAIInferred
		conf := result.Confidence
		confidence = &conf
		o.recordImage("classified")
	} else {
		o.recordImage("user_labeled")
	}

	sighting := datastore.Sighting{
		Name:        name,
		Species:     speciesLabel,
		Description: strings.TrimSpace(meta.Description),
		Region:      strings.TrimSpace(meta.Region),
		ImageName:   blobName,
		ObservedAt:  time.Now(),
		Source:      source,
		Confidence:  confidence,
		Owner:       owner,
	}

	// The blob write above has been acknowledged; only now may the record
	// be created.
	if err := o.ds.Save(&sighting); err != nil {
		return datastore.Sighting{}, err
	}
	o.recordImage("persisted")
	o.logger.Debug("sighting persisted", "id", sighting.ID, "blob", blobName, "source", source)

	return sighting, nil
}

// classify runs the classifier and records its outcome.
func (o *Orchestrator) classify(ctx context.Context, image []byte) (classifier.Result, error) {
	start := time.Now()
	result, err := o.classifier.Identify(ctx, image)
	elapsed := time.Since(start).Seconds()

	if o.metrics != nil {
		switch {
		case err != nil:
			o.metrics.RecordClassification("error", elapsed)
		case result.Identified:
			o.metrics.RecordClassification("identified", elapsed)
		default:
			o.metrics.RecordClassification("unidentified", elapsed)
		}
	}
	return result, err
}

func (o *Orchestrator) recordImage(state string) {
	if o.metrics != nil {
		o.metrics.RecordImage(state)
	}
}

func (o *Orchestrator) recordBatch(status string, start time.Time) {
	if o.metrics != nil {
		o.metrics.RecordBatch(status, time.Since(start).Seconds())
	}
}
