// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"strconv"
	"strings"
	"time"

	"github.com/featherframe/featherframe/internal/conf"
	"github.com/featherframe/featherframe/internal/errors"
	"github.com/featherframe/featherframe/internal/observability/metrics"
	"gorm.io/gorm"
)

// Interface abstracts the underlying database implementation and defines the
// operations available on persisted sightings. All list queries are scoped to
// the owning caller and ordered by creation time, newest first.
type Interface interface {
	Open() error
	Close() error
	Save(sighting *Sighting) error
	Get(id string) (Sighting, error)
	GetByOwner(owner string) ([]Sighting, error)
	GetByRegion(owner, region string) ([]Sighting, error)
	GetBySpecies(owner, species string) ([]Sighting, error)
	Search(owner, query string) ([]Sighting, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB      *gorm.DB
	metrics *metrics.DatastoreMetrics
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// SetMetrics attaches metric collectors for datastore operations.
func (ds *DataStore) SetMetrics(m *metrics.DatastoreMetrics) {
	ds.metrics = m
}

func (ds *DataStore) record(operation string, start time.Time, err error) {
	if ds.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	ds.metrics.RecordOperation(operation, status, time.Since(start).Seconds())
}

// validateSighting checks the invariants a sighting must satisfy before it
// may be persisted. Violations are validation errors, distinct from storage
// failures.
func validateSighting(sighting *Sighting) error {
	var missing []string
	if strings.TrimSpace(sighting.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(sighting.Species) == "" {
		missing = append(missing, "species")
	}
	if strings.TrimSpace(sighting.Region) == "" {
		missing = append(missing, "region")
	}
	if sighting.ImageName == "" {
		missing = append(missing, "image reference")
	}
	if sighting.Owner == "" {
		missing = append(missing, "owner")
	}
	if len(missing) > 0 {
		return errors.Newf("sighting is missing required fields: %s", strings.Join(missing, ", ")).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if sighting.Source == SourceUserProvided && sighting.Confidence != nil {
		return errors.Newf("user-provided sighting must not carry a confidence value").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// Save validates and stores a new sighting record.
func (ds *DataStore) Save(sighting *Sighting) error {
	if err := validateSighting(sighting); err != nil {
		return err
	}

	start := time.Now()
	err := ds.DB.Create(sighting).Error
	ds.record("save", start, err)
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save").
			Build()
	}
	return nil
}

// Get retrieves a sighting by its ID.
func (ds *DataStore) Get(id string) (Sighting, error) {
	sightingID, err := strconv.Atoi(id)
	if err != nil {
		return Sighting{}, errors.Newf("converting ID to integer: %v", err).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	start := time.Now()
	var sighting Sighting
	err = ds.DB.First(&sighting, sightingID).Error
	ds.record("get", start, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Sighting{}, errors.Newf("sighting %d not found", sightingID).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return Sighting{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get").
			Build()
	}
	return sighting, nil
}

// GetByOwner retrieves all sightings owned by the given caller, newest first.
func (ds *DataStore) GetByOwner(owner string) ([]Sighting, error) {
	start := time.Now()
	var sightings []Sighting
	err := ds.DB.Where("owner = ?", owner).
		Order("created_at DESC").
		Find(&sightings).Error
	ds.record("query", start, err)
	if err != nil {
		return nil, queryError(err, "owner")
	}
	return sightings, nil
}

// GetByRegion retrieves the caller's sightings for one region, newest first.
func (ds *DataStore) GetByRegion(owner, region string) ([]Sighting, error) {
	start := time.Now()
	var sightings []Sighting
	err := ds.DB.Where("owner = ? AND region = ?", owner, region).
		Order("created_at DESC").
		Find(&sightings).Error
	ds.record("query", start, err)
	if err != nil {
		return nil, queryError(err, "region")
	}
	return sightings, nil
}

// GetBySpecies retrieves the caller's sightings for one species, newest first.
func (ds *DataStore) GetBySpecies(owner, species string) ([]Sighting, error) {
	start := time.Now()
	var sightings []Sighting
	err := ds.DB.Where("owner = ? AND species = ?", owner, species).
		Order("created_at DESC").
		Find(&sightings).Error
	ds.record("query", start, err)
	if err != nil {
		return nil, queryError(err, "species")
	}
	return sightings, nil
}

// Search retrieves the caller's sightings whose name or description contains
// the query string, case-insensitively, newest first.
func (ds *DataStore) Search(owner, query string) ([]Sighting, error) {
	start := time.Now()
	pattern := "%" + strings.ToLower(query) + "%"
	var sightings []Sighting
	err := ds.DB.Where("owner = ? AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)",
		owner, pattern, pattern).
		Order("created_at DESC").
		Find(&sightings).Error
	ds.record("search", start, err)
	if err != nil {
		return nil, queryError(err, "search")
	}
	return sightings, nil
}

func queryError(err error, filter string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("filter", filter).
		Build()
}
