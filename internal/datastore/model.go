// model.go this code defines the data model for the application
package datastore

import (
	"time"

	"gorm.io/gorm"
)

// Identification sources for a sighting
const (
	SourceUserProvided = "user-provided"
	SourceAIInferred   = "ai-inferred"
)

// Sighting represents one recorded bird observation. A persisted sighting
// always carries a non-empty species, region and image reference, and its
// image blob was durably written before the record was created.
type Sighting struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"index:idx_sightings_name;not null" json:"name"`
	ScientificName string    `json:"scientificName,omitempty"`
	Description    string    `gorm:"type:text" json:"description,omitempty"`
	Region         string    `gorm:"index:idx_sightings_region;not null" json:"region"`
	Species        string    `gorm:"index:idx_sightings_species;not null" json:"species"`
	ImageName      string    `gorm:"not null" json:"-"`
	ObservedAt     time.Time `json:"spottedAt"`
	Source         string    `gorm:"type:varchar(20)" json:"identificationSource"`
	Confidence     *float64  `json:"confidence,omitempty"`
	Owner          string    `gorm:"index:idx_sightings_owner;not null" json:"uploadedBy"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Virtual fields to maintain compatibility with existing API clients
	ImageURL     string `gorm:"-" json:"imageUrl"`
	AIIdentified bool   `gorm:"-" json:"aiIdentified"`
}

// AfterFind populates the virtual fields after a query.
func (s *Sighting) AfterFind(tx *gorm.DB) error {
	s.fillVirtualFields()
	return nil
}

// AfterCreate populates the virtual fields on the freshly created record.
func (s *Sighting) AfterCreate(tx *gorm.DB) error {
	s.fillVirtualFields()
	return nil
}

func (s *Sighting) fillVirtualFields() {
	s.AIIdentified = s.Source == SourceAIInferred
	s.ImageURL = "/api/images/" + s.ImageName
}
