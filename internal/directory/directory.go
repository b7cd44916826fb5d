// Package directory provides a static lookup of common bird names to
// scientific names, used for typeahead suggestions in the upload form.
package directory

import (
	"strings"
)

// Suggestion pairs a common name with its scientific name.
type Suggestion struct {
	Name           string `json:"name"`
	ScientificName string `json:"species"`
}

// species is the fixed directory table. Order matters: Suggest returns
// matches in insertion order.
var species = []Suggestion{
	{Name: "American Robin", ScientificName: "Turdus migratorius"},
	{Name: "Blue Jay", ScientificName: "Cyanocitta cristata"},
	{Name: "Cardinal", ScientificName: "Cardinalis cardinalis"},
	{Name: "Chickadee", ScientificName: "Poecile atricapillus"},
	{Name: "Crow", ScientificName: "Corvus brachyrhynchos"},
	{Name: "Dove", ScientificName: "Columbidae"},
	{Name: "Eagle", ScientificName: "Haliaeetus leucocephalus"},
	{Name: "Finch", ScientificName: "Haemorhous mexicanus"},
	{Name: "Goldfinch", ScientificName: "Spinus tristis"},
	{Name: "Hawk", ScientificName: "Buteo jamaicensis"},
	{Name: "Hummingbird", ScientificName: "Trochilidae"},
	{Name: "Mockingbird", ScientificName: "Mimus polyglottos"},
	{Name: "Owl", ScientificName: "Strigiformes"},
	{Name: "Parrot", ScientificName: "Psittaciformes"},
	{Name: "Pelican", ScientificName: "Pelecanus"},
	{Name: "Penguin", ScientificName: "Spheniscidae"},
	{Name: "Pigeon", ScientificName: "Columba livia"},
	{Name: "Sparrow", ScientificName: "Passer domesticus"},
	{Name: "Starling", ScientificName: "Sturnus vulgaris"},
	{Name: "Woodpecker", ScientificName: "Picidae"},
}

// Directory answers suggestion queries against the fixed species table.
type Directory struct {
	entries []Suggestion
}

// New returns a directory backed by the built-in species table.
func New() *Directory {
	return &Directory{entries: species}
}

// Suggest returns the entries whose common name contains query,
// case-insensitively, in table order. An empty query returns no entries.
func (d *Directory) Suggest(query string) []Suggestion {
	if query == "" {
		return []Suggestion{}
	}

	normalized := strings.ToLower(query)
	matches := []Suggestion{}
	for _, entry := range d.entries {
		if strings.Contains(strings.ToLower(entry.Name), normalized) {
			matches = append(matches, entry)
		}
	}
	return matches
}
