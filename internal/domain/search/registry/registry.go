// Package registry maps logical query field names to document paths.
package registry

import (
	"fmt"
	"maps"
	"slices"
)

// Logical field names understood by the translator and the registries.
const (
	Price           = "price"
	Cost            = "cost"
	License         = "license"
	Sample          = "sample"
	Categories      = "categories"
	Tags            = "tags"
	Created         = "created"
	DataToken       = "dataToken"
	DatePublished   = "datePublished"
	DateCreated     = "dateCreated"
	UpdateFrequency = "updateFrequency"
	Type            = "type"
	MetadataType    = "metadataType"
	Name            = "name"
	Description     = "description"
	Rating          = "rating"
)

// Variant names.
const (
	VariantCurrent = "current"
	VariantLegacy  = "legacy"
)

// Registry is an immutable logical-name -> path table.
type Registry struct {
	name  string
	paths map[string]string
}

// New creates a registry from a name and a path table.
func New(name string, paths map[string]string) Registry {
	return Registry{name: name, paths: maps.Clone(paths)}
}

// Name identifies the schema variant.
func (r Registry) Name() string { return r.name }

// Resolve returns the document path for a logical name.
// Unknown names are returned unchanged so raw paths can be queried directly.
func (r Registry) Resolve(name string) string {
	if p, ok := r.paths[name]; ok {
		return p
	}
	return name
}

// Has reports whether name has an explicit entry.
func (r Registry) Has(name string) bool {
	_, ok := r.paths[name]
	return ok
}

// Names returns the registered logical names, sorted.
func (r Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.paths))
}

// Current is the registry for documents with service.attributes.* metadata.
func Current() Registry {
	return New(VariantCurrent, map[string]string{
		Price:           "service.attributes.main.cost",
		Cost:            "service.attributes.main.cost",
		License:         "service.attributes.main.license",
		Sample:          "service.attributes.additionalInformation.links.type",
		Categories:      "service.attributes.additionalInformation.categories",
		Tags:            "service.attributes.additionalInformation.tags",
		Created:         "created",
		DataToken:       "dataToken",
		DatePublished:   "service.attributes.main.datePublished",
		DateCreated:     "service.attributes.main.dateCreated",
		UpdateFrequency: "service.attributes.additionalInformation.updateFrequency",
		Type:            "service.type",
		MetadataType:    "service.attributes.main.type",
		Name:            "service.attributes.main.name",
		Description:     "service.attributes.additionalInformation.description",
		Rating:          "service.attributes.curation.rating",
	})
}

// Legacy is the registry for documents with service.metadata.base.* metadata.
func Legacy() Registry {
	return New(VariantLegacy, map[string]string{
		Price:           "service.metadata.base.price",
		Cost:            "service.metadata.base.price",
		License:         "service.metadata.base.license",
		Sample:          "service.metadata.base.links.type",
		Categories:      "service.metadata.base.categories",
		Tags:            "service.metadata.base.tags",
		Created:         "created",
		DataToken:       "dataToken",
		DatePublished:   "service.metadata.base.datePublished",
		DateCreated:     "service.metadata.base.dateCreated",
		UpdateFrequency: "service.metadata.additionalInformation.updateFrequency",
		Type:            "service.metadata.base.type",
		MetadataType:    "service.metadata.base.type",
		Name:            "service.metadata.base.name",
		Description:     "service.metadata.base.description",
		Rating:          "service.metadata.curation.rating",
	})
}

// Lookup returns a built-in variant by name. Empty selects Current.
func Lookup(variant string) (Registry, error) {
	switch variant {
	case "", VariantCurrent:
		return Current(), nil
	case VariantLegacy:
		return Legacy(), nil
	default:
		return Registry{}, fmt.Errorf("unknown field registry %q (want %q or %q)", variant, VariantCurrent, VariantLegacy)
	}
}
