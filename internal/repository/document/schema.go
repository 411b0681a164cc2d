package document

import (
	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/domain/search/registry"
)

// DefaultMapping is the mapping a fresh collection is created with. Date fields must be
// typed up front so range filters compare instants, not strings; everything else is
// left to dynamic mapping.
func DefaultMapping(reg registry.Registry) *db.Mapping {
	return db.NewMapping().
		Date(reg.Resolve(registry.Created)).
		Date(reg.Resolve(registry.DatePublished)).
		Date(reg.Resolve(registry.DateCreated)).
		Double(reg.Resolve(registry.Price)).
		Double(reg.Resolve(registry.Rating)).
		MustBuild()
}
