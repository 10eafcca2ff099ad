package interfaces

import (
	"context"

	"samguk-server/internal/models"
)

// CountryRepository defines the interface for interacting with country records.
//
//go:generate mockery --name CountryRepository --output ../mocks --outpkg mocks --case=underscore
type CountryRepository interface {
	// GetByName retrieves a country by its unique name.
	// Returns models.ErrNotFound if not found.
	GetByName(ctx context.Context, name string) (*models.Country, error)

	// Upsert stores all fields of the country keyed by name. Last write wins.
	Upsert(ctx context.Context, country *models.Country) error

	// ApplyDeltas atomically adds deltas to the stored stats and returns the updated record.
	// Concurrent calls for the same country never lose updates.
	// Returns models.ErrNotFound if the country does not exist; nothing is changed in that case.
	ApplyDeltas(ctx context.Context, name string, deltas models.StatDeltas) (*models.Country, error)

	// List returns all countries ordered by name.
	List(ctx context.Context) ([]*models.Country, error)

	// Count returns the number of stored countries.
	Count(ctx context.Context) (int, error)
}
