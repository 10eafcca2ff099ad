package database

import (
	"context"
	"fmt"

	"samguk-server/internal/interfaces"
	"samguk-server/internal/models"

	"go.uber.org/zap"
)

// DefaultSeedCountries - три королевства, которые создаются в пустом хранилище.
func DefaultSeedCountries() []*models.Country {
	return []*models.Country{
		seedCountry("고구려", 15000, 80000, 15),
		seedCountry("백제", 18000, 60000, 10),
		seedCountry("신라", 12000, 40000, 12),
	}
}

// seedCountry берет значения по умолчанию и переопределяет стартовые ресурсы королевства.
func seedCountry(name string, gold, population, military int64) *models.Country {
	c := models.NewCountry(name)
	c.Gold = gold
	c.Population = population
	c.Military = military
	return c
}

// SeedIfEmpty создает стартовые страны, только если хранилище пустое.
// Возвращает количество созданных записей.
func SeedIfEmpty(ctx context.Context, repo interfaces.CountryRepository, seeds []*models.Country, logger *zap.Logger) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check store before seeding: %w", err)
	}
	if count > 0 {
		logger.Info("Store already has countries, skipping seed", zap.Int("count", count))
		return 0, nil
	}

	for i, country := range seeds {
		if err := repo.Upsert(ctx, country); err != nil {
			return i, fmt.Errorf("failed to seed country %q: %w", country.Name, err)
		}
	}
	logger.Info("Seeded initial countries", zap.Int("count", len(seeds)))
	return len(seeds), nil
}
