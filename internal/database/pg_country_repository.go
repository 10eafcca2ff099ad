package database

import (
	"context"
	"errors"
	"fmt"

	"samguk-server/internal/interfaces"
	"samguk-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	countryFields = `id, name, gold, population, happiness, military, created_at, updated_at`

	getCountryByNameQuery = `
        SELECT ` + countryFields + `
        FROM countries
        WHERE name = $1
    `
	upsertCountryQuery = `
        INSERT INTO countries (name, gold, population, happiness, military, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        ON CONFLICT (name) DO UPDATE SET
            gold = EXCLUDED.gold,
            population = EXCLUDED.population,
            happiness = EXCLUDED.happiness,
            military = EXCLUDED.military,
            updated_at = NOW()
        RETURNING id
    `
	// Одно выражение UPDATE: строка блокируется, параллельные ходы не теряют изменений
	applyCountryDeltasQuery = `
        UPDATE countries SET
            gold = gold + $2,
            population = population + $3,
            happiness = happiness + $4,
            military = military + $5,
            updated_at = NOW()
        WHERE name = $1
        RETURNING ` + countryFields
	listCountriesQuery = `
        SELECT ` + countryFields + `
        FROM countries
        ORDER BY name COLLATE "C"
    `
	countCountriesQuery = `SELECT COUNT(*) FROM countries`

	// SQLSTATE numeric_value_out_of_range, например "bigint out of range"
	numericValueOutOfRange = "22003"
)

// Compile-time check to ensure pgCountryRepository implements the interface
var _ interfaces.CountryRepository = (*pgCountryRepository)(nil)

// pgCountryRepository is the PostgreSQL implementation of CountryRepository
type pgCountryRepository struct {
	db     interfaces.DBTX // *pgxpool.Pool или pgx.Tx
	logger *zap.Logger
}

// NewPgCountryRepository creates a new repository instance.
func NewPgCountryRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.CountryRepository {
	return &pgCountryRepository{
		db:     db,
		logger: logger.Named("PgCountryRepo"),
	}
}

// GetByName возвращает страну по имени.
func (r *pgCountryRepository) GetByName(ctx context.Context, name string) (*models.Country, error) {
	var country models.Country
	if err := pgxscan.Get(ctx, r.db, &country, getCountryByNameQuery, name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get country", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to get country %q: %w", name, err)
	}
	return &country, nil
}

// Upsert сохраняет все поля страны.
func (r *pgCountryRepository) Upsert(ctx context.Context, country *models.Country) error {
	if country == nil || country.Name == "" {
		return fmt.Errorf("%w: country name is required", models.ErrBadRequest)
	}
	err := r.db.QueryRow(ctx, upsertCountryQuery,
		country.Name, country.Gold, country.Population, country.Happiness, country.Military,
	).Scan(&country.ID)
	if err != nil {
		r.logger.Error("Failed to upsert country", zap.String("name", country.Name), zap.Error(err))
		return fmt.Errorf("failed to upsert country %q: %w", country.Name, err)
	}
	r.logger.Debug("Country upserted", zap.String("name", country.Name), zap.Int64("id", country.ID))
	return nil
}

// ApplyDeltas атомарно прибавляет изменения к показателям страны.
func (r *pgCountryRepository) ApplyDeltas(ctx context.Context, name string, deltas models.StatDeltas) (*models.Country, error) {
	var country models.Country
	err := pgxscan.Get(ctx, r.db, &country, applyCountryDeltasQuery,
		name, deltas.Gold, deltas.Population, deltas.Happiness, deltas.Military,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == numericValueOutOfRange {
			// UPDATE откатывается целиком, запись не изменена
			return nil, fmt.Errorf("%w: %s", models.ErrStatOverflow, pgErr.Message)
		}
		r.logger.Error("Failed to apply country deltas", zap.String("name", name), zap.Any("deltas", deltas), zap.Error(err))
		return nil, fmt.Errorf("failed to apply deltas to %q: %w", name, err)
	}
	return &country, nil
}

// List возвращает все страны, отсортированные по имени.
func (r *pgCountryRepository) List(ctx context.Context) ([]*models.Country, error) {
	countries := make([]*models.Country, 0)
	if err := pgxscan.Select(ctx, r.db, &countries, listCountriesQuery); err != nil {
		r.logger.Error("Failed to list countries", zap.Error(err))
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	return countries, nil
}

// Count возвращает количество стран.
func (r *pgCountryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, countCountriesQuery).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count countries: %w", err)
	}
	return count, nil
}
