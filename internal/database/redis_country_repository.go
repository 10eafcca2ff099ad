package database

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"samguk-server/internal/interfaces"
	"samguk-server/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	countryKeyPrefix = "country:"
	countryNamesKey  = "countries"
	countryIDSeqKey  = "countries:id_seq"

	// Сколько раз повторять WATCH-транзакцию при конфликте
	maxApplyDeltasAttempts = 25
)

var _ interfaces.CountryRepository = (*redisCountryRepository)(nil)

// redisCountryRepository хранит каждую страну в хэше country:{name},
// а множество countries содержит имена всех стран.
type redisCountryRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCountryRepository creates a new Redis-backed repository.
func NewRedisCountryRepository(client *redis.Client, logger *zap.Logger) interfaces.CountryRepository {
	return &redisCountryRepository{
		client: client,
		logger: logger.Named("RedisCountryRepo"),
	}
}

func countryKey(name string) string {
	return countryKeyPrefix + name
}

func (r *redisCountryRepository) GetByName(ctx context.Context, name string) (*models.Country, error) {
	values, err := r.client.HGetAll(ctx, countryKey(name)).Result()
	if err != nil {
		r.logger.Error("Failed to get country from Redis", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to get country %q: %w", name, err)
	}
	if len(values) == 0 {
		return nil, models.ErrNotFound
	}
	return countryFromHash(name, values)
}

func (r *redisCountryRepository) Upsert(ctx context.Context, country *models.Country) error {
	if country == nil || country.Name == "" {
		return fmt.Errorf("%w: country name is required", models.ErrBadRequest)
	}
	key := countryKey(country.Name)

	if country.ID == 0 {
		existing, err := r.client.HGet(ctx, key, "id").Int64()
		switch {
		case err == nil:
			country.ID = existing
		case errors.Is(err, redis.Nil):
			id, err := r.client.Incr(ctx, countryIDSeqKey).Result()
			if err != nil {
				return fmt.Errorf("failed to allocate country id: %w", err)
			}
			country.ID = id
		default:
			return fmt.Errorf("failed to read country id: %w", err)
		}
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"id", country.ID,
			"gold", country.Gold,
			"population", country.Population,
			"happiness", country.Happiness,
			"military", country.Military,
			"updated_at", time.Now().UTC().Format(time.RFC3339Nano),
		)
		pipe.SAdd(ctx, countryNamesKey, country.Name)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to upsert country in Redis", zap.String("name", country.Name), zap.Error(err))
		return fmt.Errorf("failed to upsert country %q: %w", country.Name, err)
	}
	return nil
}

// ApplyDeltas читает страну под WATCH, проверяет новые значения через Country.Apply
// и записывает их в MULTI/EXEC. Redis не откатывает частично выполненную транзакцию,
// поэтому все проверки делаются до MULTI. При конфликте транзакция повторяется.
func (r *redisCountryRepository) ApplyDeltas(ctx context.Context, name string, deltas models.StatDeltas) (*models.Country, error) {
	key := countryKey(name)
	var updated *models.Country

	txf := func(tx *redis.Tx) error {
		values, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(values) == 0 {
			return models.ErrNotFound
		}
		current, err := countryFromHash(name, values)
		if err != nil {
			return err
		}
		next, err := current.Apply(deltas)
		if err != nil {
			return err
		}
		next.UpdatedAt = time.Now().UTC()

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				"gold", next.Gold,
				"population", next.Population,
				"happiness", next.Happiness,
				"military", next.Military,
				"updated_at", next.UpdatedAt.Format(time.RFC3339Nano),
			)
			return nil
		})
		if err != nil {
			return err
		}
		updated = next
		return nil
	}

	for attempt := 1; attempt <= maxApplyDeltasAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrStatOverflow) {
			return nil, err
		}
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.Debug("ApplyDeltas transaction conflict, retrying", zap.String("name", name), zap.Int("attempt", attempt))
			continue
		}
		r.logger.Error("Failed to apply country deltas in Redis", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to apply deltas to %q: %w", name, err)
	}
	return nil, fmt.Errorf("failed to apply deltas to %q: too many concurrent updates", name)
}

func (r *redisCountryRepository) List(ctx context.Context) ([]*models.Country, error) {
	names, err := r.client.SMembers(ctx, countryNamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list country names: %w", err)
	}
	slices.Sort(names)

	cmds := make([]*redis.MapStringStringCmd, len(names))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, name := range names {
			cmds[i] = pipe.HGetAll(ctx, countryKey(name))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load countries: %w", err)
	}

	countries := make([]*models.Country, 0, len(names))
	for i, name := range names {
		values := cmds[i].Val()
		if len(values) == 0 {
			// Имя осталось в множестве, а хэш удален
			r.logger.Warn("Country listed but hash is missing", zap.String("name", name))
			continue
		}
		country, err := countryFromHash(name, values)
		if err != nil {
			return nil, err
		}
		countries = append(countries, country)
	}
	return countries, nil
}

func (r *redisCountryRepository) Count(ctx context.Context) (int, error) {
	count, err := r.client.SCard(ctx, countryNamesKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count countries: %w", err)
	}
	return int(count), nil
}

func countryFromHash(name string, values map[string]string) (*models.Country, error) {
	country := &models.Country{Name: name}
	fields := []struct {
		key string
		dst *int64
	}{
		{"id", &country.ID},
		{"gold", &country.Gold},
		{"population", &country.Population},
		{"happiness", &country.Happiness},
		{"military", &country.Military},
	}
	for _, f := range fields {
		raw, ok := values[f.key]
		if !ok {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupted field %q for country %q: %w", f.key, name, err)
		}
		*f.dst = v
	}
	if raw, ok := values["updated_at"]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			country.UpdatedAt = ts
		}
	}
	return country, nil
}
