package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Значения по умолчанию для новой страны.
const (
	DefaultGold       int64 = 10000
	DefaultPopulation int64 = 50000
	DefaultHappiness  int64 = 20
	DefaultMilitary   int64 = 5
)

// Country - запись о стране. Ключ поиска - Name.
// Показатели не ограничены и могут уходить в минус.
type Country struct {
	ID         int64     `db:"id" json:"id,omitempty"`
	Name       string    `db:"name" json:"name"`
	Gold       int64     `db:"gold" json:"gold"`
	Population int64     `db:"population" json:"population"`
	Happiness  int64     `db:"happiness" json:"happiness"`
	Military   int64     `db:"military" json:"military"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
	UpdatedAt  time.Time `db:"updated_at" json:"-"`
}

// NewCountry создает страну с показателями по умолчанию.
func NewCountry(name string) *Country {
	return &Country{
		Name:       name,
		Gold:       DefaultGold,
		Population: DefaultPopulation,
		Happiness:  DefaultHappiness,
		Military:   DefaultMilitary,
	}
}

// TotalScore считается при каждом чтении из текущих значений и нигде не хранится.
// Каждое слагаемое делится нацело.
func (c *Country) TotalScore() int64 {
	return c.Gold/10000 + c.Population/10000 + c.Happiness/10 + c.Military/10
}

// Snapshot возвращает текущие показатели для промпта.
func (c *Country) Snapshot() StatSnapshot {
	return StatSnapshot{
		Gold:       c.Gold,
		Population: c.Population,
		Happiness:  c.Happiness,
		Military:   c.Military,
	}
}

// Apply возвращает копию страны с прибавленными дельтами.
// Если хотя бы один показатель выходит за пределы int64, возвращается ErrStatOverflow и копия не создается.
func (c *Country) Apply(d StatDeltas) (*Country, error) {
	updated := *c
	for _, f := range []struct {
		name  string
		dst   *int64
		delta int64
	}{
		{"gold", &updated.Gold, d.Gold},
		{"population", &updated.Population, d.Population},
		{"happiness", &updated.Happiness, d.Happiness},
		{"military", &updated.Military, d.Military},
	} {
		sum, ok := addStat(*f.dst, f.delta)
		if !ok {
			return nil, fmt.Errorf("%w: %s %d%+d", ErrStatOverflow, f.name, *f.dst, f.delta)
		}
		*f.dst = sum
	}
	return &updated, nil
}

func addStat(value, delta int64) (int64, bool) {
	sum := value + delta
	if (delta > 0 && sum < value) || (delta < 0 && sum > value) {
		return 0, false
	}
	return sum, true
}

type countryJSON struct {
	ID         int64  `json:"id,omitempty"`
	Name       string `json:"name"`
	Gold       int64  `json:"gold"`
	Population int64  `json:"population"`
	Happiness  int64  `json:"happiness"`
	Military   int64  `json:"military"`
	TotalScore int64  `json:"total_score"`
}

// MarshalJSON добавляет total_score к сериализованной записи.
func (c Country) MarshalJSON() ([]byte, error) {
	return json.Marshal(countryJSON{
		ID:         c.ID,
		Name:       c.Name,
		Gold:       c.Gold,
		Population: c.Population,
		Happiness:  c.Happiness,
		Military:   c.Military,
		TotalScore: c.TotalScore(),
	})
}
