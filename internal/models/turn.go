package models

import (
	"time"

	"github.com/google/uuid"
)

// StatSnapshot - показатели страны на момент запроса, передаются в промпт.
type StatSnapshot struct {
	Gold       int64 `json:"gold"`
	Population int64 `json:"population"`
	Happiness  int64 `json:"happiness"`
	Military   int64 `json:"military"`
}

// StatDeltas - изменения показателей за ход. Отсутствующие ключи равны 0.
type StatDeltas struct {
	Gold       int64 `json:"gold"`
	Population int64 `json:"population"`
	Happiness  int64 `json:"happiness"`
	Military   int64 `json:"military"`
}

// IsZero сообщает, что ход ничего не меняет.
func (d StatDeltas) IsZero() bool {
	return d == StatDeltas{}
}

// TurnResult - разобранный ответ нарративной модели.
type TurnResult struct {
	Scenario    string
	News        []string
	ImagePrompt string
	Deltas      StatDeltas
}

// TurnOutcome - итог обработанного хода.
type TurnOutcome struct {
	TurnID   uuid.UUID
	Scenario string
	News     []string
	ImageURL *string
	Country  *Country
	Deltas   StatDeltas
}

// TurnCompletedEvent публикуется в очередь после успешного хода.
type TurnCompletedEvent struct {
	TurnID      string       `json:"turn_id"`
	CountryName string       `json:"country_name"`
	UserInput   string       `json:"user_input"`
	Deltas      StatDeltas   `json:"deltas"`
	Stats       StatSnapshot `json:"stats"`
	ImageURL    *string      `json:"image_url"`
	OccurredAt  time.Time    `json:"occurred_at"`
}
