package interfaces

import (
	"context"

	"samguk-server/internal/models"
)

// NarrativeGenerator превращает действие игрока и текущие показатели в результат хода.
type NarrativeGenerator interface {
	// GenerateTurn returns models.ErrUpstreamUnavailable when the provider fails
	// and models.ErrMalformedAIResponse when its output cannot be used.
	GenerateTurn(ctx context.Context, userAction string, current models.StatSnapshot) (*models.TurnResult, error)
}

// ImageGenerator возвращает URL картинки или nil. Ошибок не возвращает.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) *string
}

// TurnEventPublisher публикует события о завершенных ходах.
type TurnEventPublisher interface {
	PublishTurnCompleted(ctx context.Context, event models.TurnCompletedEvent) error
	Close() error
}
