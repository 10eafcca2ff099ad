package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"samguk-server/internal/interfaces"
	"samguk-server/internal/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samguk_turns_total",
			Help: "Total number of turn resolution requests by result.",
		},
		[]string{"result"},
	)
	turnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "samguk_turn_duration_seconds",
			Help:    "Histogram of turn resolution durations.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		},
	)
)

// Таймаут публикации события после хода
const publishTimeout = 5 * time.Second

// TurnService - сценарий обработки одного хода и чтения состояния стран.
type TurnService interface {
	// GetCountry returns models.ErrNotFound for unknown names.
	GetCountry(ctx context.Context, name string) (*models.Country, error)
	ListCountries(ctx context.Context) ([]*models.Country, error)
	// PlayTurn resolves one player action. The record is changed only after the narrative is parsed.
	PlayTurn(ctx context.Context, countryName, userAction string) (*models.TurnOutcome, error)
}

type turnServiceImpl struct {
	repo      interfaces.CountryRepository
	narrative interfaces.NarrativeGenerator
	images    interfaces.ImageGenerator
	publisher interfaces.TurnEventPublisher
	logger    *zap.Logger
}

// NewTurnService creates a new turn service.
func NewTurnService(
	repo interfaces.CountryRepository,
	narrative interfaces.NarrativeGenerator,
	images interfaces.ImageGenerator,
	publisher interfaces.TurnEventPublisher,
	logger *zap.Logger,
) TurnService {
	return &turnServiceImpl{
		repo:      repo,
		narrative: narrative,
		images:    images,
		publisher: publisher,
		logger:    logger.Named("TurnService"),
	}
}

func (s *turnServiceImpl) GetCountry(ctx context.Context, name string) (*models.Country, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.ErrNotFound
	}
	return s.repo.GetByName(ctx, name)
}

func (s *turnServiceImpl) ListCountries(ctx context.Context) ([]*models.Country, error) {
	return s.repo.List(ctx)
}

func (s *turnServiceImpl) PlayTurn(ctx context.Context, countryName, userAction string) (outcome *models.TurnOutcome, err error) {
	start := time.Now()
	defer func() {
		turnsTotal.With(prometheus.Labels{"result": turnResultLabel(err)}).Inc()
		turnDuration.Observe(time.Since(start).Seconds())
	}()

	countryName = strings.TrimSpace(countryName)
	userAction = strings.TrimSpace(userAction)
	if userAction == "" {
		return nil, fmt.Errorf("%w: user_input is empty", models.ErrBadRequest)
	}

	turnID := uuid.New()
	log := s.logger.With(zap.String("turn_id", turnID.String()), zap.String("country", countryName))

	// 1. Текущее состояние
	country, err := s.GetCountry(ctx, countryName)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Error("Failed to load country", zap.Error(err))
		}
		return nil, err
	}

	// 2. Нарратив. При ошибке запись не меняется
	result, err := s.narrative.GenerateTurn(ctx, userAction, country.Snapshot())
	if err != nil {
		log.Warn("Narrative generation failed", zap.Error(err))
		return nil, err
	}

	// 3. Картинка зависит только от нарратива, поэтому генерируется параллельно с сохранением.
	// Если сохранение упало, запрос картинки отменяется.
	imageCtx, cancelImage := context.WithCancel(ctx)
	defer cancelImage()

	var (
		imageURL *string
		wg       sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		imageURL = s.images.GenerateImage(imageCtx, result.ImagePrompt)
	}()

	// 4. Атомарное применение дельт
	updated, err := s.repo.ApplyDeltas(ctx, country.Name, result.Deltas)
	if err != nil {
		cancelImage()
		wg.Wait()
		if errors.Is(err, models.ErrNotFound) {
			// Страну удалили между чтением и записью
			return nil, err
		}
		if errors.Is(err, models.ErrStatOverflow) {
			// Дельты от модели вывели бы показатель за пределы, запись не изменена
			log.Warn("Turn deltas rejected by store", zap.Any("deltas", result.Deltas), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", models.ErrMalformedAIResponse, err)
		}
		log.Error("Failed to persist turn deltas", zap.Any("deltas", result.Deltas), zap.Error(err))
		return nil, fmt.Errorf("failed to persist turn: %w", err)
	}

	wg.Wait()

	if result.Deltas.IsZero() {
		log.Info("Turn left stats unchanged")
	}

	log.Info("Turn resolved",
		zap.Any("deltas", result.Deltas),
		zap.Int64("total_score", updated.TotalScore()),
		zap.Bool("has_image", imageURL != nil),
		zap.Duration("duration", time.Since(start)),
	)

	outcome = &models.TurnOutcome{
		TurnID:   turnID,
		Scenario: result.Scenario,
		News:     result.News,
		ImageURL: imageURL,
		Country:  updated,
		Deltas:   result.Deltas,
	}

	s.publishTurnCompleted(ctx, outcome, userAction, log)
	return outcome, nil
}

// publishTurnCompleted не влияет на результат хода, ошибки только логируются.
func (s *turnServiceImpl) publishTurnCompleted(ctx context.Context, outcome *models.TurnOutcome, userAction string, log *zap.Logger) {
	if s.publisher == nil {
		return
	}
	// Ход уже сохранен, поэтому отмена клиентского запроса не должна мешать публикации
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := models.TurnCompletedEvent{
		TurnID:      outcome.TurnID.String(),
		CountryName: outcome.Country.Name,
		UserInput:   userAction,
		Deltas:      outcome.Deltas,
		Stats:       outcome.Country.Snapshot(),
		ImageURL:    outcome.ImageURL,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.publisher.PublishTurnCompleted(pubCtx, event); err != nil {
		log.Warn("Failed to publish turn completed event", zap.Error(err))
	}
}

func turnResultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrBadRequest):
		return "bad_request"
	case errors.Is(err, models.ErrMalformedAIResponse):
		return "malformed_ai_response"
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "error"
	}
}
