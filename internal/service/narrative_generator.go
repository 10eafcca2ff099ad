package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"samguk-server/internal/interfaces"
	"samguk-server/internal/models"
	"samguk-server/internal/utils"

	"go.uber.org/zap"
)

// Ключи верхнего уровня, без которых ответ модели считается некорректным.
const (
	keyScenario    = "scenario"
	keyNews        = "news"
	keyImagePrompt = "image_prompt"
	keyStatChanges = "stat_changes"
)

// statAliases - допустимые имена показателей в stat_changes. "finance" совпадает с именем в ответе клиенту.
var statAliases = map[string]string{
	"gold":       "gold",
	"finance":    "gold",
	"population": "population",
	"happiness":  "happiness",
	"military":   "military",
}

const narrativeSystemPromptTemplate = `You are the game master of a turn-based strategy game set in the Korean Three Kingdoms period (Goguryeo, Baekje, Silla).
The player rules one kingdom and describes an action in natural language. Narrate the outcome of that action and decide how the kingdom's stats change.

Respond with a single JSON object and nothing else. No markdown, no commentary. The object MUST contain exactly these keys:
- "scenario": string, 3-6 sentences in %[1]s describing what happened.
- "news": array of 1-3 short headline strings in %[1]s reporting the consequences.
- "image_prompt": string in English, one sentence describing a single illustrative scene for an image generator.
- "stat_changes": object with integer deltas for any of "gold", "population", "happiness", "military". Omit unchanged stats. Deltas may be negative.

Keep the deltas plausible for the current state: gold and population change by hundreds or thousands, happiness and military by single digits.`

// NarrativeGeneratorConfig - параметры генерации хода.
type NarrativeGeneratorConfig struct {
	Language    string
	Temperature *float64
	MaxTokens   *int
}

type narrativeGenerator struct {
	client       AIClient
	systemPrompt string
	params       GenerationParams
	logger       *zap.Logger
}

var _ interfaces.NarrativeGenerator = (*narrativeGenerator)(nil)

// NewNarrativeGenerator создает генератор хода поверх AI клиента.
func NewNarrativeGenerator(client AIClient, cfg NarrativeGeneratorConfig, logger *zap.Logger) interfaces.NarrativeGenerator {
	language := cfg.Language
	if language == "" {
		language = "Korean"
	}
	return &narrativeGenerator{
		client:       client,
		systemPrompt: fmt.Sprintf(narrativeSystemPromptTemplate, language),
		params:       GenerationParams{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens},
		logger:       logger.Named("NarrativeGenerator"),
	}
}

// GenerateTurn делает ровно один запрос к модели, без повторов и кэша.
func (g *narrativeGenerator) GenerateTurn(ctx context.Context, userAction string, current models.StatSnapshot) (*models.TurnResult, error) {
	userInput := buildTurnUserInput(userAction, current)

	raw, _, err := g.client.GenerateText(ctx, g.systemPrompt, userInput, g.params)
	if err != nil {
		g.logger.Error("Narrative provider call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty response", models.ErrUpstreamUnavailable)
	}

	result, err := ParseTurnResult(raw)
	if err != nil {
		g.logger.Warn("Malformed narrative response",
			zap.Error(err),
			zap.String("raw_snippet", utils.StringShort(raw, 300)),
		)
		return nil, err
	}

	g.logger.Debug("Turn narrative generated",
		zap.Int("news_count", len(result.News)),
		zap.Any("deltas", result.Deltas),
	)
	return result, nil
}

func buildTurnUserInput(userAction string, current models.StatSnapshot) string {
	var sb strings.Builder
	sb.WriteString("Current stats:\n")
	fmt.Fprintf(&sb, "- gold: %d\n", current.Gold)
	fmt.Fprintf(&sb, "- population: %d\n", current.Population)
	fmt.Fprintf(&sb, "- happiness: %d\n", current.Happiness)
	fmt.Fprintf(&sb, "- military: %d\n", current.Military)
	sb.WriteString("\nPlayer action:\n")
	sb.WriteString(strings.TrimSpace(userAction))
	return sb.String()
}

// ParseTurnResult разбирает ответ модели в TurnResult.
// Markdown-обертка снимается, все четыре ключа верхнего уровня обязательны,
// отсутствующие дельты равны 0. Любая ошибка оборачивает models.ErrMalformedAIResponse.
func ParseTurnResult(raw string) (*models.TurnResult, error) {
	content := utils.ExtractJSONContent(raw)

	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.UseNumber()
	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", models.ErrMalformedAIResponse, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: JSON object expected", models.ErrMalformedAIResponse)
	}

	for _, key := range []string{keyScenario, keyNews, keyImagePrompt, keyStatChanges} {
		if _, ok := payload[key]; !ok {
			return nil, fmt.Errorf("%w: missing key %q", models.ErrMalformedAIResponse, key)
		}
	}

	scenario, ok := payload[keyScenario].(string)
	if !ok || strings.TrimSpace(scenario) == "" {
		return nil, fmt.Errorf("%w: %q must be a non-empty string", models.ErrMalformedAIResponse, keyScenario)
	}

	var news []string
	switch v := payload[keyNews].(type) {
	case []interface{}:
		news = utils.CastToStringSlice(v)
	case string:
		// Модель иногда возвращает одну новость строкой
		if strings.TrimSpace(v) != "" {
			news = []string{v}
		}
	case nil:
	default:
		return nil, fmt.Errorf("%w: %q must be an array of strings", models.ErrMalformedAIResponse, keyNews)
	}
	if news == nil {
		news = []string{}
	}

	imagePrompt, ok := payload[keyImagePrompt].(string)
	if !ok && payload[keyImagePrompt] != nil {
		return nil, fmt.Errorf("%w: %q must be a string", models.ErrMalformedAIResponse, keyImagePrompt)
	}

	deltas, err := parseStatChanges(payload[keyStatChanges])
	if err != nil {
		return nil, err
	}

	return &models.TurnResult{
		Scenario:    scenario,
		News:        news,
		ImagePrompt: strings.TrimSpace(imagePrompt),
		Deltas:      deltas,
	}, nil
}

// maxAbsDelta - предел одной дельты. Больше этого модель не выдает, кроме как по ошибке.
const maxAbsDelta int64 = 1_000_000_000_000

// parseStatChanges сводит stat_changes к дельтам. Если один показатель указан
// несколькими ключами, побеждает точное каноническое имя ("gold"), затем первый
// из остальных вариантов в порядке сортировки ключей. Значения не складываются.
func parseStatChanges(raw interface{}) (models.StatDeltas, error) {
	var deltas models.StatDeltas
	if raw == nil {
		return deltas, nil
	}
	changes, ok := raw.(map[string]interface{})
	if !ok {
		return deltas, fmt.Errorf("%w: %q must be an object", models.ErrMalformedAIResponse, keyStatChanges)
	}

	keys := make([]string, 0, len(changes))
	for key := range changes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// 0 - показатель не задан, 1 - алиас или другой регистр, 2 - каноническое имя
	priority := map[string]int{}
	for _, key := range keys {
		stat, known := statAliases[strings.ToLower(strings.TrimSpace(key))]
		if !known {
			continue
		}
		rank := 1
		if key == stat {
			rank = 2
		}
		if rank <= priority[stat] {
			continue
		}
		delta, err := toInt64(changes[key])
		if err != nil {
			return deltas, fmt.Errorf("%w: stat %q: %v", models.ErrMalformedAIResponse, key, err)
		}
		if delta > maxAbsDelta || delta < -maxAbsDelta {
			return deltas, fmt.Errorf("%w: stat %q: delta %d is out of range", models.ErrMalformedAIResponse, key, delta)
		}
		priority[stat] = rank
		switch stat {
		case "gold":
			deltas.Gold = delta
		case "population":
			deltas.Population = delta
		case "happiness":
			deltas.Happiness = delta
		case "military":
			deltas.Military = delta
		}
	}
	return deltas, nil
}

var errNotANumber = errors.New("not a number")

// toInt64 принимает целые, дробные (отбрасывается дробная часть) и числовые строки вроде "+300".
func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case json.Number:
		return parseNumeric(v.String())
	case float64:
		return truncateFloat(v)
	case string:
		return parseNumeric(v)
	default:
		return 0, fmt.Errorf("%w: %T", errNotANumber, value)
	}
}

func parseNumeric(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", errNotANumber)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errNotANumber, s)
	}
	return truncateFloat(f)
}

func truncateFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: out of range", errNotANumber)
	}
	return int64(f), nil
}
