package service_test

import (
	"context"
	"errors"
	"testing"

	"samguk-server/internal/mocks"
	"samguk-server/internal/models"
	"samguk-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validTurnJSON = `{
  "scenario": "고구려는 북쪽 국경에 성을 쌓았다.",
  "news": ["성곽 공사 완료", "백성들이 안도하다"],
  "image_prompt": "A stone fortress on a snowy northern border",
  "stat_changes": {"gold": -200, "happiness": 5}
}`

func TestParseTurnResult(t *testing.T) {
	result, err := service.ParseTurnResult(validTurnJSON)
	require.NoError(t, err)

	assert.Equal(t, "고구려는 북쪽 국경에 성을 쌓았다.", result.Scenario)
	assert.Equal(t, []string{"성곽 공사 완료", "백성들이 안도하다"}, result.News)
	assert.Equal(t, "A stone fortress on a snowy northern border", result.ImagePrompt)
	assert.Equal(t, models.StatDeltas{Gold: -200, Happiness: 5}, result.Deltas)
}

func TestParseTurnResultStripsFences(t *testing.T) {
	for _, raw := range []string{
		"```json\n" + validTurnJSON + "\n```",
		"```\n" + validTurnJSON + "\n```",
		"Sure! Here is the result:\n```json\n" + validTurnJSON + "\n```",
		"```json\n" + validTurnJSON,
	} {
		result, err := service.ParseTurnResult(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, int64(-200), result.Deltas.Gold)
	}
}

func TestParseTurnResultLenientDeltas(t *testing.T) {
	raw := `{"scenario": "s", "news": [], "image_prompt": "p",
		"stat_changes": {"finance": "+300", "population": 120.9, "military": "-2", "morale": 10}}`

	result, err := service.ParseTurnResult(raw)
	require.NoError(t, err)
	assert.Equal(t, models.StatDeltas{Gold: 300, Population: 120, Military: -2}, result.Deltas)
}

func TestParseTurnResultDuplicateStatKeys(t *testing.T) {
	tests := []struct {
		name    string
		changes string
		want    models.StatDeltas
	}{
		{"gold wins over finance", `{"finance": 500, "gold": -200}`, models.StatDeltas{Gold: -200}},
		{"gold wins over other case", `{"Gold": 700, "gold": 100, "FINANCE": 3}`, models.StatDeltas{Gold: 100}},
		{"canonical name wins over case variant", `{"MILITARY": 9, "military": -1}`, models.StatDeltas{Military: -1}},
		{"aliases only, sorted order decides", `{"finance": 40, "Finance": 30}`, models.StatDeltas{Gold: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"scenario": "s", "news": [], "image_prompt": "p", "stat_changes": ` + tt.changes + `}`
			result, err := service.ParseTurnResult(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Deltas)
		})
	}
}

func TestParseTurnResultMissingDeltasDefaultToZero(t *testing.T) {
	raw := `{"scenario": "s", "news": ["n"], "image_prompt": "p", "stat_changes": {}}`

	result, err := service.ParseTurnResult(raw)
	require.NoError(t, err)
	assert.True(t, result.Deltas.IsZero())
}

func TestParseTurnResultNewsVariants(t *testing.T) {
	result, err := service.ParseTurnResult(`{"scenario": "s", "news": "한 줄 소식", "image_prompt": "", "stat_changes": null}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"한 줄 소식"}, result.News)
	assert.Empty(t, result.ImagePrompt)

	result, err = service.ParseTurnResult(`{"scenario": "s", "news": ["a", 3, {"x": 1}, "b"], "image_prompt": "p", "stat_changes": {}}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, result.News)
}

func TestParseTurnResultMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":             "The kingdom prospers.",
		"truncated":            `{"scenario": "s", "news": [`,
		"array":                `[1, 2]`,
		"missing scenario":     `{"news": [], "image_prompt": "p", "stat_changes": {}}`,
		"missing news":         `{"scenario": "s", "image_prompt": "p", "stat_changes": {}}`,
		"missing image_prompt": `{"scenario": "s", "news": [], "stat_changes": {}}`,
		"missing stat_changes": `{"scenario": "s", "news": [], "image_prompt": "p"}`,
		"empty scenario":       `{"scenario": " ", "news": [], "image_prompt": "p", "stat_changes": {}}`,
		"stat_changes string":  `{"scenario": "s", "news": [], "image_prompt": "p", "stat_changes": "gold +5"}`,
		"non numeric delta":    `{"scenario": "s", "news": [], "image_prompt": "p", "stat_changes": {"gold": "a lot"}}`,
		"bool delta":           `{"scenario": "s", "news": [], "image_prompt": "p", "stat_changes": {"gold": true}}`,
		"news object":          `{"scenario": "s", "news": {"a": 1}, "image_prompt": "p", "stat_changes": {}}`,
		"huge delta":           `{"scenario": "s", "news": [], "image_prompt": "p", "stat_changes": {"gold": 9000000000000000000}}`,
		"huge negative delta":  `{"scenario": "s", "news": [], "image_prompt": "p", "stat_changes": {"population": "-1e15"}}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := service.ParseTurnResult(raw)
			assert.ErrorIs(t, err, models.ErrMalformedAIResponse)
		})
	}
}

func TestNarrativeGeneratorGenerateTurn(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	temperature := 0.7
	gen := service.NewNarrativeGenerator(client, service.NarrativeGeneratorConfig{Language: "Korean", Temperature: &temperature}, zap.NewNop())
	ctx := context.Background()
	snapshot := models.StatSnapshot{Gold: 15000, Population: 80000, Happiness: 20, Military: 15}

	client.On("GenerateText", ctx,
		mock.MatchedBy(func(p string) bool { return assert.Contains(t, p, "Korean") && assert.Contains(t, p, "stat_changes") }),
		mock.MatchedBy(func(in string) bool {
			return assert.Contains(t, in, "gold: 15000") && assert.Contains(t, in, "성을 쌓는다")
		}),
		service.GenerationParams{Temperature: &temperature},
	).Return("```json\n"+validTurnJSON+"\n```", service.UsageInfo{}, nil).Once()

	result, err := gen.GenerateTurn(ctx, "성을 쌓는다", snapshot)
	require.NoError(t, err)
	assert.Equal(t, models.StatDeltas{Gold: -200, Happiness: 5}, result.Deltas)
}

func TestNarrativeGeneratorProviderFailure(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	gen := service.NewNarrativeGenerator(client, service.NarrativeGeneratorConfig{}, zap.NewNop())

	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", service.UsageInfo{}, errors.Join(service.ErrAIGenerationFailed, errors.New("502 bad gateway"))).Once()

	_, err := gen.GenerateTurn(context.Background(), "공격", models.StatSnapshot{})
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	assert.NotErrorIs(t, err, models.ErrMalformedAIResponse)
}

func TestNarrativeGeneratorMalformedOutput(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	gen := service.NewNarrativeGenerator(client, service.NarrativeGeneratorConfig{}, zap.NewNop())

	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`{"scenario": "only a story"}`, service.UsageInfo{}, nil).Once()

	_, err := gen.GenerateTurn(context.Background(), "공격", models.StatSnapshot{})
	assert.ErrorIs(t, err, models.ErrMalformedAIResponse)
}
