package handler

import "samguk-server/internal/models"

// actionRequest - тело POST /api/action. Длина user_input ограничена только maxActionBodyBytes.
type actionRequest struct {
	UserInput   string `json:"user_input" binding:"required,notblank"`
	CountryName string `json:"country_name" binding:"required,notblank,max=100"`
}

// updatedStats - показатели после хода. Золото отдается под именем finance.
type updatedStats struct {
	Finance    int64 `json:"finance"`
	Population int64 `json:"population"`
	Happiness  int64 `json:"happiness"`
	Military   int64 `json:"military"`
}

// actionResponse - ответ POST /api/action. image_url сериализуется как null, если картинки нет.
type actionResponse struct {
	TurnID       string       `json:"turn_id"`
	Scenario     string       `json:"scenario"`
	News         []string     `json:"news"`
	ImageURL     *string      `json:"image_url"`
	UpdatedStats updatedStats `json:"updated_stats"`
	TotalScore   int64        `json:"total_score"`
}

type countryListResponse struct {
	Countries []*models.Country `json:"countries"`
}

func newActionResponse(outcome *models.TurnOutcome) actionResponse {
	news := outcome.News
	if news == nil {
		news = []string{}
	}
	return actionResponse{
		TurnID:   outcome.TurnID.String(),
		Scenario: outcome.Scenario,
		News:     news,
		ImageURL: outcome.ImageURL,
		UpdatedStats: updatedStats{
			Finance:    outcome.Country.Gold,
			Population: outcome.Country.Population,
			Happiness:  outcome.Country.Happiness,
			Military:   outcome.Country.Military,
		},
		TotalScore: outcome.Country.TotalScore(),
	}
}
