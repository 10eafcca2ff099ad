package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"samguk-server/internal/interfaces"
	"samguk-server/internal/models"
	"samguk-server/internal/utils"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var imageRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "samguk_image_requests_total",
		Help: "Total number of image generation attempts by outcome.",
	},
	[]string{"outcome"}, // success, failed, skipped
)

// Максимальный размер тела ответа сервиса изображений
const maxImageResponseBytes = 1 << 20

// ImageClientConfig - настройки HTTP клиента сервиса изображений.
type ImageClientConfig struct {
	BaseURL     string
	Path        string
	Timeout     time.Duration
	StyleSuffix string
}

// ImageClient делает один POST запрос к сервису изображений и возвращает image_url.
type ImageClient struct {
	endpoint    string
	styleSuffix string
	httpClient  *http.Client
}

type imageRequest struct {
	Prompt string `json:"prompt"`
}

type imageResponse struct {
	ImageURL string `json:"image_url"`
}

// NewImageClient создает клиент. Таймаут задается на уровне http.Client.
func NewImageClient(cfg ImageClientConfig) *ImageClient {
	path := cfg.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return &ImageClient{
		endpoint:    strings.TrimSuffix(cfg.BaseURL, "/") + path,
		styleSuffix: cfg.StyleSuffix,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Generate возвращает URL картинки. Любая неудача оборачивает models.ErrImageGenerationFailed.
func (c *ImageClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(imageRequest{Prompt: prompt + c.styleSuffix})
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal request: %v", models.ErrImageGenerationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", models.ErrImageGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request failed: %v", models.ErrImageGenerationFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxImageResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", models.ErrImageGenerationFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", models.ErrImageGenerationFailed, resp.StatusCode, utils.StringShort(string(respBody), 200))
	}

	var decoded imageResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", models.ErrImageGenerationFailed, err)
	}
	if strings.TrimSpace(decoded.ImageURL) == "" {
		return "", fmt.Errorf("%w: response has no image_url", models.ErrImageGenerationFailed)
	}
	return decoded.ImageURL, nil
}

// ImageURLGenerator - клиент, который может вернуть ошибку. *ImageClient реализует его.
type ImageURLGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// BestEffortImageGenerator превращает любую ошибку генерации в отсутствие картинки.
// Ошибки логируются и считаются в метриках, но никогда не возвращаются.
type BestEffortImageGenerator struct {
	client ImageURLGenerator
	logger *zap.Logger
}

var _ interfaces.ImageGenerator = (*BestEffortImageGenerator)(nil)

// NewBestEffortImageGenerator принимает nil client, если генерация отключена.
func NewBestEffortImageGenerator(client ImageURLGenerator, logger *zap.Logger) *BestEffortImageGenerator {
	return &BestEffortImageGenerator{
		client: client,
		logger: logger.Named("ImageGenerator"),
	}
}

// NewImageGeneratorFromConfig собирает генератор. Пустой BaseURL отключает генерацию.
func NewImageGeneratorFromConfig(cfg ImageClientConfig, logger *zap.Logger) *BestEffortImageGenerator {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		logger.Warn("Image service base URL is empty, image generation disabled")
		return NewBestEffortImageGenerator(nil, logger)
	}
	return NewBestEffortImageGenerator(NewImageClient(cfg), logger)
}

func (g *BestEffortImageGenerator) GenerateImage(ctx context.Context, prompt string) *string {
	if g.client == nil || strings.TrimSpace(prompt) == "" {
		imageRequestsTotal.With(prometheus.Labels{"outcome": "skipped"}).Inc()
		return nil
	}

	log := g.logger.With(
		zap.String("prompt_hash", uuid.NewSHA1(uuid.NameSpaceOID, []byte(prompt)).String()),
	)
	start := time.Now()

	url, err := g.client.Generate(ctx, prompt)
	if err != nil {
		imageRequestsTotal.With(prometheus.Labels{"outcome": "failed"}).Inc()
		log.Warn("Image generation failed, continuing without image",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil
	}

	imageRequestsTotal.With(prometheus.Labels{"outcome": "success"}).Inc()
	log.Info("Image generated", zap.Duration("duration", time.Since(start)), zap.String("url", url))
	return &url
}
