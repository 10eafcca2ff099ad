package handler

import (
	"errors"
	"net/http"

	"samguk-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Сообщения об ошибках для клиента. Текст ошибок провайдера наружу не отдается.
const (
	msgCountryNotFound     = "국가를 찾을 수 없습니다."
	msgInvalidRequest      = "Invalid request body"
	msgRequestTooLarge     = "Request body is too large"
	msgMalformedAIResponse = "The narrative service returned an unusable response, please try again"
	msgUpstreamUnavailable = "The narrative service is unavailable, please try again later"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Error: msgCountryNotFound}
	case errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Error: err.Error()}
	case errors.Is(err, models.ErrMalformedAIResponse):
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{Error: msgMalformedAIResponse}
	case errors.Is(err, models.ErrUpstreamUnavailable):
		statusCode = http.StatusServiceUnavailable
		errResp = models.ErrorResponse{Error: msgUpstreamUnavailable}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Error: models.ErrInternalServer.Error()}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
