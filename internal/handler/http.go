package handler

import (
	"errors"
	"net/http"

	"samguk-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxActionBodyBytes ограничивает тело POST /api/action
const maxActionBodyBytes = 1 << 20

// GameHandler обслуживает игровые HTTP маршруты.
type GameHandler struct {
	turnService service.TurnService
	logger      *zap.Logger
}

func NewGameHandler(turnService service.TurnService, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		turnService: turnService,
		logger:      logger.Named("GameHandler"),
	}
}

func (h *GameHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/status/:country_name", h.getStatus)
	router.GET("/countries", h.listCountries)

	api := router.Group("/api")
	{
		api.POST("/action", h.playTurn)
	}
}

// GET /status/:country_name
func (h *GameHandler) getStatus(c *gin.Context) {
	country, err := h.turnService.GetCountry(c.Request.Context(), c.Param("country_name"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, country)
}

func (h *GameHandler) listCountries(c *gin.Context) {
	countries, err := h.turnService.ListCountries(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, countryListResponse{Countries: countries})
}

// POST /api/action {"user_input": "...", "country_name": "..."}
func (h *GameHandler) playTurn(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxActionBodyBytes)

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("Action request body too large", zap.Int64("limit", tooLarge.Limit))
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgRequestTooLarge})
			return
		}
		h.logger.Warn("Invalid action request", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest, "details": err.Error()})
		return
	}

	outcome, err := h.turnService.PlayTurn(c.Request.Context(), req.CountryName, req.UserInput)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newActionResponse(outcome))
}
