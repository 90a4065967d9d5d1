package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/churn-insight-api/internal/churn"
	"github.com/ajharbinger/churn-insight-api/internal/errors"
	"github.com/ajharbinger/churn-insight-api/internal/services"
)

// ScoreHandler scores ad-hoc customer records without storing them
type ScoreHandler struct {
	customerService services.CustomerService
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(customerService services.CustomerService) *ScoreHandler {
	return &ScoreHandler{customerService: customerService}
}

// Score evaluates the posted record and returns probability, factors and strategies
func (h *ScoreHandler) Score(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, errors.InvalidInput("Invalid request format", err).WithDetails(err.Error()))
		return
	}

	rec, err := churn.RecordFromMap(body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.customerService.Score(rec))
}
