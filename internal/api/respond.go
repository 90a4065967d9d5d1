package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/churn-insight-api/internal/errors"
)

// respondError writes {"error": ...} with the status mapped from the error code
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(errors.HTTPStatus(err), gin.H{"error": errors.PublicMessage(err)})
}
