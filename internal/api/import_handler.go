package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/churn-insight-api/internal/errors"
	"github.com/ajharbinger/churn-insight-api/internal/services"
)

// ImportHandler handles CSV uploads of the customer dataset
type ImportHandler struct {
	importService services.ImportService
}

// NewImportHandler creates a new import handler
func NewImportHandler(importService services.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

// ImportCSVRequest represents the form fields sent with the upload
type ImportCSVRequest struct {
	Truncate bool `form:"truncate"`
}

// ImportCSV loads the uploaded csv_file into the customers table
func (h *ImportHandler) ImportCSV(c *gin.Context) {
	var req ImportCSVRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, errors.InvalidInput("Invalid request format", err))
		return
	}

	file, header, err := c.Request.FormFile("csv_file")
	if err != nil {
		respondError(c, errors.InvalidInput("No CSV file provided", err))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		respondError(c, errors.InvalidInput("File must be a CSV", nil))
		return
	}

	report, err := h.importService.Import(c.Request.Context(), file, services.ImportOptions{Truncate: req.Truncate})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "CSV import completed",
		"filename": header.Filename,
		"report":   report,
	})
}
