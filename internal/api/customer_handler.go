package api

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ajharbinger/churn-insight-api/internal/errors"
	"github.com/ajharbinger/churn-insight-api/internal/models"
	"github.com/ajharbinger/churn-insight-api/internal/services"
)

// CustomerHandler serves the customer lookup and maintenance endpoints
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new customer handler with service injection
func NewCustomerHandler(customerService services.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// GetSuggestions returns up to ten customers whose ID starts with ?query=
func (h *CustomerHandler) GetSuggestions(c *gin.Context) {
	suggestions, err := h.customerService.Suggest(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, suggestions)
}

// GetCustomer returns a customer with its churn analysis
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	detail, err := h.customerService.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// AddCustomer creates a customer and returns the assigned ID
func (h *CustomerHandler) AddCustomer(c *gin.Context) {
	var req models.NewCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	id, err := h.customerService.AddCustomer(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Customer added successfully",
		"CustomerID": id,
	})
}

// DeleteCustomer removes a customer
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.customerService.DeleteCustomer(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

// CountCustomers returns the number of stored customers
func (h *CustomerHandler) CountCustomers(c *gin.Context) {
	count, err := h.customerService.CountCustomers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// bindError turns a gin binding failure into an AppError with a readable message
func bindError(err error) error {
	if stderrors.Is(err, io.EOF) {
		return errors.InvalidInput("No customer data provided", err)
	}

	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return errors.ValidationError("Missing required field: "+fe.Field(), err)
		}
		return errors.ValidationError("Invalid value for field: "+fe.Field(), err)
	}

	return errors.InvalidInput("Invalid request format", err).WithDetails(err.Error())
}
