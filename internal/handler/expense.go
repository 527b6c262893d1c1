package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freight/internal/service"
)

// ExpenseHandler handles HTTP requests for trip expense operations.
type ExpenseHandler struct {
	expenseService *service.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// ResetExpensesBody is the request body for resetting trips to route
// defaults.
type ResetExpensesBody struct {
	RouteID string   `json:"route_id" binding:"required"`
	TripIDs []string `json:"trip_ids" binding:"required"`
}

// ResetToRouteDefaults handles POST /v1/expenses/reset-route-defaults
func (h *ExpenseHandler) ResetToRouteDefaults(c *gin.Context) {
	var body ResetExpensesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	trips, err := h.expenseService.ResetToRouteDefaults(c.Request.Context(), service.ResetExpensesRequest{
		RouteID: body.RouteID,
		TripIDs: body.TripIDs,
		Actor:   actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}

	respondJSON(c, http.StatusOK, response)
}
