package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"freight/internal/domain"
	"freight/internal/service"
)

// PayrollHandler handles HTTP requests for driver payroll reports.
type PayrollHandler struct {
	payrollService *service.PayrollService
}

// NewPayrollHandler creates a new PayrollHandler.
func NewPayrollHandler(payrollService *service.PayrollService) *PayrollHandler {
	return &PayrollHandler{payrollService: payrollService}
}

// SettlementResponse is one row of a driver payroll report.
type SettlementResponse struct {
	TripID    string `json:"trip_id"`
	TripCode  string `json:"trip_code"`
	DriverID  string `json:"driver_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Amount    string `json:"amount"`
	Unit      string `json:"unit"`
}

// GetDriverSettlements handles GET /v1/payroll/settlements
func (h *PayrollHandler) GetDriverSettlements(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from date"})
		return
	}

	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to date"})
		return
	}

	query := service.SettlementQuery{
		OrgID:    c.Query("org_id"),
		DriverID: c.Query("driver_id"),
		From:     from,
		To:       to,
	}

	if raw := c.Query("paid_stages"); raw != "" {
		for _, stage := range strings.Split(raw, ",") {
			query.PaidStages = append(query.PaidStages, domain.TripStatusType(strings.TrimSpace(stage)))
		}
	}

	settlements, err := h.payrollService.DriverSettlements(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]SettlementResponse, 0, len(settlements))
	for _, s := range settlements {
		response = append(response, SettlementResponse{
			TripID:    s.TripID,
			TripCode:  s.TripCode,
			DriverID:  s.DriverID,
			StartDate: s.StartDate.Format(time.RFC3339),
			EndDate:   s.EndDate.Format(time.RFC3339),
			Amount:    s.Amount.StringFixed(2),
			Unit:      s.Unit,
		})
	}

	respondJSON(c, http.StatusOK, response)
}
