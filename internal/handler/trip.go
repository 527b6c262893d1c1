package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"freight/internal/domain"
	"freight/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID                  string   `json:"trip_id"`
	OrderID                 string   `json:"order_id"`
	Code                    string   `json:"code"`
	VehicleID               string   `json:"vehicle_id,omitempty"`
	DriverID                string   `json:"driver_id,omitempty"`
	Weight                  string   `json:"weight"`
	PickupDate              string   `json:"pickup_date,omitempty"`
	DeliveryDate            string   `json:"delivery_date,omitempty"`
	DriverCost              *string  `json:"driver_cost,omitempty"`
	SubcontractorCost       *string  `json:"subcontractor_cost,omitempty"`
	BridgeToll              *string  `json:"bridge_toll,omitempty"`
	OtherCost               *string  `json:"other_cost,omitempty"`
	LastStatusType          string   `json:"last_status_type"`
	BillOfLadingCode        string   `json:"bill_of_lading_code,omitempty"`
	BillOfLadingReceived    bool     `json:"bill_of_lading_received"`
	BillOfLadingReceivedAt  string   `json:"bill_of_lading_received_at,omitempty"`
	BillOfLadingImages      []string `json:"bill_of_lading_images,omitempty"`
	NotificationScheduledAt string   `json:"notification_scheduled_at,omitempty"`
	UpdatedAt               string   `json:"updated_at"`
}

func toTripResponse(trip *domain.OrderTrip) TripResponse {
	return TripResponse{
		TripID:                  trip.ID,
		OrderID:                 trip.OrderID,
		Code:                    trip.Code,
		VehicleID:               trip.VehicleID,
		DriverID:                trip.DriverID,
		Weight:                  trip.Weight.String(),
		PickupDate:              formatTime(trip.PickupDate),
		DeliveryDate:            formatTime(trip.DeliveryDate),
		DriverCost:              nullDecimalString(trip.DriverCost),
		SubcontractorCost:       nullDecimalString(trip.SubcontractorCost),
		BridgeToll:              nullDecimalString(trip.BridgeToll),
		OtherCost:               nullDecimalString(trip.OtherCost),
		LastStatusType:          string(trip.LastStatusType),
		BillOfLadingCode:        trip.BillOfLadingCode,
		BillOfLadingReceived:    trip.BillOfLadingReceived,
		BillOfLadingReceivedAt:  formatTime(trip.BillOfLadingReceivedAt),
		BillOfLadingImages:      trip.BillOfLadingImages,
		NotificationScheduledAt: formatTime(trip.NotificationScheduledAt),
		UpdatedAt:               trip.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func nullDecimalString(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}

// CreateTripBody is the request body for creating a trip.
type CreateTripBody struct {
	OrgID            string          `json:"org_id" binding:"required"`
	VehicleID        string          `json:"vehicle_id"`
	DriverID         string          `json:"driver_id"`
	Weight           decimal.Decimal `json:"weight"`
	PickupDate       time.Time       `json:"pickup_date"`
	DeliveryDate     time.Time       `json:"delivery_date"`
	UseRouteDefaults bool            `json:"use_route_defaults"`

	DriverCost        *decimal.Decimal `json:"driver_cost"`
	SubcontractorCost *decimal.Decimal `json:"subcontractor_cost"`
	BridgeToll        *decimal.Decimal `json:"bridge_toll"`
	OtherCost         *decimal.Decimal `json:"other_cost"`
}

// CreateTrip handles POST /v1/orders/:id/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var body CreateTripBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	req := service.CreateTripRequest{
		OrgID:            body.OrgID,
		OrderID:          c.Param("id"),
		VehicleID:        body.VehicleID,
		DriverID:         body.DriverID,
		Weight:           body.Weight,
		PickupDate:       body.PickupDate,
		DeliveryDate:     body.DeliveryDate,
		UseRouteDefaults: body.UseRouteDefaults,
		Actor:            actor(c),
	}

	if !body.UseRouteDefaults {
		req.CostOverrides = &service.CostOverrides{
			DriverCost:        toNullDecimal(body.DriverCost),
			SubcontractorCost: toNullDecimal(body.SubcontractorCost),
			BridgeToll:        toNullDecimal(body.BridgeToll),
			OtherCost:         toNullDecimal(body.OtherCost),
		}
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// AdvanceStatusBody is the request body for a status advance.
type AdvanceStatusBody struct {
	Type              string    `json:"type" binding:"required"`
	Note              string    `json:"note"`
	DriverReportID    string    `json:"driver_report_id"`
	ExpectedUpdatedAt time.Time `json:"expected_updated_at" binding:"required"`
}

// AdvanceStatus handles POST /v1/trips/:id/status
func (h *TripHandler) AdvanceStatus(c *gin.Context) {
	var body AdvanceStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	trip, err := h.tripService.AdvanceStatus(c.Request.Context(), service.AdvanceStatusRequest{
		TripID:            c.Param("id"),
		Type:              domain.TripStatusType(body.Type),
		Note:              body.Note,
		DriverReportID:    body.DriverReportID,
		ExpectedUpdatedAt: body.ExpectedUpdatedAt,
		Actor:             actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CancelTripBody is the request body for canceling a trip.
type CancelTripBody struct {
	Note              string    `json:"note"`
	ExpectedUpdatedAt time.Time `json:"expected_updated_at" binding:"required"`
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	var body CancelTripBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	trip, err := h.tripService.CancelTrip(c.Request.Context(), service.CancelTripRequest{
		TripID:            c.Param("id"),
		Note:              body.Note,
		ExpectedUpdatedAt: body.ExpectedUpdatedAt,
		Actor:             actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// BillOfLadingBody is the request body for the bill-of-lading workflow.
type BillOfLadingBody struct {
	Code          string   `json:"code"`
	ImagesAdded   []string `json:"images_added"`
	ImagesRemoved []string `json:"images_removed"`
	Received      bool     `json:"received"`
}

// UpdateBillOfLading handles PUT /v1/trips/:id/bill-of-lading
func (h *TripHandler) UpdateBillOfLading(c *gin.Context) {
	var body BillOfLadingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	trip, err := h.tripService.UpdateBillOfLading(c.Request.Context(), service.UpdateBillOfLadingRequest{
		TripID:        c.Param("id"),
		Code:          body.Code,
		ImagesAdded:   body.ImagesAdded,
		ImagesRemoved: body.ImagesRemoved,
		Received:      body.Received,
		Actor:         actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ResetNotificationSchedule handles POST /v1/trips/:id/reset-notification
func (h *TripHandler) ResetNotificationSchedule(c *gin.Context) {
	trip, err := h.tripService.ResetNotificationSchedule(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// StatusEventResponse is one entry in a trip's status history.
type StatusEventResponse struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Note           string `json:"note,omitempty"`
	DriverReportID string `json:"driver_report_id,omitempty"`
	CreatedAt      string `json:"created_at"`
	CreatedBy      string `json:"created_by"`
}

// GetStatusHistory handles GET /v1/trips/:id/history
func (h *TripHandler) GetStatusHistory(c *gin.Context) {
	events, err := h.tripService.GetStatusHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]StatusEventResponse, 0, len(events))
	for _, event := range events {
		response = append(response, StatusEventResponse{
			ID:             event.ID,
			Type:           string(event.Type),
			Note:           event.Note,
			DriverReportID: event.DriverReportID,
			CreatedAt:      event.CreatedAt.Format(time.RFC3339Nano),
			CreatedBy:      event.CreatedBy,
		})
	}

	respondJSON(c, http.StatusOK, response)
}
