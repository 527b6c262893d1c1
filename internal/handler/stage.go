package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freight/internal/service"
)

// StageHandler handles HTTP requests for the report stage catalog.
type StageHandler struct {
	catalog *service.StageCatalog
}

// NewStageHandler creates a new StageHandler.
func NewStageHandler(catalog *service.StageCatalog) *StageHandler {
	return &StageHandler{catalog: catalog}
}

// StageResponse is one entry of an organization's stage pipeline.
type StageResponse struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Name                 string `json:"name"`
	DisplayOrder         int    `json:"display_order"`
	PhotoRequired        bool   `json:"photo_required"`
	BillOfLadingRequired bool   `json:"bill_of_lading_required"`
}

// ListStages handles GET /v1/orgs/:id/stages
func (h *StageHandler) ListStages(c *gin.Context) {
	pipeline, err := h.catalog.ForOrg(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	stages := pipeline.Stages()
	response := make([]StageResponse, 0, len(stages))
	for _, stage := range stages {
		response = append(response, StageResponse{
			ID:                   stage.ID,
			Type:                 string(stage.Type),
			Name:                 stage.Name,
			DisplayOrder:         stage.DisplayOrder,
			PhotoRequired:        stage.PhotoRequired,
			BillOfLadingRequired: stage.BillOfLadingRequired,
		})
	}

	respondJSON(c, http.StatusOK, response)
}
