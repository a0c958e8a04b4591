package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fleetops/fuel-ingest-service/internal/model"
	"github.com/fleetops/fuel-ingest-service/internal/repository"
)

// VehicleHandler handles HTTP requests for the fleet roster
type VehicleHandler struct {
	vehicles repository.VehicleRepository
}

// NewVehicleHandler creates a new vehicle roster handler
func NewVehicleHandler(vehicles repository.VehicleRepository) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

// RegisterRoutes registers the handler's routes with the given router
func (h *VehicleHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/v1/vehicles", h.ListVehicles)
}

// ListVehicles returns the fleet vehicle roster
// @Summary List fleet vehicles
// @Description Returns the full vehicle roster used for registration matching
// @Tags vehicles
// @Produce json
// @Success 200 {object} model.VehicleListResponse "Vehicle roster"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/vehicles [get]
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.vehicles.ListVehicles(c.Request.Context())
	if err != nil {
		respondInternalServerError(c, "Failed to list vehicles: "+err.Error())
		return
	}

	respondOK(c, model.VehicleListResponse{Vehicles: vehicles})
}
