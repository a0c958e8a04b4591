package repository

import (
	"context"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
)

// VehicleRepository defines read access to the fleet vehicle roster.
// The roster is loaded fresh per ingestion run; the pipeline never
// queries it lazily mid-run.
type VehicleRepository interface {
	// ListVehicles returns the full roster
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
}
