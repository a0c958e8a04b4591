package repository

import (
	"context"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
)

// FuelRecordRepository defines access to persisted fuel records
type FuelRecordRepository interface {
	// LoadRecordIndex returns a read-only snapshot of the identity
	// fields of all persisted fuel records, for duplicate reconciliation
	LoadRecordIndex(ctx context.Context) (domain.ExistingRecordIndex, error)

	// CreateRecords persists the caller-approved fuel records and
	// returns them with generated identifiers
	CreateRecords(ctx context.Context, records []domain.FuelRecord) ([]domain.FuelRecord, error)
}
