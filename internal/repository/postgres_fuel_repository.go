package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
)

// PostgresFuelRepository implements FuelRecordRepository using PostgreSQL
type PostgresFuelRepository struct {
	db *pgxpool.Pool
}

// NewPostgresFuelRepository creates a new PostgreSQL fuel record repository
func NewPostgresFuelRepository(db *pgxpool.Pool) *PostgresFuelRepository {
	return &PostgresFuelRepository{
		db: db,
	}
}

// LoadRecordIndex returns the identity fields of every persisted fuel
// record. The snapshot is taken once per ingestion run so duplicate
// checks never race with concurrent inserts mid-run.
func (r *PostgresFuelRepository) LoadRecordIndex(ctx context.Context) (domain.ExistingRecordIndex, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, vehicle_id, date, litres
		FROM fuel_records
		ORDER BY date, vehicle_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fuel record index: %w", err)
	}
	defer rows.Close()

	index := domain.ExistingRecordIndex{}
	for rows.Next() {
		var rec domain.ExistingRecord
		if err := rows.Scan(&rec.RecordID, &rec.VehicleID, &rec.Date, &rec.Litres); err != nil {
			return nil, fmt.Errorf("failed to scan fuel record: %w", err)
		}
		index = append(index, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fuel records: %w", err)
	}

	return index, nil
}

// CreateRecords persists approved fuel records in one transaction
func (r *PostgresFuelRepository) CreateRecords(ctx context.Context, records []domain.FuelRecord) ([]domain.FuelRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if not committed

	created := make([]domain.FuelRecord, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO fuel_records (id, vehicle_id, date, litres, cost_per_litre, total_cost, mileage, station, document_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at
		`, rec.ID, rec.VehicleID, rec.Date, rec.Litres, rec.CostPerLitre, rec.TotalCost,
			rec.Mileage, rec.Station, rec.DocumentKey).Scan(&rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert fuel record: %w", err)
		}

		created = append(created, rec)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, nil
}
