package domain

import "time"

// FuelRecord represents a persisted fuel purchase for a fleet vehicle
type FuelRecord struct {
	ID           string    `json:"id"`
	VehicleID    string    `json:"vehicle_id"`
	Date         time.Time `json:"date"`
	Litres       float64   `json:"litres"`
	CostPerLitre float64   `json:"cost_per_litre"`
	TotalCost    float64   `json:"total_cost"`
	Mileage      *int      `json:"mileage,omitempty"`
	Station      string    `json:"station,omitempty"`
	DocumentKey  string    `json:"document_key,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ExistingRecord is one entry of the existing-record index consulted
// during duplicate reconciliation. It carries only the fields that
// establish purchase identity plus a reference back to the stored row.
type ExistingRecord struct {
	RecordID  string    `json:"record_id"`
	VehicleID string    `json:"vehicle_id"`
	Date      time.Time `json:"date"`
	Litres    float64   `json:"litres"`
}

// ExistingRecordIndex is a read-only snapshot of previously persisted
// fuel records, supplied fresh per ingestion run and never mutated.
type ExistingRecordIndex []ExistingRecord
