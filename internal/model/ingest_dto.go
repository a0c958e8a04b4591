package model

import (
	"time"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
)

// CandidateDTO is one reconciled fuel purchase candidate presented for
// caller review. Selected encodes the default review policy: duplicates
// and unresolved-vehicle rows are pre-deselected but may be overridden.
type CandidateDTO struct {
	SourceFile       string  `json:"source_file"`
	LineIndex        int     `json:"line_index"`
	Date             string  `json:"date"` // Format: YYYY-MM-DD
	Registration     string  `json:"registration"`
	VehicleID        *string `json:"vehicle_id"`
	Litres           float64 `json:"litres"`
	CostPerLitre     float64 `json:"cost_per_litre"`
	TotalCost        float64 `json:"total_cost"`
	Mileage          *int    `json:"mileage,omitempty"`
	Station          string  `json:"station,omitempty"`
	IsDuplicate      bool    `json:"is_duplicate"`
	MatchKind        string  `json:"match_kind"`
	MatchedRecordRef string  `json:"matched_record_ref,omitempty"`
	Selected         bool    `json:"selected"`
}

// RejectedItemDTO is a rejected line item with its diagnostic reasons
type RejectedItemDTO struct {
	Date         *string  `json:"date"`
	Registration *string  `json:"registration"`
	Litres       *float64 `json:"litres"`
	CostPerLitre *float64 `json:"cost_per_litre"`
	TotalCost    *float64 `json:"total_cost"`
	Reasons      []string `json:"reasons"`
}

// FileOutcomeDTO is the terminal result of one uploaded file
type FileOutcomeDTO struct {
	Name        string            `json:"name"`
	State       string            `json:"state"`
	FailReason  string            `json:"fail_reason,omitempty"`
	DocumentKey string            `json:"document_key,omitempty"`
	Rejected    []RejectedItemDTO `json:"rejected,omitempty"`
}

// IngestResponse is the response to a batch ingestion request
type IngestResponse struct {
	Success    bool             `json:"success"`
	FilesTotal int              `json:"files_total"`
	PerFile    []FileOutcomeDTO `json:"per_file"`
	Candidates []CandidateDTO   `json:"candidates"`
}

// ApprovedRecordDTO is one caller-approved candidate to persist
type ApprovedRecordDTO struct {
	VehicleID    string  `json:"vehicle_id" binding:"required"`
	Date         string  `json:"date" binding:"required"` // Format: YYYY-MM-DD
	Litres       float64 `json:"litres" binding:"required"`
	CostPerLitre float64 `json:"cost_per_litre" binding:"required"`
	TotalCost    float64 `json:"total_cost" binding:"required"`
	Mileage      *int    `json:"mileage,omitempty"`
	Station      string  `json:"station,omitempty"`
	DocumentKey  string  `json:"document_key,omitempty"`
}

// CreateRecordsRequest is the request body for persisting approved records
type CreateRecordsRequest struct {
	Records []ApprovedRecordDTO `json:"records" binding:"required"`
}

// CreateRecordsResponse reports the persisted records
type CreateRecordsResponse struct {
	Success bool                `json:"success"`
	Records []domain.FuelRecord `json:"records"`
}

// VehicleListResponse is the roster listing response
type VehicleListResponse struct {
	Vehicles []domain.Vehicle `json:"vehicles"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// FromBatchResult converts a domain batch result into the ingest response
func FromBatchResult(result *domain.BatchResult) *IngestResponse {
	resp := &IngestResponse{
		Success:    true,
		FilesTotal: len(result.PerFile),
		PerFile:    make([]FileOutcomeDTO, 0, len(result.PerFile)),
		Candidates: make([]CandidateDTO, 0, len(result.Candidates)),
	}

	for _, outcome := range result.PerFile {
		dto := FileOutcomeDTO{
			Name:       outcome.Name,
			State:      string(outcome.State),
			FailReason: outcome.FailReason,
		}
		for _, rejected := range outcome.Rejected {
			dto.Rejected = append(dto.Rejected, RejectedItemDTO{
				Date:         rejected.Item.Date,
				Registration: rejected.Item.Registration,
				Litres:       rejected.Item.Litres,
				CostPerLitre: rejected.Item.CostPerLitre,
				TotalCost:    rejected.Item.TotalCost,
				Reasons:      rejected.Reasons,
			})
		}
		resp.PerFile = append(resp.PerFile, dto)
	}

	for _, c := range result.Candidates {
		resp.Candidates = append(resp.Candidates, CandidateDTO{
			SourceFile:       c.SourceFile,
			LineIndex:        c.LineIndex,
			Date:             c.Date.Format("2006-01-02"),
			Registration:     c.Registration,
			VehicleID:        c.VehicleID,
			Litres:           c.Litres,
			CostPerLitre:     c.CostPerLitre,
			TotalCost:        c.TotalCost,
			Mileage:          c.Mileage,
			Station:          c.Station,
			IsDuplicate:      c.Duplicate.IsDuplicate,
			MatchKind:        string(c.Duplicate.MatchKind),
			MatchedRecordRef: c.Duplicate.MatchedRecordRef,
			Selected:         !c.Duplicate.IsDuplicate && c.VehicleID != nil,
		})
	}

	return resp
}

// ToDomain converts an approved record into a domain fuel record
func (dto *ApprovedRecordDTO) ToDomain() (*domain.FuelRecord, error) {
	date, err := time.Parse("2006-01-02", dto.Date)
	if err != nil {
		return nil, err
	}

	return &domain.FuelRecord{
		VehicleID:    dto.VehicleID,
		Date:         date,
		Litres:       dto.Litres,
		CostPerLitre: dto.CostPerLitre,
		TotalCost:    dto.TotalCost,
		Mileage:      dto.Mileage,
		Station:      dto.Station,
		DocumentKey:  dto.DocumentKey,
	}, nil
}
