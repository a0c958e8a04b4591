package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
	"github.com/fleetops/fuel-ingest-service/internal/openrouter"
)

// ProgressFunc receives (filesCompleted, filesTotal) after each window.
// Values are monotonically increasing and safe to sample at any time.
type ProgressFunc func(completed, total int)

// DateHintFunc derives an optional anchor date from a filename.
// Returning nil means no hint, which is not an error.
type DateHintFunc func(filename string) *time.Time

// BatchOptions carries the per-run collaborators for one ingestion
// batch. Roster and existing-record index are supplied fresh per run
// and never mutated by the pipeline.
type BatchOptions struct {
	KnownVehicles []domain.Vehicle
	ExistingIndex domain.ExistingRecordIndex
	DateHint      DateHintFunc
	Progress      ProgressFunc
}

// IngestServicer defines the interface for fuel invoice ingestion
type IngestServicer interface {
	// RunBatch drives the full pipeline across a batch of uploaded
	// documents and returns per-file outcomes plus merged candidates
	RunBatch(ctx context.Context, documents []domain.RawDocument, opts BatchOptions) (*domain.BatchResult, error)
}

// Extractor is the extraction capability consumed by the orchestrator
type Extractor interface {
	ExtractInvoice(ctx context.Context, payload domain.NormalizedPayload, hints openrouter.ExtractionHints) (*domain.ExtractedInvoice, error)
}

// IngestError represents an error that occurred during batch ingestion
type IngestError struct {
	// Op is the operation that failed
	Op string

	// Err is the underlying error
	Err error
}

// Error returns a string representation of the error
func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error
func (e *IngestError) Unwrap() error {
	return e.Err
}
