package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
	"github.com/fleetops/fuel-ingest-service/internal/normalizer"
	"github.com/fleetops/fuel-ingest-service/internal/openrouter"
	"github.com/fleetops/fuel-ingest-service/internal/pipeline"
)

// OrchestratorConfig holds configuration for the batch orchestrator
type OrchestratorConfig struct {
	// WindowSize bounds how many extraction calls may be outstanding at
	// once, regardless of batch size (default 2)
	WindowSize int

	// WindowYield is a short pause between windows keeping the progress
	// signal responsive (default 100ms)
	WindowYield time.Duration

	// ExtractionTimeout is the caller-imposed deadline per extraction
	// call (default 90s)
	ExtractionTimeout time.Duration
}

// DefaultOrchestratorConfig returns the default orchestrator configuration
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		WindowSize:        2,
		WindowYield:       100 * time.Millisecond,
		ExtractionTimeout: 90 * time.Second,
	}
}

// BatchOrchestrator drives the ingestion pipeline across a batch of
// uploaded documents in fixed-size concurrency windows. It is the sole
// concurrency owner: the components it calls are pure or single-call.
type BatchOrchestrator struct {
	normalizer *normalizer.Normalizer
	extractor  Extractor
	validator  *pipeline.Validator
	config     OrchestratorConfig
}

// NewBatchOrchestrator creates a new batch orchestrator
func NewBatchOrchestrator(n *normalizer.Normalizer, extractor Extractor, validator *pipeline.Validator, config OrchestratorConfig) *BatchOrchestrator {
	if config.WindowSize <= 0 {
		config.WindowSize = DefaultOrchestratorConfig().WindowSize
	}
	if config.WindowYield <= 0 {
		config.WindowYield = DefaultOrchestratorConfig().WindowYield
	}
	if config.ExtractionTimeout <= 0 {
		config.ExtractionTimeout = DefaultOrchestratorConfig().ExtractionTimeout
	}

	return &BatchOrchestrator{
		normalizer: n,
		extractor:  extractor,
		validator:  validator,
		config:     config,
	}
}

// fileResult is the per-file output of the concurrent pipeline phase,
// before batch-wide duplicate reconciliation.
type fileResult struct {
	state      domain.FileState
	failReason string
	resolved   []domain.ResolvedCandidate
	rejected   []domain.ValidatedLineItem
	quotaHit   bool
}

// RunBatch processes documents in fixed-size windows. Per-file failures
// are isolated; a quota-exhausted extraction failure stops scheduling
// further windows without retroactively failing completed files, and a
// cancelled context stops new windows while in-flight work completes.
func (o *BatchOrchestrator) RunBatch(ctx context.Context, documents []domain.RawDocument, opts BatchOptions) (*domain.BatchResult, error) {
	total := len(documents)
	results := make([]fileResult, total)
	for i := range results {
		results[i] = fileResult{state: domain.FileQueued}
	}

	completed := 0
	quotaExhausted := false

	for start := 0; start < total; start += o.config.WindowSize {
		if err := ctx.Err(); err != nil {
			o.failRemaining(results, start, "batch cancelled before processing")
			break
		}
		if quotaExhausted {
			o.failRemaining(results, start, "extraction quota exhausted")
			break
		}

		end := start + o.config.WindowSize
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				defer func() {
					// A programming invariant violation inside one
					// file's pipeline must not take down the batch
					if r := recover(); r != nil {
						log.Printf("panic processing %s: %v", documents[idx].Name, r)
						results[idx] = fileResult{
							state:      domain.FileFailed,
							failReason: "unexpected internal error",
						}
					}
				}()
				results[idx] = o.processFile(ctx, documents[idx], opts)
			}(i)
		}
		wg.Wait()

		completed = end
		for i := start; i < end; i++ {
			if results[i].quotaHit {
				quotaExhausted = true
			}
		}

		if opts.Progress != nil {
			opts.Progress(completed, total)
		}

		if end < total {
			time.Sleep(o.config.WindowYield)
		}
	}

	return o.merge(documents, results, opts), nil
}

// processFile runs one document through normalize, extract, validate
// and resolve. Duplicate reconciliation is deferred to the merge phase
// because its batch scope spans the whole run.
func (o *BatchOrchestrator) processFile(ctx context.Context, doc domain.RawDocument, opts BatchOptions) fileResult {
	payload, err := o.normalizer.Normalize(doc)
	if err != nil {
		return fileResult{state: domain.FileFailed, failReason: err.Error()}
	}

	var hint *time.Time
	if opts.DateHint != nil {
		hint = opts.DateHint(doc.Name)
	}

	hints := openrouter.ExtractionHints{DateHint: hint}
	for _, v := range opts.KnownVehicles {
		hints.KnownRegistrations = append(hints.KnownRegistrations, v.Registration)
	}

	extractCtx, cancel := context.WithTimeout(ctx, o.config.ExtractionTimeout)
	defer cancel()

	invoice, err := o.extractor.ExtractInvoice(extractCtx, payload, hints)
	if err != nil {
		result := fileResult{state: domain.FileFailed, failReason: err.Error()}
		var extErr *openrouter.ExtractionError
		if errors.As(err, &extErr) {
			switch extErr.Kind {
			case openrouter.KindQuotaExceeded:
				result.quotaHit = true
				result.failReason = "extraction quota exhausted"
			case openrouter.KindRateLimited:
				result.failReason = "extraction rate limited, retry later"
			case openrouter.KindPayloadTooLarge:
				result.failReason = "payload too large, resubmit a smaller file"
			case openrouter.KindTimeout:
				result.failReason = "extraction timed out"
			}
		}
		return result
	}

	// Anchor precedence: extracted invoice date, then filename hint
	anchor := hint
	if invoice.InvoiceDate != nil {
		if d, parseErr := time.Parse("2006-01-02", *invoice.InvoiceDate); parseErr == nil {
			anchor = &d
		}
	}

	var resolved []domain.ResolvedCandidate
	var rejected []domain.ValidatedLineItem
	for i, item := range invoice.LineItems {
		// Degraded fallback: a missing per-line date inherits the
		// invoice-level date before validation
		if item.Date == nil && invoice.InvoiceDate != nil {
			item.Date = invoice.InvoiceDate
		}

		verdict := o.validator.Validate(item, anchor)
		if !verdict.Accepted {
			rejected = append(rejected, verdict)
			continue
		}

		date, _ := time.Parse("2006-01-02", *item.Date)
		candidate := domain.ResolvedCandidate{
			SourceFile:   doc.Name,
			LineIndex:    i,
			Date:         date,
			Registration: *item.Registration,
			VehicleID:    pipeline.ResolveVehicle(*item.Registration, opts.KnownVehicles),
			Litres:       *item.Litres,
			CostPerLitre: *item.CostPerLitre,
			TotalCost:    *item.TotalCost,
			Mileage:      item.Mileage,
		}
		if item.Station != nil {
			candidate.Station = *item.Station
		}
		resolved = append(resolved, candidate)
	}

	return fileResult{
		state:    domain.FileReconciled,
		resolved: resolved,
		rejected: rejected,
	}
}

// failRemaining marks every not-yet-scheduled file as failed
func (o *BatchOrchestrator) failRemaining(results []fileResult, from int, reason string) {
	for i := from; i < len(results); i++ {
		results[i] = fileResult{state: domain.FileFailed, failReason: reason}
	}
}

// merge reconciles candidates batch-wide in file-then-line order and
// assembles the final result. The prior-candidate list is an explicit
// accumulator threaded through the fold, so within-batch duplicate
// scope spans every file in the run.
func (o *BatchOrchestrator) merge(documents []domain.RawDocument, results []fileResult, opts BatchOptions) *domain.BatchResult {
	batch := &domain.BatchResult{
		PerFile:    make([]domain.FileOutcome, len(results)),
		Candidates: []domain.ReconciledCandidate{},
	}

	var prior []domain.ResolvedCandidate
	for i, result := range results {
		outcome := domain.FileOutcome{
			Name:       documents[i].Name,
			State:      result.state,
			FailReason: result.failReason,
			Rejected:   result.rejected,
		}

		for _, candidate := range result.resolved {
			reconciled := pipeline.Reconcile(candidate, opts.ExistingIndex, prior)
			prior = append(prior, candidate)
			outcome.Candidates = append(outcome.Candidates, reconciled)
			batch.Candidates = append(batch.Candidates, reconciled)
		}

		batch.PerFile[i] = outcome
	}

	return batch
}
