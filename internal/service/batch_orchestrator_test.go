package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
	"github.com/fleetops/fuel-ingest-service/internal/normalizer"
	"github.com/fleetops/fuel-ingest-service/internal/openrouter"
	"github.com/fleetops/fuel-ingest-service/internal/pipeline"
)

// fakeExtractor maps normalized text payloads to canned responses, so
// each test document selects its outcome by content.
type fakeExtractor struct {
	mu        sync.Mutex
	responses map[string]*domain.ExtractedInvoice
	errors    map[string]error
	delay     time.Duration

	inFlight    int32
	maxInFlight int32
	calls       int32
}

func (f *fakeExtractor) ExtractInvoice(ctx context.Context, payload domain.NormalizedPayload, hints openrouter.ExtractionHints) (*domain.ExtractedInvoice, error) {
	atomic.AddInt32(&f.calls, 1)
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)

	f.mu.Lock()
	if current > f.maxInFlight {
		f.maxInFlight = current
	}
	response := f.responses[payload.Text]
	err := f.errors[payload.Text]
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if err != nil {
		return nil, err
	}
	if response != nil {
		return response, nil
	}
	return &domain.ExtractedInvoice{}, nil
}

func sPtr(s string) *string   { return &s }
func fPtr(f float64) *float64 { return &f }

func lineItem(date, registration string, litres float64) domain.ExtractedLineItem {
	return domain.ExtractedLineItem{
		Date:         sPtr(date),
		Registration: sPtr(registration),
		Litres:       fPtr(litres),
		CostPerLitre: fPtr(1.50),
		TotalCost:    fPtr(litres * 1.50),
	}
}

func textDoc(name string) domain.RawDocument {
	return domain.RawDocument{
		Name:      name,
		MediaType: "text/plain",
		Content:   []byte(name),
	}
}

func testOrchestrator(extractor Extractor, config OrchestratorConfig) *BatchOrchestrator {
	vcfg := pipeline.DefaultValidatorConfig()
	vcfg.Now = func() time.Time {
		return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	}
	if config.WindowYield == 0 {
		config.WindowYield = time.Millisecond
	}
	return NewBatchOrchestrator(normalizer.New(nil), extractor, pipeline.NewValidator(vcfg), config)
}

func testOptions() BatchOptions {
	return BatchOptions{
		KnownVehicles: []domain.Vehicle{
			{ID: "veh-1", Registration: "AB12 CDE"},
			{ID: "veh-2", Registration: "XY99 ZZZ"},
		},
	}
}

func TestRunBatch_PartialFailureIsolation(t *testing.T) {
	extractor := &fakeExtractor{
		responses: map[string]*domain.ExtractedInvoice{
			"one.txt":   {LineItems: []domain.ExtractedLineItem{lineItem("2025-06-10", "AB12 CDE", 40)}},
			"three.txt": {LineItems: []domain.ExtractedLineItem{lineItem("2025-06-12", "XY99 ZZZ", 35)}},
		},
		errors: map[string]error{
			"two.txt": &openrouter.ExtractionError{Kind: openrouter.KindUnknown, Op: "extract invoice"},
		},
	}
	o := testOrchestrator(extractor, OrchestratorConfig{WindowSize: 2})

	result, err := o.RunBatch(context.Background(), []domain.RawDocument{
		textDoc("one.txt"), textDoc("two.txt"), textDoc("three.txt"),
	}, testOptions())

	require.NoError(t, err)
	require.Len(t, result.PerFile, 3)
	assert.Equal(t, domain.FileReconciled, result.PerFile[0].State)
	assert.Equal(t, domain.FileFailed, result.PerFile[1].State)
	assert.Equal(t, domain.FileReconciled, result.PerFile[2].State)
	assert.Len(t, result.Candidates, 2)
}

func TestRunBatch_ConcurrencyNeverExceedsWindowSize(t *testing.T) {
	extractor := &fakeExtractor{delay: 20 * time.Millisecond}
	o := testOrchestrator(extractor, OrchestratorConfig{WindowSize: 2})

	docs := []domain.RawDocument{
		textDoc("a.txt"), textDoc("b.txt"), textDoc("c.txt"),
		textDoc("d.txt"), textDoc("e.txt"),
	}
	_, err := o.RunBatch(context.Background(), docs, testOptions())

	require.NoError(t, err)
	assert.Equal(t, int32(5), extractor.calls)
	assert.LessOrEqual(t, extractor.maxInFlight, int32(2))
}

func TestRunBatch_QuotaExhaustionStopsScheduling(t *testing.T) {
	extractor := &fakeExtractor{
		responses: map[string]*domain.ExtractedInvoice{
			"first.txt": {LineItems: []domain.ExtractedLineItem{lineItem("2025-06-10", "AB12 CDE", 40)}},
		},
		errors: map[string]error{
			"second.txt": &openrouter.ExtractionError{Kind: openrouter.KindQuotaExceeded, Op: "extract invoice"},
		},
	}
	o := testOrchestrator(extractor, OrchestratorConfig{WindowSize: 1})

	result, err := o.RunBatch(context.Background(), []domain.RawDocument{
		textDoc("first.txt"), textDoc("second.txt"), textDoc("third.txt"), textDoc("fourth.txt"),
	}, testOptions())

	require.NoError(t, err)

	// The file completed before the quota hit keeps its result
	assert.Equal(t, domain.FileReconciled, result.PerFile[0].State)
	assert.Equal(t, domain.FileFailed, result.PerFile[1].State)

	// Unscheduled files fail without spending extraction calls
	for _, outcome := range result.PerFile[2:] {
		assert.Equal(t, domain.FileFailed, outcome.State)
		assert.Equal(t, "extraction quota exhausted", outcome.FailReason)
	}
	assert.Equal(t, int32(2), extractor.calls)
}

func TestRunBatch_CancelledContextFailsPendingFiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	extractor := &fakeExtractor{}
	o := testOrchestrator(extractor, OrchestratorConfig{WindowSize: 2})

	result, err := o.RunBatch(ctx, []domain.RawDocument{textDoc("a.txt"), textDoc("b.txt")}, testOptions())

	require.NoError(t, err)
	for _, outcome := range result.PerFile {
		assert.Equal(t, domain.FileFailed, outcome.State)
		assert.Equal(t, "batch cancelled before processing", outcome.FailReason)
	}
	assert.Equal(t, int32(0), extractor.calls)
}

func TestRunBatch_WithinBatchDuplicatesAcrossFiles(t *testing.T) {
	// Both files report the same fill-up; the later file in batch order
	// gets the duplicate flag
	extractor := &fakeExtractor{
		responses: map[string]*domain.ExtractedInvoice{
			"first.txt":  {LineItems: []domain.ExtractedLineItem{lineItem("2025-06-10", "AB12 CDE", 40)}},
			"second.txt": {LineItems: []domain.ExtractedLineItem{lineItem("2025-06-10", "AB12 CDE", 40.2)}},
		},
	}
	o := testOrchestrator(extractor, OrchestratorConfig{WindowSize: 2})

	result, err := o.RunBatch(context.Background(), []domain.RawDocument{
		textDoc("first.txt"), textDoc("second.txt"),
	}, testOptions())

	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)
	assert.False(t, result.Candidates[0].Duplicate.IsDuplicate)
	assert.True(t, result.Candidates[1].Duplicate.IsDuplicate)
	assert.Equal(t, domain.MatchWithinBatch, result.Candidates[1].Duplicate.MatchKind)
}

func TestRunBatch_ResubmissionIsFlaggedAgainstDatabase(t *testing.T) {
	extractor := &fakeExtractor{
		responses: map[string]*domain.ExtractedInvoice{
			"resubmit.txt": {LineItems: []domain.ExtractedLineItem{lineItem("2025-06-10", "AB12 CDE", 40)}},
		},
	}
	o := testOrchestrator(extractor, OrchestratorConfig{WindowSize: 1})

	opts := testOptions()
	opts.ExistingIndex = domain.ExistingRecordIndex{
		{RecordID: "rec-77", VehicleID: "veh-1", Date: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), Litres: 40},
	}

	result, err := o.RunBatch(context.Background(), []domain.RawDocument{textDoc("resubmit.txt")}, opts)

	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.True(t, result.Candidates[0].Duplicate.IsDuplicate)
	assert.Equal(t, domain.MatchDatabase, result.Candidates[0].Duplicate.MatchKind)
	assert.Equal(t, "rec-77", result.Candidates[0].Duplicate.MatchedRecordRef)
}

func TestRunBatch_ProgressIsMonotonic(t *testing.T) {
	extractor := &fakeExtractor{}
	o := testOrchestrator(extractor, OrchestratorConfig{WindowSize: 2})

	var mu sync.Mutex
	var reports []int
	opts := testOptions()
	opts.Progress = func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 5, total)
		reports = append(reports, completed)
	}

	docs := []domain.RawDocument{
		textDoc("a.txt"), textDoc("b.txt"), textDoc("c.txt"),
		textDoc("d.txt"), textDoc("e.txt"),
	}
	_, err := o.RunBatch(context.Background(), docs, opts)

	require.NoError(t, err)
	require.Equal(t, []int{2, 4, 5}, reports)
}

func TestRunBatch_MissingLineDateInheritsInvoiceDate(t *testing.T) {
	item := lineItem("", "AB12 CDE", 40)
	item.Date = nil
	extractor := &fakeExtractor{
		responses: map[string]*domain.ExtractedInvoice{
			"nodate.txt": {
				InvoiceDate: sPtr("2025-06-15"),
				LineItems:   []domain.ExtractedLineItem{item},
			},
		},
	}
	o := testOrchestrator(extractor, OrchestratorConfig{WindowSize: 1})

	result, err := o.RunBatch(context.Background(), []domain.RawDocument{textDoc("nodate.txt")}, testOptions())

	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), result.Candidates[0].Date)
}

func TestRunBatch_FilenameHintAnchorsValidation(t *testing.T) {
	// No extracted invoice date; the filename hint becomes the anchor,
	// so a line dated months away from it is rejected
	extractor := &fakeExtractor{
		responses: map[string]*domain.ExtractedInvoice{
			"hinted.txt": {LineItems: []domain.ExtractedLineItem{lineItem("2025-06-10", "AB12 CDE", 40)}},
		},
	}
	o := testOrchestrator(extractor, OrchestratorConfig{WindowSize: 1})

	hint := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	opts := testOptions()
	opts.DateHint = func(filename string) *time.Time { return &hint }

	result, err := o.RunBatch(context.Background(), []domain.RawDocument{textDoc("hinted.txt")}, opts)

	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
	require.Len(t, result.PerFile[0].Rejected, 1)
}

func TestRunBatch_UnreadableFileFailsWithoutExtraction(t *testing.T) {
	extractor := &fakeExtractor{}
	o := testOrchestrator(extractor, OrchestratorConfig{WindowSize: 1})

	doc := domain.RawDocument{Name: "report.pdf", MediaType: "application/pdf", Content: []byte("%PDF-")}
	result, err := o.RunBatch(context.Background(), []domain.RawDocument{doc}, testOptions())

	require.NoError(t, err)
	assert.Equal(t, domain.FileFailed, result.PerFile[0].State)
	assert.Contains(t, result.PerFile[0].FailReason, "unsupported media type")
	assert.Equal(t, int32(0), extractor.calls)
}

func TestRunBatch_RejectedLinesDoNotFailTheFile(t *testing.T) {
	bad := lineItem("2025-06-10", "AB12 CDE", 40)
	bad.TotalCost = fPtr(999)
	extractor := &fakeExtractor{
		responses: map[string]*domain.ExtractedInvoice{
			"mixed.txt": {LineItems: []domain.ExtractedLineItem{
				lineItem("2025-06-10", "AB12 CDE", 40),
				bad,
			}},
		},
	}
	o := testOrchestrator(extractor, OrchestratorConfig{WindowSize: 1})

	result, err := o.RunBatch(context.Background(), []domain.RawDocument{textDoc("mixed.txt")}, testOptions())

	require.NoError(t, err)
	assert.Equal(t, domain.FileReconciled, result.PerFile[0].State)
	assert.Len(t, result.Candidates, 1)
	assert.Len(t, result.PerFile[0].Rejected, 1)
}

func TestRunBatch_UnknownRegistrationYieldsUnresolvedCandidate(t *testing.T) {
	extractor := &fakeExtractor{
		responses: map[string]*domain.ExtractedInvoice{
			"stranger.txt": {LineItems: []domain.ExtractedLineItem{lineItem("2025-06-10", "ZZ00 AAA", 40)}},
		},
	}
	o := testOrchestrator(extractor, OrchestratorConfig{WindowSize: 1})

	result, err := o.RunBatch(context.Background(), []domain.RawDocument{textDoc("stranger.txt")}, testOptions())

	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Nil(t, result.Candidates[0].VehicleID)
	assert.False(t, result.Candidates[0].Duplicate.IsDuplicate)
}
