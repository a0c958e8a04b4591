package domain

import "time"

// RawDocument is an uploaded invoice file as received from the caller.
// It lives only for the duration of one ingestion run.
type RawDocument struct {
	Name      string
	MediaType string
	Size      int64
	Content   []byte
}

// PayloadKind identifies the shape of a normalized payload
type PayloadKind string

const (
	PayloadImage PayloadKind = "image"
	PayloadText  PayloadKind = "text"
)

// NormalizedPayload is a canonical, size-bounded representation of an
// uploaded document, ready for the extraction call.
type NormalizedPayload struct {
	Kind PayloadKind

	// ImageDataURL holds a self-describing base64 data URL when Kind is image
	ImageDataURL string

	// Text holds the (possibly truncated) document text when Kind is text
	Text string
}

// ExtractedLineItem is one candidate fuel purchase as reported by the
// extraction model. Every field is a pointer: an absent field stays nil
// rather than degrading to a zero value, so completeness checks can tell
// "missing" apart from "zero".
type ExtractedLineItem struct {
	Date         *string  `json:"date"`
	Registration *string  `json:"registration"`
	Litres       *float64 `json:"litres"`
	CostPerLitre *float64 `json:"cost_per_litre"`
	TotalCost    *float64 `json:"total_cost"`
	Mileage      *int     `json:"mileage,omitempty"`
	Station      *string  `json:"station,omitempty"`
}

// ExtractedInvoice is the raw output of one extraction call
type ExtractedInvoice struct {
	InvoiceDate  *string             `json:"invoice_date"`
	InvoiceTotal *float64            `json:"invoice_total"`
	LineItems    []ExtractedLineItem `json:"line_items"`
}

// ValidatedLineItem annotates an extracted line item with a verdict.
// Accepted items are guaranteed complete and internally consistent.
type ValidatedLineItem struct {
	Item     ExtractedLineItem `json:"item"`
	Accepted bool              `json:"accepted"`
	Reasons  []string          `json:"reasons,omitempty"`
}

// ResolvedCandidate is an accepted line item with its fields lifted to
// concrete values and the registration resolved against the roster.
// VehicleID is nil when the registration matched no known vehicle; it is
// never a guessed value.
type ResolvedCandidate struct {
	SourceFile   string    `json:"source_file"`
	LineIndex    int       `json:"line_index"`
	Date         time.Time `json:"date"`
	Registration string    `json:"registration"`
	VehicleID    *string   `json:"vehicle_id"`
	Litres       float64   `json:"litres"`
	CostPerLitre float64   `json:"cost_per_litre"`
	TotalCost    float64   `json:"total_cost"`
	Mileage      *int      `json:"mileage,omitempty"`
	Station      string    `json:"station,omitempty"`
}

// MatchKind identifies where a duplicate match was found
type MatchKind string

const (
	MatchNone        MatchKind = "none"
	MatchDatabase    MatchKind = "database"
	MatchWithinBatch MatchKind = "withinBatch"
)

// DuplicateVerdict records the outcome of duplicate reconciliation for
// one candidate. A duplicate verdict never discards the candidate; the
// caller decides what to persist.
type DuplicateVerdict struct {
	IsDuplicate      bool      `json:"is_duplicate"`
	MatchKind        MatchKind `json:"match_kind"`
	MatchedRecordRef string    `json:"matched_record_ref,omitempty"`
}

// ReconciledCandidate is the unit presented to the caller for review
type ReconciledCandidate struct {
	ResolvedCandidate
	Duplicate DuplicateVerdict `json:"duplicate"`
}

// FileState is a stage in the per-file ingestion state machine
type FileState string

const (
	FileQueued      FileState = "queued"
	FileNormalizing FileState = "normalizing"
	FileExtracting  FileState = "extracting"
	FileValidating  FileState = "validating"
	FileResolving   FileState = "resolving"
	FileReconciled  FileState = "reconciled"
	FileFailed      FileState = "failed"
)

// FileOutcome is the terminal result of processing one uploaded file
type FileOutcome struct {
	Name       string                `json:"name"`
	State      FileState             `json:"state"`
	FailReason string                `json:"fail_reason,omitempty"`
	Candidates []ReconciledCandidate `json:"candidates,omitempty"`
	Rejected   []ValidatedLineItem   `json:"rejected,omitempty"`
}

// BatchResult aggregates one ingestion run: per-file outcomes plus all
// reconciled candidates merged in file-then-line order.
type BatchResult struct {
	PerFile    []FileOutcome         `json:"per_file"`
	Candidates []ReconciledCandidate `json:"candidates"`
}
