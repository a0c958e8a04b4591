package handler

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/fleetops/fuel-ingest-service/internal/datehint"
	"github.com/fleetops/fuel-ingest-service/internal/domain"
	"github.com/fleetops/fuel-ingest-service/internal/model"
	"github.com/fleetops/fuel-ingest-service/internal/repository"
	"github.com/fleetops/fuel-ingest-service/internal/service"
	"github.com/fleetops/fuel-ingest-service/internal/storage"
)

// IngestHandler handles HTTP requests for fuel invoice ingestion
type IngestHandler struct {
	orchestrator service.IngestServicer
	vehicles     repository.VehicleRepository
	fuelRecords  repository.FuelRecordRepository
	archiver     *storage.DocumentArchiver
	maxFileSize  int64
	maxFiles     int
}

// NewIngestHandler creates a new fuel invoice ingestion handler.
// The archiver may be nil, in which case raw documents are not retained.
func NewIngestHandler(orchestrator service.IngestServicer, vehicles repository.VehicleRepository, fuelRecords repository.FuelRecordRepository, archiver *storage.DocumentArchiver) *IngestHandler {
	return &IngestHandler{
		orchestrator: orchestrator,
		vehicles:     vehicles,
		fuelRecords:  fuelRecords,
		archiver:     archiver,
		maxFileSize:  10 * 1024 * 1024, // 10MB per file
		maxFiles:     25,
	}
}

// RegisterRoutes registers the handler's routes with the given router
func (h *IngestHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/v1/fuel/ingest", h.IngestBatch)
	router.POST("/v1/fuel/records", h.CreateRecords)
}

// IngestBatch handles a request to ingest a batch of fuel invoice files
// @Summary Ingest fuel invoices
// @Description Upload one or more fuel invoice files; returns validated, vehicle-resolved and duplicate-checked purchase candidates for review
// @Tags fuel
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Invoice files (images or text)"
// @Success 200 {object} model.IngestResponse "Batch processed; per-file outcomes and candidates"
// @Failure 400 {object} model.ErrorResponse "Bad request"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/fuel/ingest [post]
func (h *IngestHandler) IngestBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondBadRequest(c, "Failed to parse form data: "+err.Error())
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		respondBadRequest(c, "No files provided")
		return
	}
	if len(headers) > h.maxFiles {
		respondBadRequest(c, "Too many files in one batch")
		return
	}

	documents := make([]domain.RawDocument, 0, len(headers))
	documentKeys := make(map[string]string)
	for _, header := range headers {
		if header.Size > h.maxFileSize {
			respondBadRequest(c, "File size exceeds limit: "+header.Filename)
			return
		}

		content, err := readFormFile(header)
		if err != nil {
			respondInternalServerError(c, err.Error())
			return
		}

		mediaType := mediaTypeFor(header)
		documents = append(documents, domain.RawDocument{
			Name:      header.Filename,
			MediaType: mediaType,
			Size:      header.Size,
			Content:   content,
		})

		// Archive raw documents before extraction; failure here is
		// logged and tolerated, ingestion still proceeds
		if h.archiver != nil {
			key, err := h.archiver.ArchiveDocument(content, mediaType)
			if err != nil {
				log.Printf("Error archiving document %s: %v", header.Filename, err)
			} else {
				documentKeys[header.Filename] = key
			}
		}
	}

	// Roster and existing-record index are loaded fresh per run
	roster, err := h.vehicles.ListVehicles(c.Request.Context())
	if err != nil {
		respondInternalServerError(c, "Failed to load vehicle roster: "+err.Error())
		return
	}

	index, err := h.fuelRecords.LoadRecordIndex(c.Request.Context())
	if err != nil {
		respondInternalServerError(c, "Failed to load fuel record index: "+err.Error())
		return
	}

	log.Printf("Ingesting batch of %d file(s)", len(documents))
	result, err := h.orchestrator.RunBatch(c.Request.Context(), documents, service.BatchOptions{
		KnownVehicles: roster,
		ExistingIndex: index,
		DateHint:      datehint.FromFilename,
		Progress: func(completed, total int) {
			log.Printf("Batch progress: %d/%d files", completed, total)
		},
	})
	if err != nil {
		respondInternalServerError(c, "Batch processing failed: "+err.Error())
		return
	}

	response := model.FromBatchResult(result)
	for i := range response.PerFile {
		response.PerFile[i].DocumentKey = documentKeys[response.PerFile[i].Name]
	}

	respondOK(c, response)
}

// CreateRecords handles persisting caller-approved fuel purchase candidates
// @Summary Persist approved fuel records
// @Description Store the reviewed and approved subset of ingestion candidates as fuel records
// @Tags fuel
// @Accept json
// @Produce json
// @Param request body model.CreateRecordsRequest true "Approved records"
// @Success 201 {object} model.CreateRecordsResponse "Records persisted"
// @Failure 400 {object} model.ErrorResponse "Bad request"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/fuel/records [post]
func (h *IngestHandler) CreateRecords(c *gin.Context) {
	var request model.CreateRecordsRequest
	if err := bindJSON(c, &request); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if len(request.Records) == 0 {
		respondBadRequest(c, "No records provided")
		return
	}

	records := make([]domain.FuelRecord, 0, len(request.Records))
	for i, dto := range request.Records {
		record, err := dto.ToDomain()
		if err != nil {
			respondUnprocessableEntity(c, "Invalid record", model.ErrorDetail{
				Field:   fmt.Sprintf("records[%d].date", i),
				Message: "expected YYYY-MM-DD",
			})
			return
		}
		records = append(records, *record)
	}

	created, err := h.fuelRecords.CreateRecords(c.Request.Context(), records)
	if err != nil {
		respondInternalServerError(c, "Failed to persist records: "+err.Error())
		return
	}

	respondCreated(c, model.CreateRecordsResponse{
		Success: true,
		Records: created,
	})
}
