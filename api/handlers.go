/*
handlers.go - HTTP API handlers for the pension case-file service

PURPOSE:
  Exposes the dossier services via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the dossier use cases.

ENDPOINTS:
  Case files:
    GET    /api/dossiers                         List (?status=&kind=&owner=)
    POST   /api/dossiers                         Create
    GET    /api/dossiers/{id}                    Get with careers/periods
    PUT    /api/dossiers/{id}                    Partial update
    DELETE /api/dossiers/{id}                    Delete (cascades)
    PUT    /api/dossiers/{id}/status             Status change
    POST   /api/dossiers/{id}/calculate-pension  Run the pension engine

  Owner-scoped (X-User-Id required):
    GET    /api/me/dossiers                      Caller's case files
    POST   /api/me/dossiers                      Open a cotisation case file
    GET    /api/me/dossiers/{id}
    PATCH  /api/me/dossiers/{id}/submission      DRAFT -> IN_PROGRESS
    PATCH  /api/me/dossiers/{id}/validation      IN_PROGRESS -> VALIDATED

  Careers, periods, payments, documents, statistics, reporting:
    see server.go for the full route table.

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Services: dossier use cases
  - Store:    reset hook for demo scenarios

ERROR HANDLING:
  Service errors are mapped by statusForError:
  - 400: Validation errors, invalid input, bad documents
  - 401: Missing X-User-Id on owner routes (middleware)
  - 403: Caller does not own the case file
  - 404: Record not found
  - 409: Status transition or case-file kind conflict
  - 500: Internal errors (logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/warp/pension-engine/dossier"
	"github.com/warp/pension-engine/pension"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter clears all stored data. Scenarios reset before loading.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Services *dossier.Services
	Store    Resetter

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over the services.
func NewHandler(services *dossier.Services, store Resetter) *Handler {
	return &Handler{
		Services: services,
		Store:    store,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// CASE FILE HANDLERS
// =============================================================================

// ListCaseFiles returns case files, filtered by status, kind and owner.
// GET /api/dossiers
func (h *Handler) ListCaseFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := pension.CaseFileFilter{
		Status:  pension.Status(strings.ToUpper(q.Get("status"))),
		Kind:    pension.Kind(strings.ToLower(q.Get("kind"))),
		OwnerID: q.Get("owner"),
	}

	cfs, err := h.Services.CaseFiles.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, "Failed to list case files", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseFileDTOs(cfs))
}

// CreateCaseFile opens a case file.
// POST /api/dossiers
func (h *Handler) CreateCaseFile(w http.ResponseWriter, r *http.Request) {
	var req CreateCaseFileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Kind == "" {
		req.Kind = string(pension.KindCareer)
	}
	h.createCaseFile(w, r, req)
}

func (h *Handler) createCaseFile(w http.ResponseWriter, r *http.Request, req CreateCaseFileRequest) {
	beneficiary, err := req.Beneficiary.toDomain()
	if err != nil {
		writeServiceError(w, "Invalid beneficiary", err)
		return
	}

	cf, err := h.Services.CaseFiles.Create(r.Context(), dossier.CreateCaseFileInput{
		Kind:                 pension.Kind(strings.ToLower(req.Kind)),
		OwnerID:              req.OwnerID,
		SocialSecurityNumber: req.SocialSecurityNumber,
		Beneficiary:          beneficiary,
	})
	if err != nil {
		writeServiceError(w, "Failed to create case file", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCaseFileDTO(cf))
}

// GetCaseFile returns a case file with its careers or periods.
// GET /api/dossiers/{id}
func (h *Handler) GetCaseFile(w http.ResponseWriter, r *http.Request) {
	cf, err := h.Services.CaseFiles.LoadAggregate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get case file", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseFileDTO(cf))
}

// UpdateCaseFile applies a partial update.
// PUT /api/dossiers/{id}
func (h *Handler) UpdateCaseFile(w http.ResponseWriter, r *http.Request) {
	var req UpdateCaseFileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	beneficiary, err := req.Beneficiary.toDomain()
	if err != nil {
		writeServiceError(w, "Invalid beneficiary", err)
		return
	}
	in := dossier.UpdateCaseFileInput{
		ID:                   chi.URLParam(r, "id"),
		SocialSecurityNumber: req.SocialSecurityNumber,
		Beneficiary:          beneficiary,
	}
	if req.Status != nil {
		status := pension.Status(strings.ToUpper(*req.Status))
		in.Status = &status
	}

	cf, err := h.Services.CaseFiles.Update(r.Context(), in)
	if err != nil {
		writeServiceError(w, "Failed to update case file", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseFileDTO(cf))
}

// DeleteCaseFile removes a case file with its careers, periods and
// documents.
// DELETE /api/dossiers/{id}
func (h *Handler) DeleteCaseFile(w http.ResponseWriter, r *http.Request) {
	if err := h.Services.CaseFiles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to delete case file", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateCaseFileStatus moves a case file through the status machine.
// PUT /api/dossiers/{id}/status
func (h *Handler) UpdateCaseFileStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cf, err := h.Services.CaseFiles.UpdateStatus(r.Context(), chi.URLParam(r, "id"), pension.Status(strings.ToUpper(req.Status)))
	if err != nil {
		writeServiceError(w, "Failed to update status", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseFileDTO(cf))
}

// CalculatePension runs the engine on the case file.
// POST /api/dossiers/{id}/calculate-pension
func (h *Handler) CalculatePension(w http.ResponseWriter, r *http.Request) {
	result, err := h.Services.CaseFiles.ComputePension(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to calculate pension", err)
		return
	}
	writeJSON(w, http.StatusOK, NewPensionDTO(result))
}

// =============================================================================
// OWNER-SCOPED CASE FILE HANDLERS
// =============================================================================

// ListMyCaseFiles returns the caller's case files.
// GET /api/me/dossiers
func (h *Handler) ListMyCaseFiles(w http.ResponseWriter, r *http.Request) {
	cfs, err := h.Services.CaseFiles.ListOwned(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeServiceError(w, "Failed to list case files", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseFileDTOs(cfs))
}

// CreateMyCaseFile opens a cotisation case file owned by the caller.
// POST /api/me/dossiers
func (h *Handler) CreateMyCaseFile(w http.ResponseWriter, r *http.Request) {
	var req CreateCaseFileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Kind = string(pension.KindCotisation)
	req.OwnerID = userFrom(r.Context())
	h.createCaseFile(w, r, req)
}

// GetMyCaseFile returns one of the caller's case files.
// GET /api/me/dossiers/{id}
func (h *Handler) GetMyCaseFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if _, err := h.Services.CaseFiles.GetOwned(ctx, userFrom(ctx), id); err != nil {
		writeServiceError(w, "Failed to get case file", err)
		return
	}
	cf, err := h.Services.CaseFiles.LoadAggregate(ctx, id)
	if err != nil {
		writeServiceError(w, "Failed to get case file", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseFileDTO(cf))
}

// SubmitMyCaseFile submits a draft for review.
// PATCH /api/me/dossiers/{id}/submission
func (h *Handler) SubmitMyCaseFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cf, err := h.Services.CaseFiles.Submit(ctx, userFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to submit case file", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseFileDTO(cf))
}

// ValidateMyCaseFile validates a case file under review and caches its
// pension.
// PATCH /api/me/dossiers/{id}/validation
func (h *Handler) ValidateMyCaseFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cf, err := h.Services.CaseFiles.Validate(ctx, userFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to validate case file", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseFileDTO(cf))
}

// =============================================================================
// CAREER HANDLERS
// =============================================================================

// ListCaseFileCareers returns the segments of a career case file.
// GET /api/dossiers/{id}/careers
func (h *Handler) ListCaseFileCareers(w http.ResponseWriter, r *http.Request) {
	segs, err := h.Services.Careers.ListByCaseFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to list careers", err)
		return
	}
	writeJSON(w, http.StatusOK, toCareerDTOs(segs))
}

// AddCareer attaches a segment to a career case file.
// POST /api/dossiers/{id}/careers
func (h *Handler) AddCareer(w http.ResponseWriter, r *http.Request) {
	var req CareerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	seg, err := req.toDomain()
	if err != nil {
		writeServiceError(w, "Invalid career", err)
		return
	}

	seg, err = h.Services.Careers.Add(r.Context(), chi.URLParam(r, "id"), seg)
	if err != nil {
		writeServiceError(w, "Failed to add career", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCareerDTO(seg))
}

// SearchCareers lists segments across case files.
// GET /api/careers?employer=&regime=
func (h *Handler) SearchCareers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	segs, err := h.Services.Careers.Search(r.Context(), q.Get("employer"), pension.CareerRegime(strings.ToUpper(q.Get("regime"))))
	if err != nil {
		writeServiceError(w, "Failed to search careers", err)
		return
	}
	writeJSON(w, http.StatusOK, toCareerDTOs(segs))
}

// GetCareer returns one segment.
// GET /api/careers/{id}
func (h *Handler) GetCareer(w http.ResponseWriter, r *http.Request) {
	seg, err := h.Services.Careers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get career", err)
		return
	}
	writeJSON(w, http.StatusOK, toCareerDTO(seg))
}

// UpdateCareer replaces a segment.
// PUT /api/careers/{id}
func (h *Handler) UpdateCareer(w http.ResponseWriter, r *http.Request) {
	var req CareerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	seg, err := req.toDomain()
	if err != nil {
		writeServiceError(w, "Invalid career", err)
		return
	}
	seg.ID = chi.URLParam(r, "id")

	seg, err = h.Services.Careers.Update(r.Context(), seg)
	if err != nil {
		writeServiceError(w, "Failed to update career", err)
		return
	}
	writeJSON(w, http.StatusOK, toCareerDTO(seg))
}

// DeleteCareer removes a segment.
// DELETE /api/careers/{id}
func (h *Handler) DeleteCareer(w http.ResponseWriter, r *http.Request) {
	if err := h.Services.Careers.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to delete career", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// COTISATION PERIOD HANDLERS
// =============================================================================

// ListCaseFilePeriods returns the periods of a cotisation case file.
// GET /api/dossiers/{id}/periods
func (h *Handler) ListCaseFilePeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Services.Periods.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to list periods", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTOs(periods))
}

// AddPeriod attaches a cotisation period.
// POST /api/dossiers/{id}/periods
func (h *Handler) AddPeriod(w http.ResponseWriter, r *http.Request) {
	var req PeriodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := req.toDomain()
	if err != nil {
		writeServiceError(w, "Invalid period", err)
		return
	}

	p, err = h.Services.Periods.Add(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeServiceError(w, "Failed to add period", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodDTO(p))
}

// DeletePeriod removes a cotisation period.
// DELETE /api/periods/{id}
func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	if err := h.Services.Periods.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to delete period", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListCaseFilePayments returns the payments of a case file.
// GET /api/dossiers/{id}/payments
func (h *Handler) ListCaseFilePayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Services.Payments.ListByCaseFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to list payments", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

// CreatePayment orders a payment.
// POST /api/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := dossier.CreatePaymentInput{
		CaseFileID: req.CaseFileID,
		Amount:     req.Amount,
		IBAN:       req.IBAN,
		Type:       pension.PaymentType(strings.ToUpper(req.Type)),
	}
	if req.Period != "" {
		period, err := pension.ParseYearMonth(req.Period)
		if err != nil {
			writeServiceError(w, "Invalid period", err)
			return
		}
		in.Period = period
	}

	p, err := h.Services.Payments.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, "Failed to create payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(p))
}

// UpdatePaymentStatus records the outcome of a transfer.
// PUT /api/payments/{id}/status
func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.Services.Payments.UpdateStatus(r.Context(), chi.URLParam(r, "id"), pension.PaymentStatus(strings.ToUpper(req.Status)))
	if err != nil {
		writeServiceError(w, "Failed to update payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(p))
}

// =============================================================================
// DOCUMENT HANDLERS
// =============================================================================

// ListCaseFileDocuments returns document metadata of a case file.
// GET /api/dossiers/{id}/documents
func (h *Handler) ListCaseFileDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Services.Documents.ListByCaseFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTOs(docs))
}

// UploadDocument attaches a multipart file ("file", "description").
// POST /api/dossiers/{id}/documents
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	maxSize := h.Services.Documents.MaxSize()
	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file", err)
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the service to reject it.
	content, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file", err)
		return
	}

	doc, err := h.Services.Documents.Upload(r.Context(), dossier.UploadInput{
		CaseFileID:  chi.URLParam(r, "id"),
		FileName:    header.Filename,
		MimeType:    header.Header.Get("Content-Type"),
		Description: r.FormValue("description"),
		Content:     content,
	})
	if err != nil {
		writeServiceError(w, "Failed to upload document", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentDTO(doc))
}

// ListDocuments returns all document metadata.
// GET /api/documents
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Services.Documents.List(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTOs(docs))
}

// GetDocument returns document metadata.
// GET /api/documents/{id}
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Services.Documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get document", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// DownloadDocument streams the stored bytes as an attachment.
// GET /api/documents/{id}/download
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Services.Documents.Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to download document", err)
		return
	}

	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Content); err != nil {
		log.Printf("[API] Error writing document %s: %v", doc.ID, err)
	}
}

// UpdateDocument changes the description.
// PUT /api/documents/{id}
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req UpdateDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	doc, err := h.Services.Documents.UpdateDescription(r.Context(), chi.URLParam(r, "id"), req.Description)
	if err != nil {
		writeServiceError(w, "Failed to update document", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// DeleteDocument removes a document.
// DELETE /api/documents/{id}
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.Services.Documents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// STATISTICS HANDLERS
// =============================================================================

// GetStatistics returns the snapshot of ?period=MM/YYYY, or the global sum
// when no period is given.
// GET /api/statistics
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		stats, err := h.Services.Statistics.Global(r.Context())
		if err != nil {
			writeServiceError(w, "Failed to get statistics", err)
			return
		}
		writeJSON(w, http.StatusOK, NewStatisticsDTO(stats))
		return
	}

	period, err := pension.ParseYearMonth(raw)
	if err != nil {
		writeServiceError(w, "Invalid period", err)
		return
	}
	stats, err := h.Services.Statistics.Get(r.Context(), period)
	if err != nil {
		writeServiceError(w, "Failed to get statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, NewStatisticsDTO(stats))
}

// ListStatistics returns every recorded snapshot.
// GET /api/statistics/history
func (h *Handler) ListStatistics(w http.ResponseWriter, r *http.Request) {
	all, err := h.Services.Statistics.List(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to list statistics", err)
		return
	}
	dtos := make([]StatisticsDTO, len(all))
	for i, s := range all {
		dtos[i] = NewStatisticsDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CalculateStatistics records the snapshot of ?period=MM/YYYY.
// POST /api/statistics/calculate
func (h *Handler) CalculateStatistics(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Missing period (use MM/YYYY)", nil)
		return
	}
	period, err := pension.ParseYearMonth(raw)
	if err != nil {
		writeServiceError(w, "Invalid period", err)
		return
	}

	stats, err := h.Services.Statistics.Record(r.Context(), period)
	if err != nil {
		writeServiceError(w, "Failed to calculate statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, NewStatisticsDTO(stats))
}

// =============================================================================
// REPORTING HANDLERS
// =============================================================================

// GetDashboard returns the administration overview.
// GET /api/reporting/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Services.Reporting.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(d))
}

// GetMonthly returns case-file creations over the last twelve months.
// GET /api/reporting/monthly
func (h *Handler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	months, err := h.Services.Reporting.Monthly(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to build monthly report", err)
		return
	}
	dtos := make([]MonthlyCountDTO, len(months))
	for i, m := range months {
		dtos[i] = MonthlyCountDTO{Month: m.Month.Display(), Count: m.Count}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetActivity returns the latest case-file creations and uploads.
// GET /api/reporting/activity
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	activities, err := h.Services.Reporting.RecentActivity(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to build activity feed", err)
		return
	}
	dtos := make([]ActivityDTO, len(activities))
	for i, a := range activities {
		dtos[i] = ActivityDTO{
			Type:        string(a.Type),
			Description: a.Description,
			At:          a.At.Format(time.RFC3339),
			EntityID:    a.EntityID,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[API] Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps a service error to its status code.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("[API] %s: %v", message, err)
	}
	writeError(w, status, message, err)
}

func statusForError(err error) int {
	switch {
	case pension.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, pension.ErrForbidden):
		return http.StatusForbidden
	case pension.IsConflict(err):
		return http.StatusConflict
	case pension.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes the JSON body into dst, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}
