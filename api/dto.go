/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model in pension/ from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

FORMATS:
  - Dates:      YYYY-MM-DD
  - Timestamps: RFC3339
  - Periods:    MM/YYYY
  - Money:      decimal strings ("1250.50"), except the rounded pension view

VALIDATION:
  Validation is done by the dossier services, not in DTOs. DTOs are pure
  data carriers; conversion errors (bad dates, bad periods) are reported
  as 400 by the handlers.

SEE ALSO:
  - handlers.go: Uses these types
  - pension/types.go: Domain types
*/
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/warp/pension-engine/dossier"
	"github.com/warp/pension-engine/pension"
)

// =============================================================================
// CASE FILES
// =============================================================================

// BeneficiaryDTO represents the person a case file is filed for.
type BeneficiaryDTO struct {
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	BirthDate string `json:"birth_date,omitempty"`
	Address   string `json:"address,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// CaseFileDTO represents a case file in API responses. Careers and Periods
// are only present on single case-file reads.
type CaseFileDTO struct {
	ID                   string           `json:"id"`
	Reference            string           `json:"reference"`
	Kind                 string           `json:"kind"`
	Status               string           `json:"status"`
	OwnerID              string           `json:"owner_id,omitempty"`
	SocialSecurityNumber string           `json:"social_security_number,omitempty"`
	Beneficiary          BeneficiaryDTO   `json:"beneficiary"`
	CreatedAt            string           `json:"created_at"`
	FiledAt              string           `json:"filed_at,omitempty"`
	ValidatedAt          string           `json:"validated_at,omitempty"`
	CachedPension        *decimal.Decimal `json:"cached_pension,omitempty"`
	Careers              []CareerDTO      `json:"careers,omitempty"`
	Periods              []PeriodDTO      `json:"periods,omitempty"`
}

// CreateCaseFileRequest is the request to open a case file. OwnerID is
// ignored on /api/me routes, where the caller owns the file.
type CreateCaseFileRequest struct {
	Kind                 string         `json:"kind"`
	OwnerID              string         `json:"owner_id"`
	SocialSecurityNumber string         `json:"social_security_number"`
	Beneficiary          BeneficiaryDTO `json:"beneficiary"`
}

// BeneficiaryPatch holds the beneficiary fields of a partial update.
type BeneficiaryPatch struct {
	LastName  *string `json:"last_name"`
	FirstName *string `json:"first_name"`
	BirthDate *string `json:"birth_date"`
	Address   *string `json:"address"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

// UpdateCaseFileRequest is a partial update; absent fields are kept.
type UpdateCaseFileRequest struct {
	SocialSecurityNumber *string           `json:"social_security_number"`
	Beneficiary          *BeneficiaryPatch `json:"beneficiary"`
	Status               *string           `json:"status"`
}

// StatusRequest is the request to change a case-file or payment status.
type StatusRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// CAREERS AND PERIODS
// =============================================================================

// CareerDTO represents a career segment in API responses.
type CareerDTO struct {
	ID                string          `json:"id"`
	CaseFileID        string          `json:"case_file_id"`
	Employer          string          `json:"employer"`
	Position          string          `json:"position,omitempty"`
	StartDate         string          `json:"start_date"`
	EndDate           string          `json:"end_date,omitempty"`
	AverageSalary     decimal.Decimal `json:"average_salary"`
	Regime            string          `json:"regime"`
	ValidatedQuarters int             `json:"validated_quarters"`
	ContributionYears int             `json:"contribution_years"`
}

// CareerRequest creates or replaces a career segment.
type CareerRequest struct {
	Employer          string          `json:"employer"`
	Position          string          `json:"position"`
	StartDate         string          `json:"start_date"`
	EndDate           string          `json:"end_date"`
	AverageSalary     decimal.Decimal `json:"average_salary"`
	Regime            string          `json:"regime"`
	ValidatedQuarters int             `json:"validated_quarters"`
}

// PeriodDTO represents a cotisation period in API responses.
type PeriodDTO struct {
	ID                string          `json:"id"`
	CaseFileID        string          `json:"case_file_id"`
	StartDate         string          `json:"start_date"`
	EndDate           string          `json:"end_date"`
	ContributedSalary decimal.Decimal `json:"contributed_salary"`
	Regime            string          `json:"regime"`
}

// PeriodRequest is the request to add a cotisation period.
type PeriodRequest struct {
	StartDate         string          `json:"start_date"`
	EndDate           string          `json:"end_date"`
	ContributedSalary decimal.Decimal `json:"contributed_salary"`
	Regime            string          `json:"regime"`
}

// =============================================================================
// PENSION
// =============================================================================

// PensionDTO is the rounded pension view: whole currency units, rate to
// two decimals.
type PensionDTO struct {
	Strategy string            `json:"strategy"`
	Amount   int64             `json:"amount"`
	Details  PensionDetailsDTO `json:"details"`
	Notes    []string          `json:"notes"`
}

// PensionDetailsDTO is the rounded breakdown of a pension.
type PensionDetailsDTO struct {
	AverageSalary  int64       `json:"average_salary"`
	ValidatedUnits int         `json:"validated_units"`
	Rate           json.Number `json:"rate"`
}

// =============================================================================
// PAYMENTS AND STATISTICS
// =============================================================================

// PaymentDTO represents a payment order.
type PaymentDTO struct {
	ID           string          `json:"id"`
	CaseFileID   string          `json:"case_file_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	TransferDate string          `json:"transfer_date"`
	IBAN         string          `json:"iban"`
	Period       string          `json:"period"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
}

// CreatePaymentRequest orders a payment. Period is MM/YYYY and defaults to
// the current month.
type CreatePaymentRequest struct {
	CaseFileID string          `json:"case_file_id"`
	Amount     decimal.Decimal `json:"amount"`
	IBAN       string          `json:"iban"`
	Period     string          `json:"period"`
	Type       string          `json:"type"`
}

// StatisticsDTO is a monthly snapshot, or the global sum when Period is
// empty.
type StatisticsDTO struct {
	Period         string          `json:"period,omitempty"`
	TotalDisbursed decimal.Decimal `json:"total_disbursed"`
	FileCount      int             `json:"file_count"`
	Average        decimal.Decimal `json:"average"`
	RecordedAt     string          `json:"recorded_at,omitempty"`
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// DocumentDTO represents document metadata. Content is served by the download route.
type DocumentDTO struct {
	ID          string `json:"id"`
	CaseFileID  string `json:"case_file_id"`
	Name        string `json:"name"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	Size        int64  `json:"size"`
	Description string `json:"description,omitempty"`
	UploadedAt  string `json:"uploaded_at"`
	Extension   string `json:"extension"`
	IsPDF       bool   `json:"is_pdf"`
	IsImage     bool   `json:"is_image"`
	IsWord      bool   `json:"is_word"`
}

// UpdateDocumentRequest is the request to change a document description.
type UpdateDocumentRequest struct {
	Description string `json:"description"`
}

// =============================================================================
// REPORTING
// =============================================================================

// DashboardDTO represents the back-office dashboard.
type DashboardDTO struct {
	TotalCaseFiles   int             `json:"total_case_files"`
	ByStatus         map[string]int  `json:"by_status"`
	TotalCareers     int             `json:"total_careers"`
	AverageSalary    decimal.Decimal `json:"average_salary"`
	TotalPayments    int             `json:"total_payments"`
	TotalPaymentsSum decimal.Decimal `json:"total_payments_sum"`
	TotalDocuments   int             `json:"total_documents"`
}

// MonthlyCountDTO is one bar of the monthly creation histogram.
type MonthlyCountDTO struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// ActivityDTO is one entry of the recent-activity feed.
type ActivityDTO struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	At          string `json:"at"`
	EntityID    string `json:"entity_id"`
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func formatDate(t time.Time) string {
	return t.Format(pension.DateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(pension.DateLayout)
}

func formatOptionalTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// parseOptionalDate parses field, returning nil for an empty string.
func parseOptionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := pension.ParseDate(s)
	if err != nil {
		return nil, &pension.ValidationError{Field: field, Reason: "expected YYYY-MM-DD"}
	}
	return &t, nil
}

func parseRequiredDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, &pension.ValidationError{Field: field, Reason: "required"}
	}
	t, err := parseOptionalDate(field, s)
	if err != nil {
		return time.Time{}, err
	}
	return *t, nil
}

func toBeneficiaryDTO(b pension.Beneficiary) BeneficiaryDTO {
	return BeneficiaryDTO{
		LastName:  b.LastName,
		FirstName: b.FirstName,
		BirthDate: formatOptionalDate(b.BirthDate),
		Address:   b.Address,
		Email:     b.Email,
		Phone:     b.Phone,
	}
}

func (b BeneficiaryDTO) toDomain() (pension.Beneficiary, error) {
	birth, err := parseOptionalDate("beneficiary.birth_date", b.BirthDate)
	if err != nil {
		return pension.Beneficiary{}, err
	}
	return pension.Beneficiary{
		LastName:  b.LastName,
		FirstName: b.FirstName,
		BirthDate: birth,
		Address:   b.Address,
		Email:     b.Email,
		Phone:     b.Phone,
	}, nil
}

func (p *BeneficiaryPatch) toDomain() (dossier.BeneficiaryUpdate, error) {
	if p == nil {
		return dossier.BeneficiaryUpdate{}, nil
	}
	u := dossier.BeneficiaryUpdate{
		LastName:  p.LastName,
		FirstName: p.FirstName,
		Address:   p.Address,
		Email:     p.Email,
		Phone:     p.Phone,
	}
	if p.BirthDate != nil {
		birth, err := parseRequiredDate("beneficiary.birth_date", *p.BirthDate)
		if err != nil {
			return dossier.BeneficiaryUpdate{}, err
		}
		u.BirthDate = &birth
	}
	return u, nil
}

func toCaseFileDTO(cf pension.CaseFile) CaseFileDTO {
	dto := CaseFileDTO{
		ID:                   cf.ID,
		Reference:            cf.Reference,
		Kind:                 string(cf.Kind),
		Status:               string(cf.Status),
		OwnerID:              cf.OwnerID,
		SocialSecurityNumber: cf.SocialSecurityNumber,
		Beneficiary:          toBeneficiaryDTO(cf.Beneficiary),
		CreatedAt:            cf.CreatedAt.Format(time.RFC3339),
		FiledAt:              formatOptionalDate(cf.FiledAt),
		ValidatedAt:          formatOptionalTimestamp(cf.ValidatedAt),
		CachedPension:        cf.CachedPension,
	}
	for _, seg := range cf.Careers {
		dto.Careers = append(dto.Careers, toCareerDTO(seg))
	}
	for _, p := range cf.Periods {
		dto.Periods = append(dto.Periods, toPeriodDTO(p))
	}
	return dto
}

func toCaseFileDTOs(cfs []pension.CaseFile) []CaseFileDTO {
	dtos := make([]CaseFileDTO, len(cfs))
	for i, cf := range cfs {
		dtos[i] = toCaseFileDTO(cf)
	}
	return dtos
}

func toCareerDTO(s pension.CareerSegment) CareerDTO {
	return CareerDTO{
		ID:                s.ID,
		CaseFileID:        s.CaseFileID,
		Employer:          s.Employer,
		Position:          s.Position,
		StartDate:         formatDate(s.StartDate),
		EndDate:           formatOptionalDate(s.EndDate),
		AverageSalary:     s.AverageSalary,
		Regime:            string(s.Regime),
		ValidatedQuarters: s.ValidatedQuarters,
		ContributionYears: s.ContributionYears(),
	}
}

func toCareerDTOs(segs []pension.CareerSegment) []CareerDTO {
	dtos := make([]CareerDTO, len(segs))
	for i, s := range segs {
		dtos[i] = toCareerDTO(s)
	}
	return dtos
}

func (r CareerRequest) toDomain() (pension.CareerSegment, error) {
	start, err := parseRequiredDate("start_date", r.StartDate)
	if err != nil {
		return pension.CareerSegment{}, err
	}
	end, err := parseOptionalDate("end_date", r.EndDate)
	if err != nil {
		return pension.CareerSegment{}, err
	}
	return pension.CareerSegment{
		Employer:          r.Employer,
		Position:          r.Position,
		StartDate:         start,
		EndDate:           end,
		AverageSalary:     r.AverageSalary,
		Regime:            pension.CareerRegime(r.Regime),
		ValidatedQuarters: r.ValidatedQuarters,
	}, nil
}

func toPeriodDTO(p pension.CotisationPeriod) PeriodDTO {
	return PeriodDTO{
		ID:                p.ID,
		CaseFileID:        p.CaseFileID,
		StartDate:         formatDate(p.StartDate),
		EndDate:           formatDate(p.EndDate),
		ContributedSalary: p.ContributedSalary,
		Regime:            string(p.Regime),
	}
}

func toPeriodDTOs(ps []pension.CotisationPeriod) []PeriodDTO {
	dtos := make([]PeriodDTO, len(ps))
	for i, p := range ps {
		dtos[i] = toPeriodDTO(p)
	}
	return dtos
}

func (r PeriodRequest) toDomain() (pension.CotisationPeriod, error) {
	start, err := parseRequiredDate("start_date", r.StartDate)
	if err != nil {
		return pension.CotisationPeriod{}, err
	}
	end, err := parseRequiredDate("end_date", r.EndDate)
	if err != nil {
		return pension.CotisationPeriod{}, err
	}
	return pension.CotisationPeriod{
		StartDate:         start,
		EndDate:           end,
		ContributedSalary: r.ContributedSalary,
		Regime:            pension.CotisationRegime(r.Regime),
	}, nil
}

// PensionRequest is a detached case file used for offline calculation.
type PensionRequest struct {
	Kind    string          `json:"kind"`
	Careers []CareerRequest `json:"careers"`
	Periods []PeriodRequest `json:"periods"`
}

// CaseFile converts r into an unsaved aggregate. Kind defaults to career.
func (r PensionRequest) CaseFile() (pension.CaseFile, error) {
	cf := pension.CaseFile{Kind: pension.Kind(strings.ToLower(r.Kind))}
	if cf.Kind == "" {
		cf.Kind = pension.KindCareer
	}
	for i, c := range r.Careers {
		seg, err := c.toDomain()
		if err != nil {
			return pension.CaseFile{}, fmt.Errorf("careers[%d]: %w", i, err)
		}
		cf.Careers = append(cf.Careers, seg)
	}
	for i, p := range r.Periods {
		period, err := p.toDomain()
		if err != nil {
			return pension.CaseFile{}, fmt.Errorf("periods[%d]: %w", i, err)
		}
		cf.Periods = append(cf.Periods, period)
	}
	return cf, nil
}

// NewPensionDTO renders the rounded view of r. Notes is never null.
func NewPensionDTO(r pension.Result) PensionDTO {
	d := r.Display()
	notes := r.Notes
	if notes == nil {
		notes = []string{}
	}
	return PensionDTO{
		Strategy: r.Strategy,
		Amount:   d.Amount,
		Details: PensionDetailsDTO{
			AverageSalary:  d.AverageSalary,
			ValidatedUnits: d.ValidatedUnits,
			Rate:           json.Number(d.Rate.StringFixed(2)),
		},
		Notes: notes,
	}
}

func toPaymentDTO(p pension.Payment) PaymentDTO {
	return PaymentDTO{
		ID:           p.ID,
		CaseFileID:   p.CaseFileID,
		Amount:       p.Amount,
		TransferDate: formatDate(p.TransferDate),
		IBAN:         p.IBAN,
		Period:       p.Period.Display(),
		Type:         string(p.Type),
		Status:       string(p.Status),
	}
}

func toPaymentDTOs(ps []pension.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, len(ps))
	for i, p := range ps {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos
}

// NewStatisticsDTO renders a snapshot; a zero period is omitted.
func NewStatisticsDTO(s pension.PaymentStatistics) StatisticsDTO {
	dto := StatisticsDTO{
		TotalDisbursed: s.TotalDisbursed,
		FileCount:      s.FileCount,
		Average:        s.Average,
	}
	if !s.Period.IsZero() {
		dto.Period = s.Period.Display()
	}
	if !s.RecordedAt.IsZero() {
		dto.RecordedAt = s.RecordedAt.Format(time.RFC3339)
	}
	return dto
}

func toDocumentDTO(d pension.Document) DocumentDTO {
	return DocumentDTO{
		ID:          d.ID,
		CaseFileID:  d.CaseFileID,
		Name:        d.Name,
		FileName:    d.FileName,
		MimeType:    d.MimeType,
		Size:        d.Size,
		Description: d.Description,
		UploadedAt:  d.UploadedAt.Format(time.RFC3339),
		Extension:   d.Extension(),
		IsPDF:       d.IsPDF(),
		IsImage:     d.IsImage(),
		IsWord:      d.IsWord(),
	}
}

func toDocumentDTOs(ds []pension.Document) []DocumentDTO {
	dtos := make([]DocumentDTO, len(ds))
	for i, d := range ds {
		dtos[i] = toDocumentDTO(d)
	}
	return dtos
}

func toDashboardDTO(d pension.Dashboard) DashboardDTO {
	byStatus := make(map[string]int, len(d.ByStatus))
	for s, n := range d.ByStatus {
		byStatus[string(s)] = n
	}
	return DashboardDTO{
		TotalCaseFiles:   d.TotalCaseFiles,
		ByStatus:         byStatus,
		TotalCareers:     d.TotalCareers,
		AverageSalary:    d.AverageSalary,
		TotalPayments:    d.TotalPayments,
		TotalPaymentsSum: d.TotalPaymentsSum,
		TotalDocuments:   d.TotalDocuments,
	}
}
