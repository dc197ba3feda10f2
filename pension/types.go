/*
Package pension provides the core of the retirement case-file engine.

PURPOSE:
  This package holds the domain types shared by every layer (case files,
  career segments, cotisation periods, payments, documents, statistics)
  and the pure algorithms that operate on them: pension calculation,
  status transitions, payment statistics and dashboard aggregation.
  Nothing in here touches HTTP or SQL.

KEY CONCEPTS IN THIS FILE (types.go):
  - CaseFile: a beneficiary's retirement application ("dossier")
  - Kind: selects the calculation strategy for a case file
  - CareerSegment: employment history entry credited in quarters
  - CotisationPeriod: contiguous span of salaried contribution
  - Payment / PaymentStatistics: disbursements and their monthly snapshot
  - Document: supporting file attached to a case file

ONE ENTITY, TWO STRATEGIES:
  Case files used to come in two shapes (career-based and
  cotisation-based) with different pension formulas. They are now a single
  CaseFile with a Kind tag. The Kind decides which owned collection is
  meaningful (Careers or Periods) and which Strategy computes the pension.

PRECISION:
  All money and rates use decimal.Decimal. Never float64.

SEE ALSO:
  - strategy.go: pension calculation strategies
  - status.go: case-file status machine
  - store.go: persistence interfaces
*/
package pension

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CASE FILE
// =============================================================================

// Kind selects the calculation strategy of a case file.
type Kind string

const (
	// KindCareer case files carry career segments credited in validated
	// quarters and use the quarter-rate strategy.
	KindCareer Kind = "career"

	// KindCotisation case files carry cotisation periods, belong to a user
	// and use the cotisation-period strategy.
	KindCotisation Kind = "cotisation"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindCareer || k == KindCotisation
}

// Status is the lifecycle state of a case file.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusInProgress Status = "IN_PROGRESS"
	StatusValidated  Status = "VALIDATED"
	StatusRejected   Status = "REJECTED"
)

// AllStatuses lists statuses in lifecycle order.
var AllStatuses = []Status{StatusDraft, StatusInProgress, StatusValidated, StatusRejected}

func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Beneficiary is the person a case file is filed for.
type Beneficiary struct {
	LastName  string
	FirstName string
	BirthDate *time.Time
	Address   string
	Email     string
	Phone     string
}

// FullName returns "First Last", trimmed.
func (b Beneficiary) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

// CaseFile is a beneficiary's retirement application.
//
// A case file exclusively owns its career segments and cotisation periods;
// deleting it deletes them. Careers and Periods are only populated when the
// aggregate is loaded for calculation.
type CaseFile struct {
	ID        string
	Reference string
	Kind      Kind
	Status    Status

	// OwnerID is the subject of the user who owns the file. Empty for
	// unscoped case files.
	OwnerID string

	SocialSecurityNumber string
	Beneficiary          Beneficiary

	CreatedAt   time.Time
	FiledAt     *time.Time
	ValidatedAt *time.Time

	// CachedPension is persisted when a cotisation case file is validated.
	CachedPension *decimal.Decimal

	Careers []CareerSegment
	Periods []CotisationPeriod
}

// OwnedBy reports whether the case file may be accessed by subject.
// Unscoped case files are not owned by anyone.
func (c CaseFile) OwnedBy(subject string) bool {
	return c.OwnerID != "" && c.OwnerID == subject
}

// =============================================================================
// CAREER SEGMENT
// =============================================================================

// CareerRegime is the pension scheme a career segment contributed to.
type CareerRegime string

const (
	RegimeGeneral       CareerRegime = "GENERAL"
	RegimePublicService CareerRegime = "FONCTION_PUBLIQUE"
	RegimeAgricultural  CareerRegime = "AGRICOLE"
	RegimeLiberal       CareerRegime = "LIBERAL"
	RegimeComplementary CareerRegime = "COMPLEMENTAIRE"
)

func (r CareerRegime) Valid() bool {
	switch r {
	case RegimeGeneral, RegimePublicService, RegimeAgricultural, RegimeLiberal, RegimeComplementary:
		return true
	}
	return false
}

// CareerSegment is one employment entry of a career case file.
type CareerSegment struct {
	ID                string
	CaseFileID        string
	Employer          string
	Position          string
	StartDate         time.Time
	EndDate           *time.Time // nil while the segment is still in progress
	AverageSalary     decimal.Decimal
	Regime            CareerRegime
	ValidatedQuarters int
}

// ContributionYears is the difference of calendar years between start and
// end. Open segments count zero.
func (s CareerSegment) ContributionYears() int {
	if s.EndDate == nil {
		return 0
	}
	return s.EndDate.Year() - s.StartDate.Year()
}

// =============================================================================
// COTISATION PERIOD
// =============================================================================

// CotisationRegime is the sector a cotisation period was paid in.
type CotisationRegime string

const (
	CotisationPublic  CotisationRegime = "PUBLIC"
	CotisationPrivate CotisationRegime = "PRIVE"
	CotisationMixed   CotisationRegime = "MIXTE"
)

func (r CotisationRegime) Valid() bool {
	return r == CotisationPublic || r == CotisationPrivate || r == CotisationMixed
}

// CotisationPeriod is a closed span of salaried contribution.
type CotisationPeriod struct {
	ID                string
	CaseFileID        string
	StartDate         time.Time
	EndDate           time.Time
	ContributedSalary decimal.Decimal
	Regime            CotisationRegime
}

// =============================================================================
// PAYMENT
// =============================================================================

// PaymentStatus is the transfer state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentCompleted || s == PaymentFailed
}

// PaymentType classifies a disbursement.
type PaymentType string

const (
	PaymentPension    PaymentType = "PENSION"
	PaymentAllowance  PaymentType = "ALLOCATION"
	PaymentSupplement PaymentType = "SUPPLEMENT"
)

func (t PaymentType) Valid() bool {
	return t == PaymentPension || t == PaymentAllowance || t == PaymentSupplement
}

// Payment is a single disbursement. CaseFileID is empty once the case file
// it was paid for has been deleted.
type Payment struct {
	ID           string
	CaseFileID   string
	Amount       decimal.Decimal
	TransferDate time.Time
	IBAN         string
	Period       YearMonth
	Type         PaymentType
	Status       PaymentStatus
}

// PaymentStatistics is the persisted snapshot of one month of payments.
type PaymentStatistics struct {
	Period         YearMonth
	TotalDisbursed decimal.Decimal
	// FileCount is the number of payments aggregated. One pension payment is
	// made per case file and month, so it doubles as the number of files paid.
	FileCount  int
	Average    decimal.Decimal
	RecordedAt time.Time
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is a supporting file attached to a case file. Content is only
// loaded when the document is downloaded.
type Document struct {
	ID          string
	CaseFileID  string
	Name        string
	FileName    string
	MimeType    string
	Size        int64
	Description string
	UploadedAt  time.Time
	Content     []byte
}

// Extension returns the lower-case file extension without the dot.
func (d Document) Extension() string {
	name := d.FileName
	if name == "" {
		name = d.Name
	}
	ext := filepath.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func (d Document) IsPDF() bool { return d.Extension() == "pdf" }

func (d Document) IsImage() bool {
	switch d.Extension() {
	case "jpg", "jpeg", "png", "gif":
		return true
	}
	return false
}

func (d Document) IsWord() bool {
	ext := d.Extension()
	return ext == "doc" || ext == "docx"
}
