/*
store.go - Persistence interfaces for case files and related records

PURPOSE:
  Defines the interface between the services and the database. Services
  depend on these interfaces only; implementations live elsewhere.

KEY INTERFACES:
  CaseFileStore:   case files (cascade delete of owned records)
  CareerStore:     career segments
  PeriodStore:     cotisation periods
  PaymentStore:    payments (detached, not deleted, with their case file)
  DocumentStore:   document metadata and content
  StatisticsStore: monthly payment snapshots, one per period
  Store:           all of the above

CONTRACT:
  - Save* upserts by ID (statistics: by period).
  - Get and Delete of a missing record return a *NotFoundError.
  - List* never return nil errors for empty results; an empty slice is fine.
  - List* results are ordered deterministically (see each method).

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - pension/store/memory.go: in-memory for tests and dev

SEE ALSO:
  - dossier/: services using Store
*/
package pension

import "context"

// =============================================================================
// FILTERS
// =============================================================================

// CaseFileFilter restricts ListCaseFiles. Zero fields match everything.
type CaseFileFilter struct {
	Status  Status
	Kind    Kind
	OwnerID string
}

// Matches reports whether cf passes the filter.
func (f CaseFileFilter) Matches(cf CaseFile) bool {
	if f.Status != "" && cf.Status != f.Status {
		return false
	}
	if f.Kind != "" && cf.Kind != f.Kind {
		return false
	}
	if f.OwnerID != "" && cf.OwnerID != f.OwnerID {
		return false
	}
	return true
}

// CareerFilter restricts ListCareers. Employer is a case-insensitive
// substring match.
type CareerFilter struct {
	CaseFileID string
	Employer   string
	Regime     CareerRegime
}

// PaymentFilter restricts ListPayments.
type PaymentFilter struct {
	CaseFileID string
	Period     YearMonth
}

// Matches reports whether p passes the filter.
func (f PaymentFilter) Matches(p Payment) bool {
	if f.CaseFileID != "" && p.CaseFileID != f.CaseFileID {
		return false
	}
	if !f.Period.IsZero() && p.Period != f.Period {
		return false
	}
	return true
}

// =============================================================================
// STORES
// =============================================================================

// CaseFileStore persists case files.
type CaseFileStore interface {
	SaveCaseFile(ctx context.Context, cf CaseFile) error
	// GetCaseFile returns the case file without Careers or Periods loaded.
	GetCaseFile(ctx context.Context, id string) (CaseFile, error)
	// ListCaseFiles orders by CreatedAt, then ID.
	ListCaseFiles(ctx context.Context, filter CaseFileFilter) ([]CaseFile, error)
	// DeleteCaseFile removes the case file with its segments, periods and
	// documents. Its payments are kept with an empty CaseFileID.
	DeleteCaseFile(ctx context.Context, id string) error
}

// CareerStore persists career segments.
type CareerStore interface {
	SaveCareer(ctx context.Context, s CareerSegment) error
	GetCareer(ctx context.Context, id string) (CareerSegment, error)
	// ListCareers orders by StartDate, then ID.
	ListCareers(ctx context.Context, filter CareerFilter) ([]CareerSegment, error)
	DeleteCareer(ctx context.Context, id string) error
}

// PeriodStore persists cotisation periods.
type PeriodStore interface {
	SavePeriod(ctx context.Context, p CotisationPeriod) error
	GetPeriod(ctx context.Context, id string) (CotisationPeriod, error)
	// ListPeriods orders by StartDate, then ID. An empty caseFileID lists all.
	ListPeriods(ctx context.Context, caseFileID string) ([]CotisationPeriod, error)
	DeletePeriod(ctx context.Context, id string) error
}

// PaymentStore persists payments.
type PaymentStore interface {
	SavePayment(ctx context.Context, p Payment) error
	GetPayment(ctx context.Context, id string) (Payment, error)
	// ListPayments orders by TransferDate, then ID.
	ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error)
}

// DocumentStore persists document metadata and content.
type DocumentStore interface {
	// SaveDocument stores metadata and Content.
	SaveDocument(ctx context.Context, d Document) error
	// GetDocument returns metadata only; Content is nil.
	GetDocument(ctx context.Context, id string) (Document, error)
	// GetDocumentContent returns the stored bytes.
	GetDocumentContent(ctx context.Context, id string) ([]byte, error)
	// ListDocuments returns metadata ordered by UploadedAt, then ID. An empty
	// caseFileID lists all.
	ListDocuments(ctx context.Context, caseFileID string) ([]Document, error)
	UpdateDocumentDescription(ctx context.Context, id, description string) error
	DeleteDocument(ctx context.Context, id string) error
}

// StatisticsStore persists monthly payment snapshots.
type StatisticsStore interface {
	// SaveStatistics replaces any snapshot of the same period.
	SaveStatistics(ctx context.Context, s PaymentStatistics) error
	GetStatistics(ctx context.Context, period YearMonth) (PaymentStatistics, error)
	// ListStatistics orders by period.
	ListStatistics(ctx context.Context) ([]PaymentStatistics, error)
}

// Store combines every store the services need.
type Store interface {
	CaseFileStore
	CareerStore
	PeriodStore
	PaymentStore
	DocumentStore
	StatisticsStore
}
