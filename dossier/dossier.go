/*
Package dossier holds the use cases of the pension case-file service.

PURPOSE:
  Each service orchestrates a pension.Store and, for calculations, the
  pension.Engine. Services enforce the invariants the store cannot:
  validation, status transitions, case-file kind checks and owner scoping.

SERVICES:
  CaseFileService   - create, update, status machine, owner submission and
                      validation, pension computation
  CareerService     - career segments of career case files
  PeriodService     - cotisation periods of cotisation case files
  PaymentService    - payments and their status
  DocumentService   - supporting documents (upload, download)
  StatisticsService - monthly payment snapshots
  ReportingService  - dashboard aggregations

TIME:
  Every service reads the current time from a Clock so tests can pin it.

SEE ALSO:
  - pension/: domain types, engine and store interfaces
  - api/: HTTP handlers calling these services
*/
package dossier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/warp/pension-engine/pension"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// DefaultMaxDocumentSize is the upload limit when none is configured.
const DefaultMaxDocumentSize int64 = 10 << 20

// Options tunes the services. Zero values select defaults.
type Options struct {
	Clock           Clock
	MaxDocumentSize int64
}

// Services bundles every use case over one store.
type Services struct {
	CaseFiles  *CaseFileService
	Careers    *CareerService
	Periods    *PeriodService
	Payments   *PaymentService
	Documents  *DocumentService
	Statistics *StatisticsService
	Reporting  *ReportingService
}

// New wires all services to store and engine.
func New(store pension.Store, engine *pension.Engine, opts Options) *Services {
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}
	maxSize := opts.MaxDocumentSize
	if maxSize <= 0 {
		maxSize = DefaultMaxDocumentSize
	}

	return &Services{
		CaseFiles:  &CaseFileService{store: store, engine: engine, clock: clock},
		Careers:    &CareerService{store: store},
		Periods:    &PeriodService{store: store},
		Payments:   &PaymentService{store: store, clock: clock},
		Documents:  &DocumentService{store: store, clock: clock, maxSize: maxSize},
		Statistics: &StatisticsService{store: store, clock: clock},
		Reporting:  &ReportingService{store: store, clock: clock},
	}
}

func newID() string {
	return uuid.NewString()
}

// requireKind loads the case file id and checks its kind.
func requireKind(ctx context.Context, store pension.CaseFileStore, id string, kind pension.Kind) (pension.CaseFile, error) {
	cf, err := store.GetCaseFile(ctx, id)
	if err != nil {
		return pension.CaseFile{}, err
	}
	if cf.Kind != kind {
		return pension.CaseFile{}, &pension.KindMismatchError{CaseFileID: id, Expected: kind, Actual: cf.Kind}
	}
	return cf, nil
}
