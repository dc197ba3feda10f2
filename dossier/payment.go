package dossier

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/pension-engine/pension"
)

// PaymentService records disbursements.
type PaymentService struct {
	store pension.Store
	clock Clock
}

// CreatePaymentInput describes a payment order. A zero Period defaults to
// the current month; an empty Type to PENSION.
type CreatePaymentInput struct {
	CaseFileID string
	Amount     decimal.Decimal
	IBAN       string
	Period     pension.YearMonth
	Type       pension.PaymentType
}

// Create records a PENDING payment transferred today.
func (s *PaymentService) Create(ctx context.Context, in CreatePaymentInput) (pension.Payment, error) {
	now := s.clock.Now()
	p := pension.Payment{
		ID:           newID(),
		CaseFileID:   in.CaseFileID,
		Amount:       in.Amount,
		TransferDate: pension.Today(now),
		IBAN:         strings.ToUpper(strings.ReplaceAll(in.IBAN, " ", "")),
		Period:       in.Period,
		Type:         in.Type,
		Status:       pension.PaymentPending,
	}
	if p.Period.IsZero() {
		p.Period = pension.YearMonthOf(now)
	}
	if p.Type == "" {
		p.Type = pension.PaymentPension
	}
	if err := pension.ValidatePayment(p); err != nil {
		return pension.Payment{}, err
	}
	if p.CaseFileID != "" {
		if _, err := s.store.GetCaseFile(ctx, p.CaseFileID); err != nil {
			return pension.Payment{}, err
		}
	}
	if err := s.store.SavePayment(ctx, p); err != nil {
		return pension.Payment{}, err
	}
	return p, nil
}

func (s *PaymentService) Get(ctx context.Context, id string) (pension.Payment, error) {
	return s.store.GetPayment(ctx, id)
}

func (s *PaymentService) ListByCaseFile(ctx context.Context, caseFileID string) ([]pension.Payment, error) {
	if _, err := s.store.GetCaseFile(ctx, caseFileID); err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx, pension.PaymentFilter{CaseFileID: caseFileID})
}

func (s *PaymentService) ListByPeriod(ctx context.Context, period pension.YearMonth) ([]pension.Payment, error) {
	return s.store.ListPayments(ctx, pension.PaymentFilter{Period: period})
}

// UpdateStatus records the outcome of a transfer.
func (s *PaymentService) UpdateStatus(ctx context.Context, id string, status pension.PaymentStatus) (pension.Payment, error) {
	if !status.Valid() {
		return pension.Payment{}, &pension.ValidationError{Field: "status", Reason: "unknown payment status " + string(status)}
	}
	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return pension.Payment{}, err
	}
	p.Status = status
	if err := s.store.SavePayment(ctx, p); err != nil {
		return pension.Payment{}, err
	}
	return p, nil
}
