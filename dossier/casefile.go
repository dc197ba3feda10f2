package dossier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/warp/pension-engine/pension"
)

// =============================================================================
// CASE FILE SERVICE
// =============================================================================

// CaseFileService manages case files, their status and their pension.
type CaseFileService struct {
	store  pension.Store
	engine *pension.Engine
	clock  Clock
}

// CreateCaseFileInput carries the fields a caller sets on creation.
type CreateCaseFileInput struct {
	Kind                 pension.Kind
	OwnerID              string
	SocialSecurityNumber string
	Beneficiary          pension.Beneficiary
}

// BeneficiaryUpdate patches beneficiary fields; nil fields are kept.
type BeneficiaryUpdate struct {
	LastName  *string
	FirstName *string
	BirthDate *time.Time
	Address   *string
	Email     *string
	Phone     *string
}

// UpdateCaseFileInput is a partial update. Status goes through the status
// machine.
type UpdateCaseFileInput struct {
	ID                   string
	SocialSecurityNumber *string
	Beneficiary          BeneficiaryUpdate
	Status               *pension.Status
}

// Create stores a new case file. Career case files start IN_PROGRESS;
// cotisation case files start DRAFT, filed today, and need an owner.
func (s *CaseFileService) Create(ctx context.Context, in CreateCaseFileInput) (pension.CaseFile, error) {
	now := s.clock.Now()
	id := newID()
	cf := pension.CaseFile{
		ID:                   id,
		Reference:            reference(now, id),
		Kind:                 in.Kind,
		Status:               pension.InitialStatus(in.Kind),
		OwnerID:              strings.TrimSpace(in.OwnerID),
		SocialSecurityNumber: strings.TrimSpace(in.SocialSecurityNumber),
		Beneficiary:          in.Beneficiary,
		CreatedAt:            now,
	}
	if in.Kind == pension.KindCotisation {
		filed := pension.Today(now)
		cf.FiledAt = &filed
	}
	if err := pension.ValidateCaseFile(cf); err != nil {
		return pension.CaseFile{}, err
	}
	if err := s.store.SaveCaseFile(ctx, cf); err != nil {
		return pension.CaseFile{}, fmt.Errorf("save case file: %w", err)
	}
	return cf, nil
}

// reference builds the human-readable case-file number, e.g.
// DOS-2025-1F3A9C2B.
func reference(now time.Time, id string) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("DOS-%d-%s", now.Year(), short)
}

func (s *CaseFileService) Get(ctx context.Context, id string) (pension.CaseFile, error) {
	return s.store.GetCaseFile(ctx, id)
}

// GetOwned returns the case file if subject owns it.
func (s *CaseFileService) GetOwned(ctx context.Context, subject, id string) (pension.CaseFile, error) {
	cf, err := s.store.GetCaseFile(ctx, id)
	if err != nil {
		return pension.CaseFile{}, err
	}
	if !cf.OwnedBy(subject) {
		return pension.CaseFile{}, fmt.Errorf("case file %s: %w", id, pension.ErrForbidden)
	}
	return cf, nil
}

func (s *CaseFileService) List(ctx context.Context, filter pension.CaseFileFilter) ([]pension.CaseFile, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &pension.ValidationError{Field: "status", Reason: "unknown status " + string(filter.Status)}
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, &pension.ValidationError{Field: "kind", Reason: "unknown kind " + string(filter.Kind)}
	}
	return s.store.ListCaseFiles(ctx, filter)
}

// ListOwned lists the case files of subject.
func (s *CaseFileService) ListOwned(ctx context.Context, subject string) ([]pension.CaseFile, error) {
	if subject == "" {
		return nil, pension.ErrForbidden
	}
	return s.store.ListCaseFiles(ctx, pension.CaseFileFilter{OwnerID: subject})
}

// Update applies a partial update.
func (s *CaseFileService) Update(ctx context.Context, in UpdateCaseFileInput) (pension.CaseFile, error) {
	cf, err := s.store.GetCaseFile(ctx, in.ID)
	if err != nil {
		return pension.CaseFile{}, err
	}

	if in.SocialSecurityNumber != nil {
		cf.SocialSecurityNumber = strings.TrimSpace(*in.SocialSecurityNumber)
	}
	applyBeneficiary(&cf.Beneficiary, in.Beneficiary)
	if in.Status != nil {
		if err := pension.Transition(&cf, *in.Status, s.clock.Now()); err != nil {
			return pension.CaseFile{}, err
		}
		if cf.Status == pension.StatusValidated {
			if err := s.cachePension(ctx, &cf); err != nil {
				return pension.CaseFile{}, err
			}
		}
	}

	if err := pension.ValidateCaseFile(cf); err != nil {
		return pension.CaseFile{}, err
	}
	if err := s.store.SaveCaseFile(ctx, cf); err != nil {
		return pension.CaseFile{}, fmt.Errorf("save case file: %w", err)
	}
	return cf, nil
}

func applyBeneficiary(b *pension.Beneficiary, u BeneficiaryUpdate) {
	if u.LastName != nil {
		b.LastName = *u.LastName
	}
	if u.FirstName != nil {
		b.FirstName = *u.FirstName
	}
	if u.BirthDate != nil {
		d := *u.BirthDate
		b.BirthDate = &d
	}
	if u.Address != nil {
		b.Address = *u.Address
	}
	if u.Email != nil {
		b.Email = *u.Email
	}
	if u.Phone != nil {
		b.Phone = *u.Phone
	}
}

// UpdateStatus moves the case file through the status machine.
func (s *CaseFileService) UpdateStatus(ctx context.Context, id string, next pension.Status) (pension.CaseFile, error) {
	return s.Update(ctx, UpdateCaseFileInput{ID: id, Status: &next})
}

// Submit hands a DRAFT case file over for processing.
func (s *CaseFileService) Submit(ctx context.Context, subject, id string) (pension.CaseFile, error) {
	cf, err := s.GetOwned(ctx, subject, id)
	if err != nil {
		return pension.CaseFile{}, err
	}
	if cf.Status != pension.StatusDraft {
		return pension.CaseFile{}, &pension.TransitionError{From: cf.Status, To: pension.StatusInProgress}
	}
	if err := pension.Transition(&cf, pension.StatusInProgress, s.clock.Now()); err != nil {
		return pension.CaseFile{}, err
	}
	if err := s.store.SaveCaseFile(ctx, cf); err != nil {
		return pension.CaseFile{}, fmt.Errorf("save case file: %w", err)
	}
	return cf, nil
}

// Validate marks an IN_PROGRESS case file VALIDATED and caches its pension.
func (s *CaseFileService) Validate(ctx context.Context, subject, id string) (pension.CaseFile, error) {
	cf, err := s.GetOwned(ctx, subject, id)
	if err != nil {
		return pension.CaseFile{}, err
	}
	if cf.Status != pension.StatusInProgress {
		return pension.CaseFile{}, &pension.TransitionError{From: cf.Status, To: pension.StatusValidated}
	}
	if err := pension.Transition(&cf, pension.StatusValidated, s.clock.Now()); err != nil {
		return pension.CaseFile{}, err
	}

	if err := s.cachePension(ctx, &cf); err != nil {
		return pension.CaseFile{}, err
	}

	if err := s.store.SaveCaseFile(ctx, cf); err != nil {
		return pension.CaseFile{}, fmt.Errorf("save case file: %w", err)
	}
	return cf, nil
}

// Delete removes the case file and everything it owns.
func (s *CaseFileService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteCaseFile(ctx, id)
}

// LoadAggregate returns the case file with the records its strategy reads.
func (s *CaseFileService) LoadAggregate(ctx context.Context, id string) (pension.CaseFile, error) {
	cf, err := s.store.GetCaseFile(ctx, id)
	if err != nil {
		return pension.CaseFile{}, err
	}
	return s.loadRecords(ctx, cf)
}

func (s *CaseFileService) loadRecords(ctx context.Context, cf pension.CaseFile) (pension.CaseFile, error) {
	switch cf.Kind {
	case pension.KindCareer:
		careers, err := s.store.ListCareers(ctx, pension.CareerFilter{CaseFileID: cf.ID})
		if err != nil {
			return pension.CaseFile{}, fmt.Errorf("load careers: %w", err)
		}
		cf.Careers = careers
	case pension.KindCotisation:
		periods, err := s.store.ListPeriods(ctx, cf.ID)
		if err != nil {
			return pension.CaseFile{}, fmt.Errorf("load periods: %w", err)
		}
		cf.Periods = periods
	}
	return cf, nil
}

func (s *CaseFileService) compute(ctx context.Context, cf pension.CaseFile) (pension.Result, error) {
	loaded, err := s.loadRecords(ctx, cf)
	if err != nil {
		return pension.Result{}, err
	}
	return s.engine.Compute(loaded)
}

// cachePension stores the computed pension on a cotisation case file.
// Career case files always recompute.
func (s *CaseFileService) cachePension(ctx context.Context, cf *pension.CaseFile) error {
	if cf.Kind != pension.KindCotisation {
		return nil
	}
	result, err := s.compute(ctx, *cf)
	if err != nil {
		return err
	}
	amount := result.Amount
	cf.CachedPension = &amount
	return nil
}

// ComputePension runs the engine on the case file. A validated cotisation
// case file gets its cached pension refreshed.
func (s *CaseFileService) ComputePension(ctx context.Context, id string) (pension.Result, error) {
	cf, err := s.store.GetCaseFile(ctx, id)
	if err != nil {
		return pension.Result{}, err
	}
	result, err := s.compute(ctx, cf)
	if err != nil {
		return pension.Result{}, err
	}

	if cf.Kind == pension.KindCotisation && cf.Status == pension.StatusValidated {
		if cf.CachedPension == nil || !cf.CachedPension.Equal(result.Amount) {
			amount := result.Amount
			cf.CachedPension = &amount
			if err := s.store.SaveCaseFile(ctx, cf); err != nil {
				return pension.Result{}, fmt.Errorf("cache pension: %w", err)
			}
		}
	}
	return result, nil
}
