package dossier

import (
	"context"
	"strings"

	"github.com/warp/pension-engine/pension"
)

// CareerService manages the career segments of career case files.
type CareerService struct {
	store pension.Store
}

// Add attaches a segment to a career case file.
func (s *CareerService) Add(ctx context.Context, caseFileID string, seg pension.CareerSegment) (pension.CareerSegment, error) {
	if _, err := requireKind(ctx, s.store, caseFileID, pension.KindCareer); err != nil {
		return pension.CareerSegment{}, err
	}
	seg.ID = newID()
	seg.CaseFileID = caseFileID
	seg.Employer = strings.TrimSpace(seg.Employer)
	seg.Position = strings.TrimSpace(seg.Position)
	if err := pension.ValidateCareerSegment(seg); err != nil {
		return pension.CareerSegment{}, err
	}
	if err := s.store.SaveCareer(ctx, seg); err != nil {
		return pension.CareerSegment{}, err
	}
	return seg, nil
}

func (s *CareerService) Get(ctx context.Context, id string) (pension.CareerSegment, error) {
	return s.store.GetCareer(ctx, id)
}

// ListByCaseFile returns the segments of one case file.
func (s *CareerService) ListByCaseFile(ctx context.Context, caseFileID string) ([]pension.CareerSegment, error) {
	if _, err := requireKind(ctx, s.store, caseFileID, pension.KindCareer); err != nil {
		return nil, err
	}
	return s.store.ListCareers(ctx, pension.CareerFilter{CaseFileID: caseFileID})
}

// Search lists segments across case files, by employer substring and regime.
func (s *CareerService) Search(ctx context.Context, employer string, regime pension.CareerRegime) ([]pension.CareerSegment, error) {
	if regime != "" && !regime.Valid() {
		return nil, &pension.ValidationError{Field: "regime", Reason: "unknown regime " + string(regime)}
	}
	return s.store.ListCareers(ctx, pension.CareerFilter{Employer: strings.TrimSpace(employer), Regime: regime})
}

// Update replaces the segment fields. The owning case file cannot change.
func (s *CareerService) Update(ctx context.Context, seg pension.CareerSegment) (pension.CareerSegment, error) {
	existing, err := s.store.GetCareer(ctx, seg.ID)
	if err != nil {
		return pension.CareerSegment{}, err
	}
	seg.CaseFileID = existing.CaseFileID
	seg.Employer = strings.TrimSpace(seg.Employer)
	seg.Position = strings.TrimSpace(seg.Position)
	if err := pension.ValidateCareerSegment(seg); err != nil {
		return pension.CareerSegment{}, err
	}
	if err := s.store.SaveCareer(ctx, seg); err != nil {
		return pension.CareerSegment{}, err
	}
	return seg, nil
}

func (s *CareerService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteCareer(ctx, id)
}
