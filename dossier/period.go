package dossier

import (
	"context"

	"github.com/warp/pension-engine/pension"
)

// PeriodService manages the cotisation periods of cotisation case files.
type PeriodService struct {
	store pension.Store
}

func (s *PeriodService) Add(ctx context.Context, caseFileID string, p pension.CotisationPeriod) (pension.CotisationPeriod, error) {
	if _, err := requireKind(ctx, s.store, caseFileID, pension.KindCotisation); err != nil {
		return pension.CotisationPeriod{}, err
	}
	p.ID = newID()
	p.CaseFileID = caseFileID
	if err := pension.ValidateCotisationPeriod(p); err != nil {
		return pension.CotisationPeriod{}, err
	}
	if err := s.store.SavePeriod(ctx, p); err != nil {
		return pension.CotisationPeriod{}, err
	}
	return p, nil
}

func (s *PeriodService) Get(ctx context.Context, id string) (pension.CotisationPeriod, error) {
	return s.store.GetPeriod(ctx, id)
}

func (s *PeriodService) List(ctx context.Context, caseFileID string) ([]pension.CotisationPeriod, error) {
	if _, err := requireKind(ctx, s.store, caseFileID, pension.KindCotisation); err != nil {
		return nil, err
	}
	return s.store.ListPeriods(ctx, caseFileID)
}

func (s *PeriodService) Delete(ctx context.Context, id string) error {
	return s.store.DeletePeriod(ctx, id)
}
