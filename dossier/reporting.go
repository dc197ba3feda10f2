package dossier

import (
	"context"

	"github.com/warp/pension-engine/pension"
)

// ReportingService serves the back-office dashboard.
type ReportingService struct {
	store pension.Store
	clock Clock
}

func (s *ReportingService) Dashboard(ctx context.Context) (pension.Dashboard, error) {
	files, err := s.store.ListCaseFiles(ctx, pension.CaseFileFilter{})
	if err != nil {
		return pension.Dashboard{}, err
	}
	careers, err := s.store.ListCareers(ctx, pension.CareerFilter{})
	if err != nil {
		return pension.Dashboard{}, err
	}
	payments, err := s.store.ListPayments(ctx, pension.PaymentFilter{})
	if err != nil {
		return pension.Dashboard{}, err
	}
	docs, err := s.store.ListDocuments(ctx, "")
	if err != nil {
		return pension.Dashboard{}, err
	}
	return pension.BuildDashboard(files, careers, payments, len(docs)), nil
}

// Monthly counts case files created over the last 12 months.
func (s *ReportingService) Monthly(ctx context.Context) ([]pension.MonthlyCount, error) {
	files, err := s.store.ListCaseFiles(ctx, pension.CaseFileFilter{})
	if err != nil {
		return nil, err
	}
	return pension.MonthlyCreations(files, s.clock.Now()), nil
}

func (s *ReportingService) RecentActivity(ctx context.Context) ([]pension.Activity, error) {
	files, err := s.store.ListCaseFiles(ctx, pension.CaseFileFilter{})
	if err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocuments(ctx, "")
	if err != nil {
		return nil, err
	}
	return pension.RecentActivity(files, docs), nil
}
