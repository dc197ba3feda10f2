package dossier

import (
	"context"
	"fmt"

	"github.com/warp/pension-engine/pension"
)

// StatisticsService records and serves monthly payment snapshots.
type StatisticsService struct {
	store pension.Store
	clock Clock
}

// Record aggregates the payments of period and persists the snapshot,
// replacing an earlier one.
func (s *StatisticsService) Record(ctx context.Context, period pension.YearMonth) (pension.PaymentStatistics, error) {
	if period.IsZero() {
		return pension.PaymentStatistics{}, &pension.ValidationError{Field: "period", Reason: "required"}
	}
	payments, err := s.store.ListPayments(ctx, pension.PaymentFilter{Period: period})
	if err != nil {
		return pension.PaymentStatistics{}, fmt.Errorf("load payments: %w", err)
	}
	stats := pension.AggregatePayments(period, payments, s.clock.Now())
	if err := s.store.SaveStatistics(ctx, stats); err != nil {
		return pension.PaymentStatistics{}, fmt.Errorf("save statistics: %w", err)
	}
	return stats, nil
}

// EnsureRecorded records period unless a snapshot already exists. It
// reports whether a snapshot was written.
func (s *StatisticsService) EnsureRecorded(ctx context.Context, period pension.YearMonth) (bool, error) {
	_, err := s.store.GetStatistics(ctx, period)
	if err == nil {
		return false, nil
	}
	if !pension.IsNotFound(err) {
		return false, err
	}
	if _, err := s.Record(ctx, period); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the snapshot of period; NotFound when none was recorded.
func (s *StatisticsService) Get(ctx context.Context, period pension.YearMonth) (pension.PaymentStatistics, error) {
	return s.store.GetStatistics(ctx, period)
}

func (s *StatisticsService) List(ctx context.Context) ([]pension.PaymentStatistics, error) {
	return s.store.ListStatistics(ctx)
}

// Global sums every recorded snapshot.
func (s *StatisticsService) Global(ctx context.Context) (pension.PaymentStatistics, error) {
	all, err := s.store.ListStatistics(ctx)
	if err != nil {
		return pension.PaymentStatistics{}, err
	}
	return pension.GlobalStatistics(all), nil
}
