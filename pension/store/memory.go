// Package store provides an in-memory pension.Store.
package store

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/pension-engine/pension"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is a pension.Store backed by maps.
type Memory struct {
	mu         sync.RWMutex
	caseFiles  map[string]pension.CaseFile
	careers    map[string]pension.CareerSegment
	periods    map[string]pension.CotisationPeriod
	payments   map[string]pension.Payment
	documents  map[string]pension.Document
	statistics map[pension.YearMonth]pension.PaymentStatistics
}

var _ pension.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		caseFiles:  make(map[string]pension.CaseFile),
		careers:    make(map[string]pension.CareerSegment),
		periods:    make(map[string]pension.CotisationPeriod),
		payments:   make(map[string]pension.Payment),
		documents:  make(map[string]pension.Document),
		statistics: make(map[pension.YearMonth]pension.PaymentStatistics),
	}
}

// Reset drops every entity.
func (m *Memory) Reset(_ context.Context) error {
	fresh := NewMemory()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caseFiles = fresh.caseFiles
	m.careers = fresh.careers
	m.periods = fresh.periods
	m.payments = fresh.payments
	m.documents = fresh.documents
	m.statistics = fresh.statistics
	return nil
}

// -----------------------------------------------------------------------------
// Case files
// -----------------------------------------------------------------------------

func (m *Memory) SaveCaseFile(_ context.Context, cf pension.CaseFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cf.Careers = nil
	cf.Periods = nil
	m.caseFiles[cf.ID] = cf
	return nil
}

func (m *Memory) GetCaseFile(_ context.Context, id string) (pension.CaseFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cf, ok := m.caseFiles[id]
	if !ok {
		return pension.CaseFile{}, pension.NotFound("case file", id)
	}
	return cf, nil
}

func (m *Memory) ListCaseFiles(_ context.Context, filter pension.CaseFileFilter) ([]pension.CaseFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pension.CaseFile, 0, len(m.caseFiles))
	for _, cf := range m.caseFiles {
		if filter.Matches(cf) {
			out = append(out, cf)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) DeleteCaseFile(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.caseFiles[id]; !ok {
		return pension.NotFound("case file", id)
	}
	delete(m.caseFiles, id)
	for k, s := range m.careers {
		if s.CaseFileID == id {
			delete(m.careers, k)
		}
	}
	for k, p := range m.periods {
		if p.CaseFileID == id {
			delete(m.periods, k)
		}
	}
	for k, d := range m.documents {
		if d.CaseFileID == id {
			delete(m.documents, k)
		}
	}
	for k, p := range m.payments {
		if p.CaseFileID == id {
			p.CaseFileID = ""
			m.payments[k] = p
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Careers
// -----------------------------------------------------------------------------

func (m *Memory) SaveCareer(_ context.Context, s pension.CareerSegment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.caseFiles[s.CaseFileID]; !ok {
		return pension.NotFound("case file", s.CaseFileID)
	}
	m.careers[s.ID] = s
	return nil
}

func (m *Memory) GetCareer(_ context.Context, id string) (pension.CareerSegment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.careers[id]
	if !ok {
		return pension.CareerSegment{}, pension.NotFound("career", id)
	}
	return s, nil
}

func (m *Memory) ListCareers(_ context.Context, filter pension.CareerFilter) ([]pension.CareerSegment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	employer := strings.ToLower(filter.Employer)
	out := make([]pension.CareerSegment, 0)
	for _, s := range m.careers {
		if filter.CaseFileID != "" && s.CaseFileID != filter.CaseFileID {
			continue
		}
		if filter.Regime != "" && s.Regime != filter.Regime {
			continue
		}
		if employer != "" && !strings.Contains(strings.ToLower(s.Employer), employer) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) DeleteCareer(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.careers[id]; !ok {
		return pension.NotFound("career", id)
	}
	delete(m.careers, id)
	return nil
}

// -----------------------------------------------------------------------------
// Periods
// -----------------------------------------------------------------------------

func (m *Memory) SavePeriod(_ context.Context, p pension.CotisationPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.caseFiles[p.CaseFileID]; !ok {
		return pension.NotFound("case file", p.CaseFileID)
	}
	m.periods[p.ID] = p
	return nil
}

func (m *Memory) GetPeriod(_ context.Context, id string) (pension.CotisationPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.periods[id]
	if !ok {
		return pension.CotisationPeriod{}, pension.NotFound("period", id)
	}
	return p, nil
}

func (m *Memory) ListPeriods(_ context.Context, caseFileID string) ([]pension.CotisationPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pension.CotisationPeriod, 0)
	for _, p := range m.periods {
		if caseFileID == "" || p.CaseFileID == caseFileID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) DeletePeriod(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[id]; !ok {
		return pension.NotFound("period", id)
	}
	delete(m.periods, id)
	return nil
}

// -----------------------------------------------------------------------------
// Payments
// -----------------------------------------------------------------------------

func (m *Memory) SavePayment(_ context.Context, p pension.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CaseFileID != "" {
		if _, ok := m.caseFiles[p.CaseFileID]; !ok {
			return pension.NotFound("case file", p.CaseFileID)
		}
	}
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) GetPayment(_ context.Context, id string) (pension.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return pension.Payment{}, pension.NotFound("payment", id)
	}
	return p, nil
}

func (m *Memory) ListPayments(_ context.Context, filter pension.PaymentFilter) ([]pension.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pension.Payment, 0)
	for _, p := range m.payments {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransferDate.Equal(out[j].TransferDate) {
			return out[i].TransferDate.Before(out[j].TransferDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// -----------------------------------------------------------------------------
// Documents
// -----------------------------------------------------------------------------

func (m *Memory) SaveDocument(_ context.Context, d pension.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.caseFiles[d.CaseFileID]; !ok {
		return pension.NotFound("case file", d.CaseFileID)
	}
	d.Content = bytes.Clone(d.Content)
	m.documents[d.ID] = d
	return nil
}

func (m *Memory) GetDocument(_ context.Context, id string) (pension.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[id]
	if !ok {
		return pension.Document{}, pension.NotFound("document", id)
	}
	d.Content = nil
	return d, nil
}

func (m *Memory) GetDocumentContent(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[id]
	if !ok {
		return nil, pension.NotFound("document", id)
	}
	return bytes.Clone(d.Content), nil
}

func (m *Memory) ListDocuments(_ context.Context, caseFileID string) ([]pension.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pension.Document, 0)
	for _, d := range m.documents {
		if caseFileID == "" || d.CaseFileID == caseFileID {
			d.Content = nil
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateDocumentDescription(_ context.Context, id, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return pension.NotFound("document", id)
	}
	d.Description = description
	m.documents[id] = d
	return nil
}

func (m *Memory) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return pension.NotFound("document", id)
	}
	delete(m.documents, id)
	return nil
}

// -----------------------------------------------------------------------------
// Statistics
// -----------------------------------------------------------------------------

func (m *Memory) SaveStatistics(_ context.Context, s pension.PaymentStatistics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statistics[s.Period] = s
	return nil
}

func (m *Memory) GetStatistics(_ context.Context, period pension.YearMonth) (pension.PaymentStatistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statistics[period]
	if !ok {
		return pension.PaymentStatistics{}, pension.NotFound("statistics", period.Display())
	}
	return s, nil
}

func (m *Memory) ListStatistics(_ context.Context) ([]pension.PaymentStatistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pension.PaymentStatistics, 0, len(m.statistics))
	for _, s := range m.statistics {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Period.Start().Before(out[j].Period.Start())
	})
	return out, nil
}
