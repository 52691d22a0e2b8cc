package repository

import (
	"context"
	"sync"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

type MockLookupRepository struct {
	mu      sync.RWMutex
	records []domain.LookupRecord
	SaveErr error
}

func NewMockLookupRepository() *MockLookupRepository {
	return &MockLookupRepository{}
}

func (m *MockLookupRepository) WithSaveError(err error) *MockLookupRepository {
	m.SaveErr = err
	return m
}

func (m *MockLookupRepository) Save(ctx context.Context, rec *domain.LookupRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.records = append(m.records, *rec)
	return nil
}

// Recent возвращает записи от новых к старым
func (m *MockLookupRepository) Recent(ctx context.Context, limit int) ([]domain.LookupRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = domain.ClampHistoryLimit(limit)
	out := make([]domain.LookupRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *MockLookupRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MockLookupRepository) Close() error {
	return nil
}
