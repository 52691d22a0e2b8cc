package repository

import (
	"context"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

// LookupRepository - журнал отвеченных запросов. Только запись и чтение последних.
type LookupRepository interface {
	Save(ctx context.Context, rec *domain.LookupRecord) error
	Recent(ctx context.Context, limit int) ([]domain.LookupRecord, error)
	Close() error
}
