package postgres

import (
	"context"
	"fmt"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

type LookupRepo struct {
	db *DB
}

func NewLookupRepo(db *DB) *LookupRepo {
	return &LookupRepo{db: db}
}

func (r *LookupRepo) Save(ctx context.Context, rec *domain.LookupRecord) error {
	query := `
        INSERT INTO lookups (id, query, mode, client_id, result_count, top_title, top_verdict, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `

	_, err := r.db.Pool.Exec(ctx, query,
		rec.ID,
		rec.Query,
		rec.Mode.String(),
		rec.ClientID,
		rec.ResultCount,
		rec.TopTitle,
		rec.TopVerdict.String(),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save lookup: %w", err)
	}
	return nil
}

func (r *LookupRepo) Recent(ctx context.Context, limit int) ([]domain.LookupRecord, error) {
	query := `
        SELECT id::text, query, mode, client_id, result_count, top_title, top_verdict, created_at
        FROM lookups
        ORDER BY created_at DESC
        LIMIT $1
    `

	rows, err := r.db.Pool.Query(ctx, query, domain.ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list lookups: %w", err)
	}
	defer rows.Close()

	records := []domain.LookupRecord{}
	for rows.Next() {
		var (
			rec     domain.LookupRecord
			mode    string
			verdict string
		)
		if err := rows.Scan(&rec.ID, &rec.Query, &mode, &rec.ClientID, &rec.ResultCount, &rec.TopTitle, &verdict, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		rec.Mode = domain.Mode(mode)
		rec.TopVerdict = domain.Verdict(verdict)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookups: %w", err)
	}
	return records, nil
}

func (r *LookupRepo) Close() error {
	r.db.Close()
	return nil
}
