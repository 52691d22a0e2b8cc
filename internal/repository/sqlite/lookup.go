package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

const (
	sqliteBusyCode    = 5
	busyRetryAttempts = 5
	busyRetryBackoff  = 10 * time.Millisecond

	// фиксированная ширина, чтобы ORDER BY по строке совпадал с порядком по времени
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

const schema = `
CREATE TABLE IF NOT EXISTS lookups (
    id           TEXT PRIMARY KEY,
    query        TEXT NOT NULL,
    mode         TEXT NOT NULL,
    client_id    TEXT NOT NULL DEFAULT '',
    result_count INTEGER NOT NULL DEFAULT 0,
    top_title    TEXT NOT NULL DEFAULT '',
    top_verdict  TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS lookups_created_at_idx ON lookups (created_at DESC);
`

// LookupRepo - журнал запросов в локальном файле SQLite, для CLI и запуска без Postgres.
type LookupRepo struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*LookupRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &LookupRepo{db: db}, nil
}

func (r *LookupRepo) Save(ctx context.Context, rec *domain.LookupRecord) error {
	query := `
        INSERT INTO lookups (id, query, mode, client_id, result_count, top_title, top_verdict, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `

	err := retryOnBusy(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query,
			rec.ID,
			rec.Query,
			rec.Mode.String(),
			rec.ClientID,
			rec.ResultCount,
			rec.TopTitle,
			rec.TopVerdict.String(),
			rec.CreatedAt.UTC().Format(timeLayout),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("save lookup: %w", err)
	}
	return nil
}

func (r *LookupRepo) Recent(ctx context.Context, limit int) ([]domain.LookupRecord, error) {
	query := `
        SELECT id, query, mode, client_id, result_count, top_title, top_verdict, created_at
        FROM lookups
        ORDER BY created_at DESC
        LIMIT ?
    `

	rows, err := r.db.QueryContext(ctx, query, domain.ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list lookups: %w", err)
	}
	defer rows.Close()

	records := []domain.LookupRecord{}
	for rows.Next() {
		var (
			rec       domain.LookupRecord
			mode      string
			verdict   string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Query, &mode, &rec.ClientID, &rec.ResultCount, &rec.TopTitle, &verdict, &createdAt); err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		rec.Mode = domain.Mode(mode)
		rec.TopVerdict = domain.Verdict(verdict)
		if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookups: %w", err)
	}
	return records, nil
}

func (r *LookupRepo) Close() error {
	return r.db.Close()
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		if lastErr = op(); lastErr == nil || !isBusy(lastErr) {
			return lastErr
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return lastErr
}
