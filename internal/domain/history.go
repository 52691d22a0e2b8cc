package domain

import (
	"time"

	"github.com/google/uuid"
)

const MaxHistoryLimit = 100

// LookupRecord - запись в журнале запросов. Вердикты отсюда никогда не читаются обратно
// в пайплайн: год меняется, и вердикт надо пересчитывать.
type LookupRecord struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Mode        Mode      `json:"mode"`
	ClientID    string    `json:"client_id,omitempty"`
	ResultCount int       `json:"result_count"`
	TopTitle    string    `json:"top_title,omitempty"`
	TopVerdict  Verdict   `json:"top_verdict,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewSearchRecord(req *LookupRequest, resp *SearchResponse) *LookupRecord {
	rec := newRecord(req)
	rec.ResultCount = len(resp.Results)
	if len(resp.Results) > 0 {
		rec.TopTitle = resp.Results[0].Title
	}
	return rec
}

func NewCheckRecord(req *LookupRequest, resp *CheckResponse) *LookupRecord {
	rec := newRecord(req)
	rec.ResultCount = len(resp.Results)
	if len(resp.Results) > 0 {
		rec.TopTitle = resp.Results[0].Title
		rec.TopVerdict = resp.Results[0].Verdict
	}
	return rec
}

func newRecord(req *LookupRequest) *LookupRecord {
	return &LookupRecord{
		ID:        uuid.NewString(),
		Query:     req.Text,
		Mode:      req.Mode,
		ClientID:  req.ClientID,
		CreatedAt: time.Now().UTC(),
	}
}

// ClampHistoryLimit приводит limit к [1, MaxHistoryLimit], 0 и меньше -> 20
func ClampHistoryLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
