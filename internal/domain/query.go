package domain

import (
	"strings"
)

const MaxQueryLength = 1000

// LookupRequest - один запрос пользователя. ClientID нужен только для rate limit и истории,
// RequestID - только для логов.
type LookupRequest struct {
	Text      string
	Mode      Mode
	ClientID  string
	RequestID string
}

// Validate не считает пустой запрос ошибкой: пустой запрос даёт пустой ответ.
func (q *LookupRequest) Validate() error {
	if !q.Mode.IsValid() {
		return ErrUnknownMode
	}

	if len(q.Text) > MaxQueryLength {
		return ErrQueryTooLong
	}

	return nil
}

func (q *LookupRequest) Sanitize() {
	q.Text = strings.TrimSpace(q.Text)
	if len(q.Text) > MaxQueryLength {
		q.Text = q.Text[:MaxQueryLength]
	}
}

func (q *LookupRequest) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

type SearchResponse struct {
	Query    string          `json:"query"`
	Variants []string        `json:"variants"`
	Results  []ArchiveResult `json:"results"`
}

type CheckResponse struct {
	Query    string         `json:"query"`
	Variants []string       `json:"variants"`
	Results  []TitleVerdict `json:"results"`
}
