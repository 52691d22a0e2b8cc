package search

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var (
	ErrUnauthorized   = errors.New("invalid API key")
	ErrRateLimit      = errors.New("rate limit exceeded")
	ErrInvalidRequest = errors.New("invalid request parameters")
	ErrSearchFailed   = errors.New("search request failed")
	ErrEmptyResults   = errors.New("no results found")
)

const (
	ArchiveDomain = "imslp.org"
	WikiBaseURL   = "https://imslp.org/wiki/"
)

type SearchClient interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

type SearchRequest struct {
	Query          string
	IncludeDomains []string
	MaxResults     int
}

type SearchResponse struct {
	Query   string
	Results []SearchResult
}

// SearchResult - сырой результат бэкенда. Snippet может содержать HTML.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
	Score   float64
}

// PageURL строит ссылку на вики-страницу: пробелы -> "_", остальное экранируется.
func PageURL(title string) string {
	return WikiBaseURL + escapeTitle(title)
}

func escapeTitle(title string) string {
	return url.PathEscape(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
}

// TitleFromURL достаёт каноническое имя страницы из ссылки вида https://imslp.org/wiki/Some_Title.
// Для служебных страниц (Special:, File:, Category:) и чужих доменов возвращает false.
func TitleFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != ArchiveDomain {
		return "", false
	}

	rest, ok := strings.CutPrefix(u.EscapedPath(), "/wiki/")
	if !ok || rest == "" {
		return "", false
	}

	title, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	title = strings.TrimSpace(strings.ReplaceAll(title, "_", " "))
	if title == "" || isNamespaced(title) {
		return "", false
	}
	return title, true
}

func isNamespaced(title string) bool {
	for _, ns := range []string{"Special:", "File:", "Category:", "Talk:", "User:", "IMSLP:", "Help:"} {
		if strings.HasPrefix(title, ns) {
			return true
		}
	}
	return false
}
