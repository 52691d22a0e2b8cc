package telegram

import (
	"strings"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

// ParseQueryCommand разбирает текст сообщения:
// /search, /imslp -> поиск страниц; /pd и обычный текст -> проверка public domain.
// ok == false для остальных команд.
func ParseQueryCommand(text string) (query string, mode domain.Mode, ok bool) {
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "/") {
		return normalizeSpaces(text), domain.ModePublicDomain, true
	}

	command, rest, _ := strings.Cut(text, " ")
	command, _, _ = strings.Cut(strings.ToLower(command), "@") // /pd@score_bot
	rest = normalizeSpaces(rest)

	switch command {
	case "/search", "/imslp":
		return rest, domain.ModeSearch, true
	case "/pd":
		return rest, domain.ModePublicDomain, true
	default:
		return "", "", false
	}
}

func normalizeSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
