package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

const maxSnippetRunes = 200

func FormatSearchResponse(resp *domain.SearchResponse) string {
	if len(resp.Results) == 0 {
		return fmt.Sprintf("Nothing found on IMSLP for <i>%s</i>.", html.EscapeString(resp.Query))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>IMSLP pages for</b> <i>%s</i>:\n\n", html.EscapeString(resp.Query))

	for i, r := range resp.Results {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, formatLink(r.Title, r.Link))
		if snippet := truncateRunes(r.Snippet, maxSnippetRunes); snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", html.EscapeString(snippet))
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatCheckResponse - по каждой странице сначала вердикт, потом объяснение.
func FormatCheckResponse(resp *domain.CheckResponse) string {
	if len(resp.Results) == 0 {
		return fmt.Sprintf("Nothing found on IMSLP for <i>%s</i>, so there is nothing to check.", html.EscapeString(resp.Query))
	}

	var sb strings.Builder
	for i, r := range resp.Results {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, formatLink(r.Title, r.Link))
		fmt.Fprintf(&sb, "<b>%s.</b>", html.EscapeString(r.Verdict.Label()))
		if len(r.Rationale) > 0 {
			sb.WriteString(" ")
			sb.WriteString(html.EscapeString(strings.Join(r.Rationale, " ")))
		}
		sb.WriteString("\n\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatLink(title, link string) string {
	if link == "" {
		return html.EscapeString(title)
	}
	return fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(link), html.EscapeString(title))
}

func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = maxLen
		}

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

// findSafeSplitPoint режет по пустой строке между страницами, иначе по пробелу вне тега.
func findSafeSplitPoint(text string, maxLen int) int {
	if i := strings.LastIndex(text[:maxLen], "\n\n"); i > maxLen/2 {
		return i + 2
	}

	for i := maxLen - 1; i > maxLen/2; i-- {
		if isInsideHTMLTag(text, i) {
			continue
		}
		if text[i] == '\n' || text[i] == ' ' {
			return i + 1
		}
	}

	// внутри тега - ищем конец
	if isInsideHTMLTag(text, maxLen) {
		for i := maxLen; i < len(text); i++ {
			if text[i] == '>' {
				for j := i + 1; j < len(text) && j < i+50; j++ {
					if text[j] == '\n' || text[j] == ' ' {
						return j + 1
					}
				}
				return i + 1
			}
		}
	}

	for i := maxLen - 1; i > 0; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i + 1
		}
	}

	return maxLen
}

func isInsideHTMLTag(text string, pos int) bool {
	if pos >= len(text) || pos < 0 {
		return false
	}
	for i := pos; i >= 0; i-- {
		if text[i] == '>' {
			return false
		}
		if text[i] == '<' {
			return true
		}
	}
	return false
}

func truncateRunes(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string(runes[:maxRunes-3])) + "..."
}
