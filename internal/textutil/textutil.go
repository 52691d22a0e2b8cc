// Package textutil holds small text helpers shared by the search backends and the normalizer.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripHTML returns the text content of an HTML fragment with entities decoded
// and whitespace collapsed. Script and style bodies are dropped.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}

	z := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpaces(sb.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if isSkipped(name) {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isSkipped(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				// Text() уже раскодировал &amp; и прочие сущности
				sb.Write(z.Text())
			}
		}
	}
}

func isSkipped(tag []byte) bool {
	switch string(tag) {
	case "script", "style", "noscript":
		return true
	}
	return false
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FoldAccents removes combining marks: "Ysaÿe" -> "Ysaye", "Dvořák" -> "Dvorak".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// HasAccents reports whether folding would change s.
func HasAccents(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return FoldAccents(s) != s
		}
	}
	return false
}
