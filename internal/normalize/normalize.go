// Package normalize expands a raw user query into archive-title variants.
//
// Every rule in the table is applied to the original query independently; a rule that
// does not match contributes nothing. The original query is always the first variant.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kitbuilder587/score-lookup/internal/textutil"
)

// Rule turns a query into zero or more variants.
type Rule struct {
	Name  string
	Apply func(query string) []string
}

// WorkTypes is checked in order; the first case-insensitive substring match wins.
var WorkTypes = []string{
	"Sonata", "Symphony", "Concerto", "Quartet", "Trio",
	"Suite", "Prelude", "Etude", "Nocturne", "Ballade",
	"Waltz", "Mazurka", "Polonaise", "Rhapsody", "Fantasia",
	"Fugue", "Overture", "Serenade", "Impromptu", "Scherzo",
}

// guessedTypes используются, когда в запросе есть номер, но нет жанра
var guessedTypes = []string{"Sonata", "Symphony", "Concerto"}

var (
	opusRe   = regexp.MustCompile(`(?i)\bop\.?\s*(\d+)\b`)
	numberRe = regexp.MustCompile(`(?i)\bno\.?\s*(\d+)\b`)
	intRe    = regexp.MustCompile(`\d+`)
	digitsRe = regexp.MustCompile(`^\d+$`)
)

// catalogue markers that carry no composer information
var connectorTokens = map[string]bool{
	"no": true, "no.": true, "nr": true, "nr.": true, "#": true,
	"op": true, "op.": true, "opus": true,
}

// DefaultRules is the rule table used by Variants.
var DefaultRules = []Rule{
	{Name: "opus", Apply: opusVariants},
	{Name: "number", Apply: numberVariants},
	{Name: "composer", Apply: composerOnly},
	{Name: "work-type", Apply: workTypeVariants},
	{Name: "guessed-type", Apply: guessedTypeVariants},
	{Name: "accents", Apply: foldedVariant},
}

// Variants applies DefaultRules to query.
func Variants(query string) []string {
	return Apply(query, DefaultRules)
}

// Apply runs every rule against query and returns the de-duplicated union,
// original query first, then rule output in table order.
func Apply(query string, rules []Rule) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	out := []string{query}
	for _, r := range rules {
		out = append(out, r.Apply(query)...)
	}
	return Merge(out)
}

// Merge concatenates lists keeping the first occurrence of every exact string.
// Blank entries are dropped.
func Merge(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func opusVariants(q string) []string {
	if !opusRe.MatchString(q) {
		return nil
	}
	return []string{
		opusRe.ReplaceAllString(q, "Op. ${1}"),
		opusRe.ReplaceAllString(q, "Opus ${1}"),
	}
}

func numberVariants(q string) []string {
	if !numberRe.MatchString(q) {
		return nil
	}
	return []string{
		numberRe.ReplaceAllString(q, "No. ${1}"),
		numberRe.ReplaceAllString(q, "No.${1}"),
	}
}

func composerOnly(q string) []string {
	tokens := strings.Fields(q)
	if len(tokens) < 2 {
		return nil
	}
	return []string{tokens[0]}
}

func workTypeVariants(q string) []string {
	num := intRe.FindString(q)
	workType := detectWorkType(q)
	if num == "" || workType == "" {
		return nil
	}

	composer := residualComposer(q, num, workType)
	variants := []string{
		joinNonEmpty(workType, "No. "+num, composer),
		joinNonEmpty(composer, workType, "No. "+num),
	}
	if composer != "" {
		variants = append(variants, joinNonEmpty(composer, workType))
	}
	return variants
}

func guessedTypeVariants(q string) []string {
	num := intRe.FindString(q)
	if num == "" || detectWorkType(q) != "" {
		return nil
	}

	composer := ""
	for _, tok := range strings.Fields(q) {
		if !digitsRe.MatchString(tok) {
			composer = tok
			break
		}
	}
	if composer == "" {
		return nil
	}

	variants := make([]string, 0, len(guessedTypes))
	for _, wt := range guessedTypes {
		variants = append(variants, fmt.Sprintf("%s %s No. %s", composer, wt, num))
	}
	return variants
}

func foldedVariant(q string) []string {
	if !textutil.HasAccents(q) {
		return nil
	}
	return []string{textutil.FoldAccents(q)}
}

func detectWorkType(q string) string {
	lower := strings.ToLower(q)
	for _, wt := range WorkTypes {
		if strings.Contains(lower, strings.ToLower(wt)) {
			return wt
		}
	}
	return ""
}

// residualComposer убирает из запроса номер, слово-жанр и служебные токены (No., Op.)
func residualComposer(q, num, workType string) string {
	lowerType := strings.ToLower(workType)
	numDropped, typeDropped := false, false

	var rest []string
	for _, tok := range strings.Fields(q) {
		lower := strings.ToLower(tok)
		switch {
		case !typeDropped && strings.Contains(lower, lowerType):
			typeDropped = true
		case !numDropped && containsNumber(tok, num):
			numDropped = true
		case connectorTokens[lower]:
		default:
			rest = append(rest, tok)
		}
	}
	return strings.Join(rest, " ")
}

func containsNumber(tok, num string) bool {
	for _, m := range intRe.FindAllString(tok, -1) {
		if m == num {
			return true
		}
	}
	return false
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
