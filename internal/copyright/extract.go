package copyright

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

var (
	copyrightFieldRe = regexp.MustCompile(`(?i)copyright[ \t]*=[ \t]*([^\n|}]*)`)
	deathFieldRe     = regexp.MustCompile(`(?i)\bdeath[ \t]*=[ \t]*(\d{4})\b`)
	bornFieldRe      = regexp.MustCompile(`(?i)\bborn[ \t]*=[ \t]*(\d{4})\b`)
	lifeSpanRe       = regexp.MustCompile(`\((\d{4})\s*[–-]\s*(\d{4})\)`)
	firstPubFieldRe  = regexp.MustCompile(`(?i)first[ \t]+publication[ \t]*=[ \t]*([^\n|}]*)`)
	yearRe           = regexp.MustCompile(`\b(\d{4})\b`)
)

type dateRule struct {
	Name  string
	Match func(markup string) (*domain.ComposerDates, bool)
}

// dateRules применяются по порядку, выигрывает первое совпадение.
var dateRules = []dateRule{
	{Name: "death-field", Match: matchDeathField},
	{Name: "life-span", Match: matchLifeSpan},
}

// Extract разбирает вики-разметку страницы. ok=false значит страницы нет:
// тогда факты пустые, это не ошибка.
func Extract(markup string, ok bool) domain.CopyrightFacts {
	facts := domain.CopyrightFacts{Statuses: []string{}}
	if !ok || strings.TrimSpace(markup) == "" {
		return facts
	}

	facts.Statuses = extractStatuses(markup)

	for _, rule := range dateRules {
		if dates, matched := rule.Match(markup); matched {
			facts.ComposerDates = dates
			break
		}
	}

	facts.FirstPublication = extractFirstPublication(markup)
	return facts
}

func extractStatuses(markup string) []string {
	statuses := []string{}
	seen := make(map[string]struct{})

	for _, m := range copyrightFieldRe.FindAllStringSubmatch(markup, -1) {
		value := strings.TrimSpace(m[1])
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		statuses = append(statuses, value)
	}
	return statuses
}

func matchDeathField(markup string) (*domain.ComposerDates, bool) {
	m := deathFieldRe.FindStringSubmatch(markup)
	if m == nil {
		return nil, false
	}
	death, _ := strconv.Atoi(m[1])
	dates := &domain.ComposerDates{Death: death}

	if b := bornFieldRe.FindStringSubmatch(markup); b != nil {
		birth, _ := strconv.Atoi(b[1])
		dates.Birth = &birth
	}
	return dates, true
}

func matchLifeSpan(markup string) (*domain.ComposerDates, bool) {
	m := lifeSpanRe.FindStringSubmatch(markup)
	if m == nil {
		return nil, false
	}
	birth, _ := strconv.Atoi(m[1])
	death, _ := strconv.Atoi(m[2])
	return &domain.ComposerDates{Birth: &birth, Death: death}, true
}

func extractFirstPublication(markup string) *int {
	m := firstPubFieldRe.FindStringSubmatch(markup)
	if m == nil {
		return nil
	}
	y := yearRe.FindStringSubmatch(m[1])
	if y == nil {
		return nil
	}
	year, _ := strconv.Atoi(y[1])
	return &year
}
