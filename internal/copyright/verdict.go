package copyright

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

const (
	lifePlus70        = 70
	lifePlus50        = 50
	usTermFromPub     = 95
	usLastPubTermYear = 1977
	statusSeparator   = "; "
)

type signal int

const (
	signalNonPD signal = iota
	signalCC
	signalPD
)

type tagPattern struct {
	Signal  signal
	Pattern *regexp.Regexp
}

// tagPatterns проверяются независимо: один статус может дать несколько сигналов,
// например "Public Domain - Non-PD US". Отрицания вырезаются до проверки на PD.
var tagPatterns = []tagPattern{
	{Signal: signalNonPD, Pattern: regexp.MustCompile(`non[- ]?pd|not public domain|copyrighted|under copyright|all rights reserved|©`)},
	{Signal: signalCC, Pattern: regexp.MustCompile(`creative commons|cc-by|cc by|cc0`)},
	{Signal: signalPD, Pattern: regexp.MustCompile(`public domain|\bpd\b`)},
}

var negatedPDRe = regexp.MustCompile(`non[- ]?pd|not public domain`)

// Engine сводит факты о странице к вердикту. Now подменяется в тестах.
type Engine struct {
	Now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{Now: time.Now}
}

func (e *Engine) Assess(facts domain.CopyrightFacts) domain.Assessment {
	now := time.Now
	if e != nil && e.Now != nil {
		now = e.Now
	}
	return e.AssessAt(facts, now().Year())
}

// AssessAt считает вердикт на заданный год. Результат детерминирован.
func (e *Engine) AssessAt(facts domain.CopyrightFacts, year int) domain.Assessment {
	verdict, rationale := assessTags(facts.Statuses)

	// год смерти в будущем - ошибка в разметке, такие даты не учитываем
	if facts.HasDeath() && facts.ComposerDates.Death <= year {
		death := facts.ComposerDates.Death
		since := year - death

		switch {
		case since > lifePlus70:
			rationale = append(rationale, fmt.Sprintf(
				"The composer died in %d, %d years ago: the work is public domain in most countries (life+70).", death, since))
			if verdict == domain.VerdictUnknown {
				verdict = domain.VerdictLikelyYes
			}
		case since >= lifePlus50:
			rationale = append(rationale, fmt.Sprintf(
				"The composer died in %d, %d years ago: public domain in life+50 countries, but not yet in life+70 countries such as the EU and the UK.", death, since))
			if verdict == domain.VerdictUnknown {
				verdict = domain.VerdictDependsOnCountry
			}
		default:
			rationale = append(rationale, fmt.Sprintf(
				"The composer died in %d, only %d years ago: the work is likely still under copyright.", death, since))
			if verdict == domain.VerdictUnknown {
				verdict = domain.VerdictLikelyNo
			}
		}
	}

	if facts.FirstPublication != nil {
		rationale = append(rationale, usPublicationNote(*facts.FirstPublication, year, facts))
	}

	if verdict == domain.VerdictUnknown {
		rationale = append(rationale,
			"Not enough information to decide: verify the copyright status manually on the archive page.")
	}

	rationale = append(rationale,
		"Specific editions and arrangements can carry their own copyright even when the original work is public domain.")

	return domain.Assessment{Verdict: verdict, Rationale: rationale}
}

func assessTags(statuses []string) (domain.Verdict, []string) {
	if len(statuses) == 0 {
		return domain.VerdictUnknown, nil
	}

	var pd, nonPD, cc bool
	for _, status := range statuses {
		s := classify(status)
		pd = pd || s[signalPD]
		nonPD = nonPD || s[signalNonPD]
		cc = cc || s[signalCC]
	}

	listed := strings.Join(statuses, statusSeparator)

	switch {
	case pd && !nonPD:
		return domain.VerdictYes, []string{fmt.Sprintf("The archive page marks this work as public domain (%s).", listed)}
	case pd && nonPD:
		return domain.VerdictPartially, []string{fmt.Sprintf("The archive page lists both public domain and copyrighted material (%s): some editions are free to use, others are not.", listed)}
	case cc:
		return domain.VerdictOpenLicense, []string{fmt.Sprintf("The files are published under a Creative Commons licence (%s): free to use under the licence terms.", listed)}
	case nonPD:
		return domain.VerdictNo, []string{fmt.Sprintf("The archive page marks this work as under copyright (%s).", listed)}
	default:
		return domain.VerdictUnknown, []string{fmt.Sprintf("The copyright tags on the archive page are inconclusive (%s).", listed)}
	}
}

func classify(status string) map[signal]bool {
	lower := strings.ToLower(status)
	out := make(map[signal]bool, len(tagPatterns))

	for _, p := range tagPatterns {
		text := lower
		if p.Signal == signalPD {
			text = negatedPDRe.ReplaceAllString(lower, " ")
		}
		if p.Pattern.MatchString(text) {
			out[p.Signal] = true
		}
	}
	return out
}

// usPublicationNote - в США срок для изданий до 1978 года считается от публикации,
// для более поздних действует life+70.
func usPublicationNote(published, year int, facts domain.CopyrightFacts) string {
	if published > usLastPubTermYear {
		if facts.HasDeath() && facts.ComposerDates.Death <= year {
			return fmt.Sprintf("First published in %d, after %d: in the United States protection runs for the composer's life plus %d years, until the end of %d.",
				published, usLastPubTermYear, lifePlus70, facts.ComposerDates.Death+lifePlus70)
		}
		return fmt.Sprintf("First published in %d, after %d: in the United States protection runs for the composer's life plus %d years.",
			published, usLastPubTermYear, lifePlus70)
	}
	if year-published > usTermFromPub {
		return fmt.Sprintf("First published in %d, more than %d years ago: public domain in the United States.", published, usTermFromPub)
	}
	return fmt.Sprintf("First published in %d: in the United States protection runs %d years from publication, until the end of %d.",
		published, usTermFromPub, published+usTermFromPub)
}
