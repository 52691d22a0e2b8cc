package domain

import "strings"

type Verdict string

const (
	VerdictYes              Verdict = "YES"
	VerdictNo               Verdict = "NO"
	VerdictPartially        Verdict = "PARTIALLY"
	VerdictOpenLicense      Verdict = "OPEN_LICENSE"
	VerdictLikelyYes        Verdict = "LIKELY_YES"
	VerdictLikelyNo         Verdict = "LIKELY_NO"
	VerdictDependsOnCountry Verdict = "DEPENDS_ON_COUNTRY"
	VerdictUnknown          Verdict = "UNKNOWN"
)

func (v Verdict) IsValid() bool {
	switch v {
	case VerdictYes, VerdictNo, VerdictPartially, VerdictOpenLicense,
		VerdictLikelyYes, VerdictLikelyNo, VerdictDependsOnCountry, VerdictUnknown:
		return true
	default:
		return false
	}
}

func (v Verdict) String() string {
	return string(v)
}

// Label - человекочитаемая форма для бота и CLI
func (v Verdict) Label() string {
	if v == VerdictDependsOnCountry {
		return "IT DEPENDS"
	}
	return strings.ReplaceAll(string(v), "_", " ")
}

// Assessment - вердикт плюс объяснение. Rationale никогда не пустой.
type Assessment struct {
	Verdict   Verdict  `json:"verdict"`
	Rationale []string `json:"rationale"`
}

type TitleVerdict struct {
	Title     string   `json:"title"`
	Link      string   `json:"link"`
	Verdict   Verdict  `json:"verdict"`
	Rationale []string `json:"rationale"`
}

// FormatAnswer собирает ответ в виде "VERDICT. объяснение" - вердикт всегда первым.
func FormatAnswer(v Verdict, rationale []string) string {
	if len(rationale) == 0 {
		return v.Label() + "."
	}
	return v.Label() + ". " + strings.Join(rationale, " ")
}
