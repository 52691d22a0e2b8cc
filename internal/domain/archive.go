package domain

// ArchiveResult - страница архива, найденная поиском. Title уникален в пределах ответа.
type ArchiveResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

type ComposerDates struct {
	Birth *int `json:"birth,omitempty"`
	Death int  `json:"death"`
}

// CopyrightFacts извлекаются из разметки страницы один раз и дальше не меняются.
type CopyrightFacts struct {
	Statuses         []string       `json:"statuses"`
	ComposerDates    *ComposerDates `json:"composer_dates,omitempty"`
	FirstPublication *int           `json:"first_publication,omitempty"`
}

func (f CopyrightFacts) HasDeath() bool {
	return f.ComposerDates != nil
}
