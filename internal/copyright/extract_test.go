package copyright

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

func intPtr(v int) *int { return &v }

const ysayeMarkup = `{{#fte:imslppage
|Work Title=Sonata for Solo Violin No.6
|Composer=Ysaÿe, Eugène
|First Publication=1924 - Brussels: Éditions Ysaÿe
}}
{{#fte:imslpfile
|File Name 1=Ysaye-Sonata6.pdf
|Copyright=Public Domain
}}
{{#fte:imslpfile
|File Name 1=Ysaye-Sonata6-Urtext.pdf
|Copyright=Non-PD US
}}
{{#fte:imslpfile
|Copyright = Public Domain }}
Eugène Ysaÿe (1858–1931)`

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		ok     bool
		want   domain.CopyrightFacts
	}{
		{
			name: "absent page",
			ok:   false,
			want: domain.CopyrightFacts{Statuses: []string{}},
		},
		{
			name:   "blank page",
			markup: "  \n ",
			ok:     true,
			want:   domain.CopyrightFacts{Statuses: []string{}},
		},
		{
			name:   "statuses deduplicated in first-seen order, life span fallback",
			markup: ysayeMarkup,
			ok:     true,
			want: domain.CopyrightFacts{
				Statuses:         []string{"Public Domain", "Non-PD US"},
				ComposerDates:    &domain.ComposerDates{Birth: intPtr(1858), Death: 1931},
				FirstPublication: intPtr(1924),
			},
		},
		{
			name:   "explicit death field beats parenthetical",
			markup: "|Born = 1866\n|Death = 1925\nErik Satie (1860-1930)\n|COPYRIGHT=public domain|",
			ok:     true,
			want: domain.CopyrightFacts{
				Statuses:      []string{"public domain"},
				ComposerDates: &domain.ComposerDates{Birth: intPtr(1866), Death: 1925},
			},
		},
		{
			name:   "death without birth",
			markup: "|Death=1990",
			ok:     true,
			want: domain.CopyrightFacts{
				Statuses:      []string{},
				ComposerDates: &domain.ComposerDates{Death: 1990},
			},
		},
		{
			name:   "hyphenated life span",
			markup: "Gustav Mahler (1860-1911)",
			ok:     true,
			want: domain.CopyrightFacts{
				Statuses:      []string{},
				ComposerDates: &domain.ComposerDates{Birth: intPtr(1860), Death: 1911},
			},
		},
		{
			name:   "empty copyright values dropped",
			markup: "|Copyright=\n|Copyright=   |",
			ok:     true,
			want:   domain.CopyrightFacts{Statuses: []string{}},
		},
		{
			name:   "empty field does not swallow the next line",
			markup: "|Copyright=\n*****COMMENTS*****\n|Copyright=Public Domain\n",
			ok:     true,
			want:   domain.CopyrightFacts{Statuses: []string{"Public Domain"}},
		},
		{
			name:   "empty death field ignores a year on the next line",
			markup: "|Death=\n1931\n|First Publication=\n1924\n",
			ok:     true,
			want:   domain.CopyrightFacts{Statuses: []string{}},
		},
		{
			name:   "first publication without year",
			markup: "|First Publication=unknown\n",
			ok:     true,
			want:   domain.CopyrightFacts{Statuses: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.markup, tt.ok)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_AbsentYieldsUnknown(t *testing.T) {
	facts := Extract("", false)
	assert.Empty(t, facts.Statuses)
	assert.Nil(t, facts.ComposerDates)

	a := (&Engine{}).AssessAt(facts, 2026)
	assert.Equal(t, domain.VerdictUnknown, a.Verdict)
	assert.NotEmpty(t, a.Rationale)
}
