package search

import "testing"

func TestPageURL(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Ysaÿe, Eugène", "https://imslp.org/wiki/Ysa%C3%BFe%2C_Eug%C3%A8ne"},
		{"Piano Sonata No.14, Op.27 No.2 (Beethoven, Ludwig van)", "https://imslp.org/wiki/Piano_Sonata_No.14%2C_Op.27_No.2_%28Beethoven%2C_Ludwig_van%29"},
		{" Satie ", "https://imslp.org/wiki/Satie"},
	}

	for _, tt := range tests {
		if got := PageURL(tt.title); got != tt.want {
			t.Errorf("PageURL(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"https://imslp.org/wiki/6_Sonatas_for_Solo_Violin,_Op.27_(Ysa%C3%BFe,_Eug%C3%A8ne)", "6 Sonatas for Solo Violin, Op.27 (Ysaÿe, Eugène)", true},
		{"https://www.imslp.org/wiki/Satie", "Satie", true},
		{"https://imslp.org/wiki/Category:Ysa%C3%BFe,_Eug%C3%A8ne", "", false},
		{"https://imslp.org/wiki/Special:ImagefromIndex/12345", "", false},
		{"https://imslp.org/index.php?title=Satie", "", false},
		{"https://en.wikipedia.org/wiki/Satie", "", false},
		{"::not a url", "", false},
	}

	for _, tt := range tests {
		got, ok := TitleFromURL(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("TitleFromURL(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPageURL_RoundTrip(t *testing.T) {
	titles := []string{
		"Violin Sonata No.6 (Ysaÿe, Eugène)",
		"Gymnopédies (Satie, Erik)",
		"Symphony No.9, Op.125 (Beethoven, Ludwig van)",
	}
	for _, title := range titles {
		got, ok := TitleFromURL(PageURL(title))
		if !ok || got != title {
			t.Errorf("round trip %q -> %q (%v)", title, got, ok)
		}
	}
}
