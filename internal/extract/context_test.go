package extract

import (
	"strings"
	"testing"

	"github.com/Ametist3d/jobhunter/internal/lexicon"
)

func newTestContextExtractor(t *testing.T, maxChars int) *ContextExtractor {
	t.Helper()
	lex := lexicon.Default()
	return NewContextExtractor(&lex, maxChars)
}

func TestContextExtractBasics(t *testing.T) {
	c := newTestContextExtractor(t, 0)
	html := `<html lang="de-DE"><head>
		<title>  Meyer   GmbH  </title>
		<meta name="description" content="Werkzeugbau seit 1950">
	</head><body>
		<h1>Willkommen bei Meyer</h1>
		<h2>Leistungen</h2>
		<h2>Referenzen</h2>
		<nav><a href="/kontakt">Kontakt</a><a href="/impressum">Impressum</a></nav>
		<script>console.log("noise@script.de")</script>
		<p>Wir fertigen Werkzeuge.</p>
	</body></html>`

	ctx := c.Extract(html)

	if ctx.Title != "Meyer GmbH" {
		t.Fatalf("expected collapsed title, got %q", ctx.Title)
	}
	if ctx.MetaDescription != "Werkzeugbau seit 1950" {
		t.Fatalf("expected meta description, got %q", ctx.MetaDescription)
	}
	if ctx.H1 != "Willkommen bei Meyer" {
		t.Fatalf("expected h1, got %q", ctx.H1)
	}
	if len(ctx.H2s) != 2 || ctx.H2s[0] != "Leistungen" {
		t.Fatalf("expected two h2s, got %v", ctx.H2s)
	}
	if len(ctx.NavLinks) != 2 || ctx.NavLinks[0].Href != "/kontakt" {
		t.Fatalf("expected two nav links, got %v", ctx.NavLinks)
	}
	if ctx.Language != "de" {
		t.Fatalf("expected language de from lang attribute, got %q", ctx.Language)
	}
	if strings.Contains(ctx.TextSnippet, "noise@script.de") {
		t.Fatalf("script content leaked into snippet: %q", ctx.TextSnippet)
	}
}

func TestContextExtractLimits(t *testing.T) {
	c := newTestContextExtractor(t, 50)

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 20; i++ {
		b.WriteString("<h2>Heading</h2>")
	}
	for i := 0; i < 200; i++ {
		b.WriteString(`<a href="/page">Link</a>`)
	}
	b.WriteString(strings.Repeat("wort ", 100))
	b.WriteString("</body></html>")

	ctx := c.Extract(b.String())

	if len(ctx.H2s) > maxH2Headings {
		t.Fatalf("expected at most %d h2s, got %d", maxH2Headings, len(ctx.H2s))
	}
	if len(ctx.NavLinks) > maxNavLinks {
		t.Fatalf("expected at most %d nav links, got %d", maxNavLinks, len(ctx.NavLinks))
	}
	if got := len([]rune(strings.TrimSuffix(ctx.TextSnippet, "…"))); got > 50 {
		t.Fatalf("expected snippet capped at 50 runes, got %d", got)
	}
	if !strings.HasSuffix(ctx.TextSnippet, "…") {
		t.Fatalf("expected truncated snippet to end with ellipsis, got %q", ctx.TextSnippet)
	}
}

func TestContextExtractSkipsFragmentLinks(t *testing.T) {
	c := newTestContextExtractor(t, 0)
	html := `<html><body>
		<a href="#">Top</a>
		<a href="#section">Jump</a>
		<a href="">Empty</a>
		<a href="/about">About</a>
	</body></html>`

	ctx := c.Extract(html)
	if len(ctx.NavLinks) != 1 || ctx.NavLinks[0].Href != "/about" {
		t.Fatalf("expected only /about, got %v", ctx.NavLinks)
	}
}

func TestContextExtractUnparseable(t *testing.T) {
	c := newTestContextExtractor(t, 0)
	ctx := c.Extract("")
	if ctx == nil {
		t.Fatal("expected non-nil context for empty input")
	}
	if ctx.Title != "" || len(ctx.NavLinks) != 0 {
		t.Fatalf("expected empty context, got %+v", ctx)
	}
}

func TestPrimarySubtag(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"de", "de"},
		{"de-DE", "de"},
		{"en_US", "en"},
		{"", ""},
		{"x", ""},
		{"deu", ""},
		{"12", ""},
	}
	for _, tc := range cases {
		if got := primarySubtag(tc.in); got != tc.want {
			t.Fatalf("primarySubtag(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestLanguageDetector(t *testing.T) {
	lex := lexicon.Default()
	d := NewLanguageDetector(lex.Language.Stopwords)

	german := strings.Repeat("wir sind die firma und wir haben für sie die besten produkte auf dem markt ", 5)
	if got := d.Detect(german); got != "de" {
		t.Fatalf("expected de, got %q", got)
	}

	english := strings.Repeat("we are the company and we have the best products for you on the market ", 5)
	if got := d.Detect(english); got != "en" {
		t.Fatalf("expected en, got %q", got)
	}
}

func TestLanguageDetectorShortText(t *testing.T) {
	lex := lexicon.Default()
	d := NewLanguageDetector(lex.Language.Stopwords)

	if got := d.Detect("the and for with you"); got != "" {
		t.Fatalf("expected no detection under minimum length, got %q", got)
	}
}

func TestLanguageDetectorAmbiguous(t *testing.T) {
	lex := lexicon.Default()
	d := NewLanguageDetector(lex.Language.Stopwords)
	d.SetThresholds(3, 5)

	// Mixed text where no language clears the gap requirement.
	mixed := strings.Repeat("the und for die with sie you wir ", 10)
	if got := d.Detect(mixed); got != "" {
		t.Fatalf("expected ambiguous text to stay undetermined, got %q", got)
	}
}
