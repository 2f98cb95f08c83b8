package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ametist3d/jobhunter/internal/lexicon"
)

// Scoring weights for in-domain links. Contact pages dominate, legal pages
// (Impressum and friends) come next, then about/team pages.
const (
	scoreURLHint    = 10
	scoreContact    = 25
	scoreLegal      = 18
	scoreAbout      = 10
	scoreJob        = 6
	scoreStructural = 8
	scoreWPContent  = -50
	scorePDF        = -6
	scoreDeepPath   = -2
)

var structuralKeywords = []string{"nav", "footer", "header", "menu"}

type scoredLink struct {
	URL   string
	Score int
}

// linkScorer extracts same-site anchors from a page, scores them by how
// likely they lead to contact information, and harvests mailto addresses.
type linkScorer struct {
	lex *lexicon.Lexicon
}

func newLinkScorer(lex *lexicon.Lexicon) *linkScorer {
	return &linkScorer{lex: lex}
}

// collect walks the page's anchors and returns the same-site links with a
// positive score; everything else is dropped. Mailto hrefs belong to the
// email extractor and are never enqueued.
func (s *linkScorer) collect(doc *goquery.Document, base *url.URL) []scoredLink {
	var out []scoredLink
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "#" {
			return
		}
		if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "data:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		if !sameSite(base, abs) {
			return
		}
		abs.Fragment = ""
		normalized := abs.String()
		if _, ok := seen[normalized]; ok {
			return
		}
		seen[normalized] = struct{}{}

		score := s.score(abs, sel)
		if score > 0 {
			out = append(out, scoredLink{URL: normalized, Score: score})
		}
	})

	return out
}

func (s *linkScorer) score(u *url.URL, sel *goquery.Selection) int {
	score := 0
	path := strings.ToLower(u.Path)
	text := strings.ToLower(strings.Join(strings.Fields(sel.Text()), " "))

	for _, hint := range s.lex.Crawl.URLHints {
		if strings.Contains(path, hint) {
			score += scoreURLHint
			break
		}
	}
	score += anchorTokenScore(text, s.lex.Crawl.TokensContact, scoreContact)
	score += anchorTokenScore(text, s.lex.Crawl.TokensLegal, scoreLegal)
	score += anchorTokenScore(text, s.lex.Crawl.TokensAbout, scoreAbout)
	// Career pages often carry application inboxes (jobs@, bewerbung@).
	score += anchorTokenScore(text, s.lex.Crawl.JobKeywords, scoreJob)

	if inStructuralContext(sel) {
		score += scoreStructural
	}
	if strings.Contains(path, "/wp-content/") {
		score += scoreWPContent
	}
	if strings.HasSuffix(path, ".pdf") {
		score += scorePDF
	}
	if strings.Count(path, "/") > 3 {
		score += scoreDeepPath
	}
	return score
}

func anchorTokenScore(text string, tokens []string, weight int) int {
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return weight
		}
	}
	return 0
}

// inStructuralContext reports whether the anchor sits inside a nav, footer,
// or header region, either by element tag or by class/id keyword on an
// ancestor.
func inStructuralContext(sel *goquery.Selection) bool {
	for node := sel; node.Length() > 0; node = node.Parent() {
		name := goquery.NodeName(node)
		if name == "nav" || name == "footer" || name == "header" {
			return true
		}
		class, _ := node.Attr("class")
		id, _ := node.Attr("id")
		attrs := strings.ToLower(class + " " + id)
		for _, kw := range structuralKeywords {
			if strings.Contains(attrs, kw) {
				return true
			}
		}
		if name == "body" || name == "html" {
			break
		}
	}
	return false
}

// sameSite treats a bare host and its www variant as the same site. Other
// subdomains are foreign.
func sameSite(base, candidate *url.URL) bool {
	return stripWWW(base.Hostname()) == stripWWW(candidate.Hostname())
}

func stripWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
