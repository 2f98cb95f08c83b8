package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ametist3d/jobhunter/internal/lexicon"
	"github.com/Ametist3d/jobhunter/pkg/types"
)

const (
	maxH2Headings   = 8
	maxNavLinks     = 30
	maxAnchorsScan  = 120
	maxNavLinkText  = 40
	maxNavLinkHref  = 160
	defaultMaxChars = 2500
)

// ContextExtractor derives a compact structured summary from one page.
type ContextExtractor struct {
	detector *LanguageDetector
	maxChars int
}

// NewContextExtractor builds a context extractor; maxChars bounds the text
// snippet length (0 means the default).
func NewContextExtractor(lex *lexicon.Lexicon, maxChars int) *ContextExtractor {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &ContextExtractor{
		detector: NewLanguageDetector(lex.Language.Stopwords),
		maxChars: maxChars,
	}
}

// Extract parses HTML into a SiteContext. It is deterministic and never
// fails: unparseable input yields an empty context.
func (c *ContextExtractor) Extract(html string) *types.SiteContext {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &types.SiteContext{}
	}

	langAttr, _ := doc.Find("html").Attr("lang")

	doc.Find("script,style,noscript,svg,canvas,iframe").Remove()

	ctx := &types.SiteContext{
		Title: collapse(doc.Find("title").First().Text()),
		H1:    collapse(doc.Find("h1").First().Text()),
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		ctx.MetaDescription = collapse(desc)
	}

	doc.Find("h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapse(s.Text())
		if text != "" {
			ctx.H2s = append(ctx.H2s, text)
		}
		return len(ctx.H2s) < maxH2Headings
	})

	scanned := 0
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		scanned++
		if scanned > maxAnchorsScan || len(ctx.NavLinks) >= maxNavLinks {
			return false
		}
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "#" || strings.HasPrefix(href, "#") {
			return true
		}
		ctx.NavLinks = append(ctx.NavLinks, types.NavLink{
			Text: truncate(collapse(s.Text()), maxNavLinkText),
			Href: truncate(href, maxNavLinkHref),
		})
		return true
	})

	bodyText := collapse(doc.Find("body").Text())
	ctx.TextSnippet = truncateEllipsis(bodyText, c.maxChars)
	ctx.Language = c.language(langAttr, bodyText)

	return ctx
}

// language prefers the html lang attribute; a stopword heuristic over the
// body text is the fallback.
func (c *ContextExtractor) language(langAttr, bodyText string) string {
	if primary := primarySubtag(langAttr); primary != "" {
		return primary
	}
	return c.detector.Detect(bodyText)
}

func primarySubtag(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return ""
	}
	if idx := strings.IndexAny(lang, "-_"); idx != -1 {
		lang = lang[:idx]
	}
	if len(lang) != 2 {
		return ""
	}
	for i := 0; i < 2; i++ {
		if lang[i] < 'a' || lang[i] > 'z' {
			return ""
		}
	}
	return lang
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func truncateEllipsis(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
