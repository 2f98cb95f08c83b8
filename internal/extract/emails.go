// Package extract pulls contact emails and structured page context out of
// noisy third-party HTML.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ametist3d/jobhunter/internal/lexicon"
)

// rewriteRule is one de-obfuscation step. Rules run in order over the whole
// text before any regex scanning, so new obfuscation variants are added here
// without touching control flow.
type rewriteRule struct {
	pattern *regexp.Regexp
	repl    string
}

var deobfuscationRules = []rewriteRule{
	// zero-width characters used to break up addresses
	{regexp.MustCompile("[\u200b\u200c\u200d\ufeff]"), ""},
	// HTML-entity encodings of @ and .
	{regexp.MustCompile(`&#0*64;|&#[xX]0*40;|&commat;`), "@"},
	{regexp.MustCompile(`&#0*46;|&#[xX]0*2[eE];|&period;`), "."},
	// bracketed (at) / [at] / {at} and dot equivalents
	{regexp.MustCompile(`(?i)\s*[(\[{]\s*at\s*[)\]}]\s*`), "@"},
	{regexp.MustCompile(`(?i)\s*[(\[{]\s*dot\s*[)\]}]\s*`), "."},
	// spelled-out " at " / " dot " between address-ish characters
	{regexp.MustCompile(`(?i)([a-z0-9._%+-])\s+at\s+([a-z0-9])`), "$1@$2"},
	{regexp.MustCompile(`(?i)([a-z0-9-])\s+dot\s+([a-z0-9])`), "$1.$2"},
}

var (
	emailRe     = regexp.MustCompile(`[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
	phoneTailRe = regexp.MustCompile(`^\+?(\d{3,})([a-z][a-z0-9._%+-]+)$`)
	localRe     = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	punctRunRe  = regexp.MustCompile(`[._+-]{2,}`)
	domainRe    = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)
	tldRe       = regexp.MustCompile(`\.[a-z]{2,}$`)
)

const (
	maxLocalLen   = 40
	maxDigitRatio = 0.4
)

// Extractor validates and de-obfuscates email candidates against an
// immutable lexicon.
type Extractor struct {
	blockedSuffixes []string
	blockedExts     []string
	userPatterns    []*regexp.Regexp
	goodPrefixes    map[string]struct{}
	reserved        map[string]struct{}
	bounceFake      map[string]struct{}
	placeholders    map[string]struct{}
	freeMail        map[string]struct{}
	attrScanLimit   int
}

// NewExtractor builds an extractor from lexicon word lists.
func NewExtractor(lex *lexicon.Lexicon, attrScanLimit int) *Extractor {
	if attrScanLimit <= 0 {
		attrScanLimit = 900
	}
	return &Extractor{
		blockedSuffixes: lowerAll(lex.Email.BlockedDomainSuffixes),
		blockedExts:     lowerAll(lex.Email.BlockedExtensions),
		userPatterns:    lex.CompileUserPatterns(),
		goodPrefixes:    toSet(lex.Email.GoodPrefixes),
		reserved:        toSet(lex.Email.ReservedDomains),
		bounceFake:      toSet(lex.Email.BounceFakeDomains),
		placeholders:    toSet(lex.Email.PlaceholderUsers),
		freeMail:        toSet(lex.Email.FreeEmailDomains),
		attrScanLimit:   attrScanLimit,
	}
}

// Extract scans a text blob and returns the unique validated addresses in
// discovery order, lowercase.
func (e *Extractor) Extract(text string) []string {
	text = deobfuscate(strings.ToLower(text))

	var out []string
	seen := make(map[string]struct{})
	for _, match := range emailRe.FindAllString(text, -1) {
		email, ok := e.clean(match, text)
		if !ok {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

// ExtractFromPage unions four sources: the raw HTML, the visible body text,
// scanned element attributes, and mailto hrefs.
func (e *Extractor) ExtractFromPage(doc *goquery.Document, rawHTML string) []string {
	var all []string
	all = append(all, e.Extract(rawHTML)...)
	if doc != nil {
		all = append(all, e.mailtoAddresses(doc)...)
		all = append(all, e.Extract(attributeText(doc, e.attrScanLimit))...)
		all = append(all, e.Extract(visibleText(doc))...)
	}

	var out []string
	seen := make(map[string]struct{}, len(all))
	for _, email := range all {
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

func deobfuscate(text string) string {
	for _, rule := range deobfuscationRules {
		text = rule.pattern.ReplaceAllString(text, rule.repl)
	}
	return text
}

// clean runs one regex match through repair and validation. fullText is the
// de-obfuscated source, needed for the phone-tail independence check.
func (e *Extractor) clean(match, fullText string) (string, bool) {
	at := strings.LastIndex(match, "@")
	if at <= 0 || at == len(match)-1 {
		return "", false
	}
	local := match[:at]
	domain := match[at+1:]

	// Phone numbers concatenated with an address in rendered text show up as
	// a digit run glued to the local part. Strip it when the remainder is a
	// plausible address on its own.
	if sub := phoneTailRe.FindStringSubmatch(local); sub != nil {
		digits, rest := sub[1], sub[2]
		if e.validLocal(rest) {
			cleanEmail := rest + "@" + domain
			if len(digits) >= 5 || strings.Count(fullText, cleanEmail) > strings.Count(fullText, match) {
				local = rest
			}
		}
	}

	email := local + "@" + domain
	if !e.validLocal(local) || !e.validDomain(domain) {
		return "", false
	}
	if e.blocked(local, domain, email) {
		return "", false
	}
	return email, true
}

func (e *Extractor) validLocal(local string) bool {
	if local == "" || len(local) > maxLocalLen {
		return false
	}
	if !localRe.MatchString(local) {
		return false
	}
	if !isAlnum(local[0]) || !isAlnum(local[len(local)-1]) {
		return false
	}
	if punctRunRe.MatchString(local) {
		return false
	}
	digits := 0
	for i := 0; i < len(local); i++ {
		if local[i] >= '0' && local[i] <= '9' {
			digits++
		}
	}
	if float64(digits)/float64(len(local)) > maxDigitRatio {
		if _, good := e.goodPrefixes[local]; !good {
			return false
		}
	}
	return true
}

func (e *Extractor) validDomain(domain string) bool {
	return domainRe.MatchString(domain) && tldRe.MatchString(domain)
}

func (e *Extractor) blocked(local, domain, email string) bool {
	for _, ext := range e.blockedExts {
		if strings.HasSuffix(email, ext) {
			return true
		}
	}
	for _, suffix := range e.blockedSuffixes {
		if domain == suffix || strings.HasSuffix(domain, "."+suffix) {
			return true
		}
	}
	if _, fake := e.bounceFake[domain]; fake {
		return true
	}
	if _, reserved := e.reserved[domain]; reserved {
		return true
	}
	for _, re := range e.userPatterns {
		if re.MatchString(local) {
			return true
		}
	}
	if _, placeholder := e.placeholders[local]; placeholder {
		if _, free := e.freeMail[domain]; free {
			return true
		}
	}
	return false
}

// mailtoAddresses harvests mailto: hrefs, still subject to validation.
func (e *Extractor) mailtoAddresses(doc *goquery.Document) []string {
	var out []string
	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if idx := strings.IndexAny(addr, "?#"); idx != -1 {
			addr = addr[:idx]
		}
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" {
			return
		}
		if email, ok := e.clean(addr, addr); ok {
			out = append(out, email)
		}
	})
	return out
}

// attributeText joins attribute values that could carry an address, scanning
// at most limit elements to bound cost on huge documents.
func attributeText(doc *goquery.Document, limit int) string {
	attrs := []string{
		"href", "title", "alt", "content", "aria-label", "placeholder",
		"value", "data-email", "data-contact", "data-mail",
	}
	var b strings.Builder
	count := 0
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		count++
		if count > limit {
			return false
		}
		for _, name := range attrs {
			if v, ok := s.Attr(name); ok && strings.Contains(v, "@") {
				b.WriteString(v)
				b.WriteByte('\n')
			}
		}
		return true
	})
	return b.String()
}

// visibleText removes non-content elements and returns the body text.
func visibleText(doc *goquery.Document) string {
	doc.Find("script,style,noscript,svg,canvas,iframe").Remove()
	body := doc.Find("body")
	if body.Length() > 0 {
		return body.Text()
	}
	return doc.Text()
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
