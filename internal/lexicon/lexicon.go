// Package lexicon holds the externalized word lists driving link scoring,
// email filtering, and language detection. A lexicon is loaded once at
// startup, filled with built-in defaults for any missing category, and
// injected into the components that consume it. It is never mutated after
// construction.
package lexicon

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Lexicon groups all word-list categories.
type Lexicon struct {
	Crawl    CrawlWords    `yaml:"crawl"`
	Email    EmailWords    `yaml:"email"`
	Language LanguageWords `yaml:"language"`
	URLs     URLWords      `yaml:"urls"`
}

// CrawlWords are the tokens used to score in-domain links.
type CrawlWords struct {
	TokensContact []string `yaml:"tokens_contact"`
	TokensLegal   []string `yaml:"tokens_legal"`
	TokensAbout   []string `yaml:"tokens_about"`
	URLHints      []string `yaml:"url_hints"`
	JobKeywords   []string `yaml:"job_keywords"`
}

// EmailWords are the blocklists and allowlists applied to extracted addresses.
type EmailWords struct {
	BlockedExtensions     []string `yaml:"blocked_extensions"`
	BlockedDomainSuffixes []string `yaml:"blocked_domain_suffixes"`
	BlockedUserPatterns   []string `yaml:"blocked_user_patterns"`
	GoodPrefixes          []string `yaml:"good_prefixes"`
	ReservedDomains       []string `yaml:"reserved_domains"`
	BounceFakeDomains     []string `yaml:"bounce_fake_domains"`
	PlaceholderUsers      []string `yaml:"placeholder_users"`
	FreeEmailDomains      []string `yaml:"free_email_domains"`
	InfraDomains          []string `yaml:"infra_domains"`
	DisposableDomains     []string `yaml:"disposable_domains"`
	RoleUsers             []string `yaml:"role_users"`
}

// LanguageWords maps a two-letter language code to its stopword list.
type LanguageWords struct {
	Stopwords map[string][]string `yaml:"stopwords"`
}

// URLWords are likely-useful paths seeded into every crawl frontier.
type URLWords struct {
	CandidatePaths []string `yaml:"candidate_paths"`
}

// Load reads a lexicon file and fills missing categories with defaults.
// A missing path yields the pure defaults; a corrupt file is an error, since
// every quality filter downstream depends on the lexicon.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		lex := Default()
		return &lex, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var lex Lexicon
	if err := yaml.Unmarshal(raw, &lex); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	lex.fillDefaults()
	if err := lex.checkPatterns(); err != nil {
		return nil, err
	}
	return &lex, nil
}

// CompileUserPatterns compiles the machine-generated local-part patterns.
// Load has already verified they parse.
func (l *Lexicon) CompileUserPatterns() []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(l.Email.BlockedUserPatterns))
	for _, raw := range l.Email.BlockedUserPatterns {
		if re, err := regexp.Compile(raw); err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}

func (l *Lexicon) checkPatterns() error {
	for _, raw := range l.Email.BlockedUserPatterns {
		if _, err := regexp.Compile(raw); err != nil {
			return fmt.Errorf("invalid blocked_user_pattern %q: %w", raw, err)
		}
	}
	return nil
}

func (l *Lexicon) fillDefaults() {
	def := Default()
	fill(&l.Crawl.TokensContact, def.Crawl.TokensContact)
	fill(&l.Crawl.TokensLegal, def.Crawl.TokensLegal)
	fill(&l.Crawl.TokensAbout, def.Crawl.TokensAbout)
	fill(&l.Crawl.URLHints, def.Crawl.URLHints)
	fill(&l.Crawl.JobKeywords, def.Crawl.JobKeywords)
	fill(&l.Email.BlockedExtensions, def.Email.BlockedExtensions)
	fill(&l.Email.BlockedDomainSuffixes, def.Email.BlockedDomainSuffixes)
	fill(&l.Email.BlockedUserPatterns, def.Email.BlockedUserPatterns)
	fill(&l.Email.GoodPrefixes, def.Email.GoodPrefixes)
	fill(&l.Email.ReservedDomains, def.Email.ReservedDomains)
	fill(&l.Email.BounceFakeDomains, def.Email.BounceFakeDomains)
	fill(&l.Email.PlaceholderUsers, def.Email.PlaceholderUsers)
	fill(&l.Email.FreeEmailDomains, def.Email.FreeEmailDomains)
	fill(&l.Email.InfraDomains, def.Email.InfraDomains)
	fill(&l.Email.DisposableDomains, def.Email.DisposableDomains)
	fill(&l.Email.RoleUsers, def.Email.RoleUsers)
	fill(&l.URLs.CandidatePaths, def.URLs.CandidatePaths)
	if len(l.Language.Stopwords) == 0 {
		l.Language.Stopwords = def.Language.Stopwords
	}
}

func fill(dst *[]string, def []string) {
	if len(*dst) == 0 {
		*dst = def
	}
}

// Default returns the built-in word lists.
func Default() Lexicon {
	return Lexicon{
		Crawl: CrawlWords{
			TokensContact: []string{
				"contact", "kontakt", "contacto", "contatti", "contactez",
				"get in touch", "reach us", "write us", "schreiben sie uns",
			},
			TokensLegal: []string{
				"impressum", "imprint", "legal", "mentions legales",
				"mentions légales", "datenschutz", "privacy", "aviso legal",
			},
			TokensAbout: []string{
				"about", "über uns", "ueber uns", "team", "company",
				"unternehmen", "chi siamo", "quienes somos", "wer wir sind",
			},
			URLHints: []string{
				"contact", "kontakt", "impressum", "imprint", "about",
				"team", "legal", "support", "ueber-uns", "company",
			},
			JobKeywords: []string{
				"job", "jobs", "career", "careers", "karriere", "stellen",
				"vacancy", "vacancies", "hiring", "join-us",
			},
		},
		Email: EmailWords{
			BlockedExtensions: []string{
				".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico",
				".css", ".js", ".pdf", ".woff", ".woff2", ".ttf", ".eot",
			},
			BlockedDomainSuffixes: []string{
				"sentry.io", "sentry-cdn.com", "wixpress.com", "sentry.wixpress.com",
				"ingest.sentry.io", "2x.png", "w3.org", "schema.org",
			},
			BlockedUserPatterns: []string{
				`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`,
				`^[0-9a-f]{16,}$`,
				`^[a-z0-9]{25,}$`,
			},
			GoodPrefixes: []string{
				"info", "hello", "contact", "office", "mail", "kontakt",
				"sales", "support", "hi", "team", "service", "post",
				"kanzlei", "praxis", "buero", "bewerbung", "jobs", "karriere",
			},
			ReservedDomains: []string{
				"example.com", "example.org", "example.net", "example.de",
				"test.com", "domain.com", "yourdomain.com", "localhost",
				"email.com", "mail.com",
			},
			BounceFakeDomains: []string{
				"noreply.com", "no-reply.com", "donotreply.com", "bounce.com",
				"spam.com", "nothing.com",
			},
			PlaceholderUsers: []string{
				"example", "yourname", "your-email", "youremail", "your.email",
				"user", "username", "firstname", "lastname", "name", "email",
				"mail", "test", "demo", "sample", "john.doe", "jane.doe",
				"max.mustermann", "erika.mustermann", "mustermann",
			},
			FreeEmailDomains: []string{
				"gmail.com", "googlemail.com", "yahoo.com", "yahoo.de",
				"hotmail.com", "hotmail.de", "outlook.com", "outlook.de",
				"gmx.de", "gmx.net", "gmx.at", "web.de", "t-online.de",
				"aol.com", "icloud.com", "me.com", "proton.me",
				"protonmail.com", "mail.ru", "yandex.ru", "seznam.cz",
			},
			InfraDomains: []string{
				"wixpress.com", "squarespace.com", "godaddy.com",
				"shopify.com", "cloudflare.com", "akamai.com",
				"googleapis.com", "gstatic.com", "hubspot.com",
			},
			DisposableDomains: []string{
				"mailinator.com", "10minutemail.com", "guerrillamail.com",
				"trashmail.com", "yopmail.com", "temp-mail.org",
				"throwawaymail.com", "sharklasers.com",
			},
			RoleUsers: []string{
				"noreply", "no-reply", "donotreply", "do-not-reply",
				"postmaster", "mailer-daemon", "abuse", "webmaster",
				"hostmaster", "root", "admin",
			},
		},
		Language: LanguageWords{
			Stopwords: map[string][]string{
				"en": {
					"the", "and", "for", "with", "you", "your", "our", "are",
					"this", "that", "from", "have", "more", "about", "all",
					"can", "will", "not", "but", "what",
				},
				"de": {
					"der", "die", "das", "und", "für", "mit", "sie", "wir",
					"ihre", "unsere", "ist", "sind", "ein", "eine", "auf",
					"von", "nicht", "auch", "bei", "oder", "werden", "uns",
				},
				"fr": {
					"le", "la", "les", "et", "des", "une", "pour", "avec",
					"vous", "nous", "votre", "notre", "est", "sont", "dans",
					"sur", "pas", "plus", "ce", "qui",
				},
				"es": {
					"el", "la", "los", "las", "de", "y", "para", "con",
					"una", "nuestro", "nuestra", "es", "son", "en", "que",
					"más", "por", "como", "su", "este",
				},
				"it": {
					"il", "la", "le", "di", "e", "per", "con", "una",
					"nostro", "nostra", "è", "sono", "che", "del", "della",
					"più", "non", "come", "nel", "questo",
				},
				"nl": {
					"de", "het", "een", "en", "voor", "met", "van", "onze",
					"uw", "wij", "zijn", "is", "niet", "ook", "dat", "die",
					"aan", "bij", "meer", "over",
				},
			},
		},
		URLs: URLWords{
			CandidatePaths: []string{
				"/contact", "/contact-us", "/kontakt", "/impressum",
				"/imprint", "/about", "/about-us", "/ueber-uns", "/team",
				"/legal", "/support", "/jobs", "/karriere",
			},
		},
	}
}
