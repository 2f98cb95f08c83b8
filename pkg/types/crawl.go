package types

import (
	"net/url"
	"time"
)

// Page represents one fetched document.
type Page struct {
	URL             *url.URL
	FinalURL        *url.URL
	Body            []byte
	ContentType     string
	StatusCode      int
	FetchedAt       time.Time
	Rendered        bool
	ResponseLatency time.Duration
}

// NavLink is a navigation anchor captured for site context.
type NavLink struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// SiteContext is a compact structured summary of a single page, captured once
// per crawl from the first successfully fetched page. It feeds both crawl
// heuristics and downstream personalization.
type SiteContext struct {
	Title           string    `json:"title,omitempty"`
	MetaDescription string    `json:"meta_description,omitempty"`
	H1              string    `json:"h1,omitempty"`
	H2s             []string  `json:"h2s,omitempty"`
	NavLinks        []NavLink `json:"nav_links,omitempty"`
	TextSnippet     string    `json:"text_snippet,omitempty"`
	Language        string    `json:"language,omitempty"`
}

// CrawlResult is the terminal output of one site crawl: the canonical website
// origin, contact emails ranked best-guess first, the pages where at least one
// email was found, and the captured site context.
type CrawlResult struct {
	Website      string       `json:"website"`
	Emails       []string     `json:"emails"`
	EvidenceURLs []string     `json:"evidence_urls"`
	SiteContext  *SiteContext `json:"site_context,omitempty"`
}
