// Package crawler runs the bounded per-site crawl: seed the frontier,
// visit the most promising pages first, and collect validated contact
// emails plus a structured site summary.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ametist3d/jobhunter/internal/config"
	"github.com/Ametist3d/jobhunter/internal/extract"
	"github.com/Ametist3d/jobhunter/internal/fetcher"
	"github.com/Ametist3d/jobhunter/internal/lexicon"
	"github.com/Ametist3d/jobhunter/pkg/types"
)

// ErrNoHostname reports an input from which no usable hostname could be
// extracted.
var ErrNoHostname = errors.New("no usable hostname in input")

// OriginResolver canonicalizes a raw lead into a scheme://host origin.
type OriginResolver interface {
	Resolve(ctx context.Context, input string) (string, bool)
}

// RobotsPolicy decides whether a URL may be fetched.
type RobotsPolicy interface {
	Allowed(ctx context.Context, target *url.URL) bool
}

// Deps are the collaborators a Crawler needs. Resolver and Robots are
// optional; a nil resolver falls back to naive normalization and a nil
// robots policy allows everything.
type Deps struct {
	Fetcher  fetcher.Fetcher
	Resolver OriginResolver
	Robots   RobotsPolicy
	Limiter  *DomainLimiter
	Logger   *slog.Logger
}

// Crawler crawls one site at a time within a fixed page budget.
type Crawler struct {
	cfg        config.CrawlConfig
	lex        *lexicon.Lexicon
	fetch      fetcher.Fetcher
	resolver   OriginResolver
	robots     RobotsPolicy
	limiter    *DomainLimiter
	extractor  *extract.Extractor
	contextExt *extract.ContextExtractor
	scorer     *linkScorer
	logger     *slog.Logger
}

// New builds a crawler from configuration, the shared lexicon, and its
// collaborators.
func New(cfg config.CrawlConfig, lex *lexicon.Lexicon, deps Deps) *Crawler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = NewDomainLimiter(cfg.DelayBetweenPages.Duration, cfg.RateLimitPerHost)
	}
	return &Crawler{
		cfg:        cfg,
		lex:        lex,
		fetch:      deps.Fetcher,
		resolver:   deps.Resolver,
		robots:     deps.Robots,
		limiter:    limiter,
		extractor:  extract.NewExtractor(lex, cfg.AttributeScanLimit),
		contextExt: extract.NewContextExtractor(lex, cfg.ContextMaxChars),
		scorer:     newLinkScorer(lex),
		logger:     logger,
	}
}

// Crawl visits up to MaxPages pages of one site and returns everything it
// found. Fetch failures are part of normal operation and consume page
// budget without failing the crawl; an empty result is a valid outcome.
// The only errors are an unusable input and context cancellation.
func (c *Crawler) Crawl(ctx context.Context, website string) (types.CrawlResult, error) {
	origin, err := c.origin(ctx, website)
	if err != nil {
		return types.CrawlResult{}, err
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return types.CrawlResult{}, fmt.Errorf("parse origin %q: %w", origin, err)
	}

	result := types.CrawlResult{Website: origin}
	front := newFrontier()
	board := newScoreboard()
	emailSeen := make(map[string]struct{})
	evidenceSeen := make(map[string]struct{})

	front.pushFront(origin + "/")
	for _, path := range c.lex.URLs.CandidatePaths {
		front.pushBack(origin + path)
	}

	pages := 0
	for pages < c.cfg.MaxPages {
		if err := ctx.Err(); err != nil {
			c.finalize(&result, originURL)
			return result, err
		}
		target, ok := front.pop()
		if !ok {
			break
		}
		targetURL, err := url.Parse(target)
		if err != nil {
			continue
		}
		if c.robots != nil && !c.robots.Allowed(ctx, targetURL) {
			c.logger.Debug("disallowed by robots", "url", target)
			continue
		}
		if err := c.limiter.Wait(ctx, targetURL.Hostname()); err != nil {
			c.finalize(&result, originURL)
			return result, err
		}

		pages++
		page, err := c.fetchPage(ctx, target)
		if err != nil {
			c.logger.Debug("fetch failed", "url", target, "error", err)
			continue
		}

		body := string(page.Body)
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			c.logger.Debug("parse failed", "url", target, "error", err)
			continue
		}

		// Context comes from the first page that parses, normally the homepage.
		if result.SiteContext == nil {
			result.SiteContext = c.contextExt.Extract(body)
		}

		// The extractor mutates the document while isolating visible text, so
		// links are collected first.
		links := c.scorer.collect(doc, page.FinalURL)

		pageEmails := c.extractor.ExtractFromPage(doc, body)
		for _, email := range pageEmails {
			if _, dup := emailSeen[email]; dup {
				continue
			}
			emailSeen[email] = struct{}{}
			result.Emails = append(result.Emails, email)
		}
		if len(pageEmails) > 0 {
			evidence := page.FinalURL.String()
			if _, dup := evidenceSeen[evidence]; !dup {
				evidenceSeen[evidence] = struct{}{}
				result.EvidenceURLs = append(result.EvidenceURLs, evidence)
			}
		}

		board.merge(links)
		top := board.top(c.cfg.TopLinksToVisit)
		for i := len(top) - 1; i >= 0; i-- {
			front.pushFront(top[i])
		}

		c.logger.Debug("page crawled",
			"url", target,
			"status", page.StatusCode,
			"emails_total", len(result.Emails),
			"frontier", front.len(),
			"pages", pages,
		)
	}

	c.finalize(&result, originURL)
	c.logger.Info("site crawled",
		"website", origin,
		"pages", pages,
		"emails", len(result.Emails),
	)
	return result, nil
}

// origin resolves the lead into a canonical origin, falling back to naive
// normalization when no resolver is configured.
func (c *Crawler) origin(ctx context.Context, website string) (string, error) {
	if c.resolver != nil {
		origin, ok := c.resolver.Resolve(ctx, website)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrNoHostname, website)
		}
		return origin, nil
	}
	host := hostFromInput(website)
	if host == "" {
		return "", fmt.Errorf("%w: %q", ErrNoHostname, website)
	}
	return "https://" + host, nil
}

func (c *Crawler) fetchPage(ctx context.Context, target string) (*types.Page, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout.Duration)
	defer cancel()
	return c.fetch.FetchHTML(reqCtx, target)
}

func (c *Crawler) finalize(result *types.CrawlResult, originURL *url.URL) {
	result.Emails = rankEmails(result.Emails, originURL.Hostname(), c.lex)
}

// hostFromInput is the resolver-free fallback: strip scheme, path, and
// decoration, keep the bare hostname.
func hostFromInput(input string) string {
	s := strings.TrimSpace(strings.ToLower(input))
	if idx := strings.Index(s, "://"); idx != -1 {
		s = s[idx+3:]
	}
	if idx := strings.IndexAny(s, "/?#"); idx != -1 {
		s = s[:idx]
	}
	s = strings.Trim(s, " .,;:")
	s = strings.TrimPrefix(s, "www.")
	if !strings.Contains(s, ".") {
		return ""
	}
	return s
}
