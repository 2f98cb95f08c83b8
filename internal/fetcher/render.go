package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/Ametist3d/jobhunter/pkg/types"
)

// RenderOptions configures the JavaScript rendering fallback.
type RenderOptions struct {
	Timeout            time.Duration
	WaitForSelector    string
	UserAgent          string
	MaxBodyBytes       int64
	DisableHeadless    bool
	ConcurrentSessions int
}

// Renderer executes JavaScript and returns the rendered DOM.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (*types.Page, error)
}

// ChromedpRenderer runs headless Chrome sessions with bounded concurrency.
// It exists for script-only sites whose plain HTTP body carries no usable
// text; most crawls never touch it.
type ChromedpRenderer struct {
	opts      RenderOptions
	semaphore chan struct{}
	logger    *slog.Logger
}

// NewChromedpRenderer constructs a renderer with bounded concurrency.
func NewChromedpRenderer(opts RenderOptions, logger *slog.Logger) *ChromedpRenderer {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 3 * 1024 * 1024
	}
	if opts.ConcurrentSessions <= 0 {
		opts.ConcurrentSessions = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromedpRenderer{
		opts:      opts,
		semaphore: make(chan struct{}, opts.ConcurrentSessions),
		logger:    logger,
	}
}

// Render navigates to the target URL and exports the final DOM outer HTML.
func (r *ChromedpRenderer) Render(parentCtx context.Context, rawURL string) (*types.Page, error) {
	reqURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse render url: %w", err)
	}

	select {
	case r.semaphore <- struct{}{}:
		defer func() { <-r.semaphore }()
	case <-parentCtx.Done():
		return nil, parentCtx.Err()
	}

	ctx, cancel := context.WithTimeout(parentCtx, r.opts.Timeout)
	defer cancel()

	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", !r.opts.DisableHeadless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	}
	if ua := strings.TrimSpace(r.opts.UserAgent); ua != "" {
		execOpts = append(execOpts, chromedp.UserAgent(ua))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	start := time.Now()
	var html string
	var finalURL string

	actions := []chromedp.Action{chromedp.Navigate(reqURL.String())}
	if sel := strings.TrimSpace(r.opts.WaitForSelector); sel != "" {
		actions = append(actions,
			chromedp.WaitReady(sel, chromedp.ByQuery),
			chromedp.Sleep(250*time.Millisecond),
		)
	} else {
		actions = append(actions, chromedp.Sleep(1200*time.Millisecond))
	}
	actions = append(actions,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)

	if err := chromedp.Run(chromeCtx, actions...); err != nil {
		return nil, fmt.Errorf("chromedp run: %w", err)
	}

	if int64(len(html)) > r.opts.MaxBodyBytes {
		html = html[:r.opts.MaxBodyBytes]
	}

	parsedFinal := reqURL
	if finalURL != "" {
		if u, err := url.Parse(finalURL); err == nil {
			parsedFinal = u
		}
	}

	latency := time.Since(start)
	r.logger.Debug("render complete",
		"url", reqURL.String(),
		"latency_ms", latency.Milliseconds(),
		"html_bytes", len(html),
	)
	return &types.Page{
		URL:             reqURL,
		FinalURL:        parsedFinal,
		Body:            []byte(html),
		ContentType:     "text/html; charset=utf-8",
		StatusCode:      200,
		FetchedAt:       time.Now(),
		Rendered:        true,
		ResponseLatency: latency,
	}, nil
}

// Composite fetches over HTTP and falls back to the renderer when the body
// comes back effectively empty of markup.
type Composite struct {
	httpFetcher Fetcher
	renderer    Renderer
	logger      *slog.Logger
}

// NewComposite builds a composite fetcher from HTTP and an optional renderer.
func NewComposite(httpFetcher Fetcher, renderer Renderer, logger *slog.Logger) *Composite {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composite{httpFetcher: httpFetcher, renderer: renderer, logger: logger}
}

// FetchHTML delegates to HTTP first, rendering only when the page body has
// no visible text to offer.
func (c *Composite) FetchHTML(ctx context.Context, rawURL string) (*types.Page, error) {
	page, err := c.httpFetcher.FetchHTML(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if c.renderer == nil || !looksScriptOnly(page.Body) {
		return page, nil
	}
	rendered, rerr := c.renderer.Render(ctx, rawURL)
	if rerr != nil {
		c.logger.Warn("renderer failed, using http body", "url", rawURL, "error", rerr)
		return page, nil
	}
	return rendered, nil
}

var (
	scriptRe = regexp.MustCompile(`(?is)<script.*?</script>`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
)

// looksScriptOnly guesses whether a body is a JS shell with no real content:
// it has markup but almost no text outside script tags.
func looksScriptOnly(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	s := string(body)
	if !strings.Contains(s, "<script") {
		return false
	}
	stripped := scriptRe.ReplaceAllString(s, "")
	stripped = tagRe.ReplaceAllString(stripped, " ")
	return len(strings.Fields(stripped)) < 20
}
