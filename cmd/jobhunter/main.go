package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ametist3d/jobhunter/internal/canonical"
	"github.com/Ametist3d/jobhunter/internal/config"
	"github.com/Ametist3d/jobhunter/internal/crawler"
	"github.com/Ametist3d/jobhunter/internal/fetcher"
	"github.com/Ametist3d/jobhunter/internal/lexicon"
	"github.com/Ametist3d/jobhunter/internal/robots"
	"github.com/Ametist3d/jobhunter/internal/storage"
	"github.com/Ametist3d/jobhunter/internal/verify"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration")
	verifyEmails := flag.Bool("verify", false, "verify extracted emails before output")
	flag.Parse()

	if err := run(*configPath, *verifyEmails, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// output is one JSON line per crawled site.
type output struct {
	Website      string              `json:"website"`
	Emails       []string            `json:"emails"`
	EvidenceURLs []string            `json:"evidence_urls,omitempty"`
	SiteContext  any                 `json:"site_context,omitempty"`
	Verified     []verify.Result     `json:"verified,omitempty"`
	Error        string              `json:"error,omitempty"`
	Elapsed      jsonDurationSeconds `json:"elapsed_seconds"`
}

type jsonDurationSeconds time.Duration

func (d jsonDurationSeconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Seconds())
}

func run(configPath string, verifyEmails bool, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}

	sites := args
	if len(sites) == 0 {
		sites = cfg.Crawl.Sites
	}
	if len(sites) == 0 {
		return fmt.Errorf("no sites given: pass them as arguments or set crawl.sites")
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	lex, err := lexicon.Load(cfg.Lexicon.Path)
	if err != nil {
		return fmt.Errorf("load lexicon: %w", err)
	}

	httpFetcher, err := fetcher.NewHTTPFetcher(fetcher.Options{
		UserAgent:    cfg.Crawl.UserAgent,
		Headers:      cfg.Crawl.Headers,
		Timeout:      cfg.Crawl.RequestTimeout.Duration,
		MaxBodyBytes: cfg.Crawl.MaxBodyBytes,
		ProxyURL:     cfg.Crawl.ProxyURL,
	})
	if err != nil {
		return fmt.Errorf("build fetcher: %w", err)
	}

	var fetch fetcher.Fetcher = httpFetcher
	if cfg.Rendering.Enabled {
		renderer := fetcher.NewChromedpRenderer(fetcher.RenderOptions{
			Timeout:            cfg.Rendering.Timeout.Duration,
			WaitForSelector:    cfg.Rendering.WaitForSelector,
			UserAgent:          cfg.Crawl.UserAgent,
			MaxBodyBytes:       cfg.Crawl.MaxBodyBytes,
			DisableHeadless:    cfg.Rendering.DisableHeadless,
			ConcurrentSessions: cfg.Rendering.ConcurrentSessions,
		}, logger)
		fetch = fetcher.NewComposite(httpFetcher, renderer, logger)
	}

	resolver := canonical.NewResolver(httpFetcher, cfg.Canonical.ProbeTimeout.Duration, logger)
	agent := robots.NewAgent(cfg.Robots, httpFetcher.Client())

	var store *storage.ContactStore
	if cfg.DB.DSN != "" {
		store, err = storage.NewContactStore(cfg.DB, logger)
		if err != nil {
			return fmt.Errorf("open contact store: %w", err)
		}
		defer store.Close()
	}

	var verifier *verify.Verifier
	if verifyEmails {
		verifier = verify.NewVerifier(cfg.Verify, lex, nil, logger)
	}

	c := crawler.New(cfg.Crawl, lex, crawler.Deps{
		Fetcher:  fetch,
		Resolver: resolver,
		Robots:   agent,
		Logger:   logger,
	})

	// Resolving origins is the one concurrent phase; crawling stays
	// sequential to keep the politeness contract simple.
	resolutions := resolver.ResolveAll(ctx, sites, cfg.Canonical.Concurrency)

	enc := json.NewEncoder(os.Stdout)
	for i, resolution := range resolutions {
		if ctx.Err() != nil {
			logger.Info("interrupted", "remaining", len(resolutions)-i)
			break
		}
		if i > 0 && cfg.Crawl.DelayBetweenSites.Duration > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(cfg.Crawl.DelayBetweenSites.Duration):
			}
		}

		line := output{Website: resolution.Origin, Emails: []string{}}
		if !resolution.OK {
			line.Website = resolution.Input
			line.Error = "no usable hostname"
			if err := enc.Encode(line); err != nil {
				return err
			}
			continue
		}

		start := time.Now()
		result, err := c.Crawl(ctx, resolution.Origin)
		line.Elapsed = jsonDurationSeconds(time.Since(start))
		line.Website = result.Website
		line.Emails = result.Emails
		if line.Emails == nil {
			line.Emails = []string{}
		}
		line.EvidenceURLs = result.EvidenceURLs
		if result.SiteContext != nil {
			line.SiteContext = result.SiteContext
		}
		if err != nil {
			line.Error = err.Error()
		}

		if verifier != nil && len(result.Emails) > 0 {
			line.Verified = verifier.VerifyAll(ctx, result.Emails)
		}
		if store != nil && err == nil {
			if sErr := store.SaveResult(ctx, result); sErr != nil {
				logger.Error("store failed", "website", result.Website, "error", sErr)
			}
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Structured {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
