package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures everything required to initialise the contact crawler.
type Config struct {
	Crawl     CrawlConfig     `yaml:"crawl"`
	Canonical CanonicalConfig `yaml:"canonical"`
	Robots    RobotsConfig    `yaml:"robots"`
	Rendering RenderingConfig `yaml:"rendering"`
	Lexicon   LexiconConfig   `yaml:"lexicon"`
	Verify    VerifyConfig    `yaml:"verify"`
	DB        SQLConfig       `yaml:"db"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CrawlConfig controls the per-site crawl loop: page budget, timeouts,
// politeness delays, and link re-injection.
type CrawlConfig struct {
	Sites              []string          `yaml:"sites"`
	MaxPages           int               `yaml:"max_pages"`
	RequestTimeout     Duration          `yaml:"request_timeout"`
	DelayBetweenPages  Duration          `yaml:"delay_between_pages"`
	TopLinksToVisit    int               `yaml:"top_links_to_visit"`
	UserAgent          string            `yaml:"user_agent"`
	Headers            map[string]string `yaml:"headers"`
	ProxyURL           string            `yaml:"proxy_url"`
	MaxBodyBytes       int64             `yaml:"max_body_bytes"`
	AttributeScanLimit int               `yaml:"attribute_scan_limit"`
	ContextMaxChars    int               `yaml:"context_max_chars"`
	RateLimitPerHost   RateLimitConfig   `yaml:"rate_limit_per_host"`
	DelayBetweenSites  Duration          `yaml:"delay_between_sites"`
}

// CanonicalConfig controls origin resolution probes and lead fan-out.
type CanonicalConfig struct {
	ProbeTimeout Duration `yaml:"probe_timeout"`
	Concurrency  int      `yaml:"concurrency"`
}

// RateLimitConfig applies a token bucket per host on top of the fixed delay.
type RateLimitConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

// RobotsConfig configures robots.txt handling.
type RobotsConfig struct {
	Respect   bool     `yaml:"respect"`
	Overrides []string `yaml:"overrides"`
	UserAgent string   `yaml:"user_agent"`
	CacheTTL  Duration `yaml:"cache_ttl"`
}

// RenderingConfig controls the optional JavaScript rendering fallback.
type RenderingConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Timeout            Duration `yaml:"timeout"`
	WaitForSelector    string   `yaml:"wait_for_selector"`
	ConcurrentSessions int      `yaml:"concurrent_sessions"`
	DisableHeadless    bool     `yaml:"disable_headless"`
}

// LexiconConfig points at the externalized word-list file. An empty path
// means built-in defaults only.
type LexiconConfig struct {
	Path string `yaml:"path"`
}

// VerifyConfig controls send-time email verification.
type VerifyConfig struct {
	SMTPEnabled bool     `yaml:"smtp_enabled"`
	HelloDomain string   `yaml:"hello_domain"`
	FromAddress string   `yaml:"from_address"`
	Timeout     Duration `yaml:"timeout"`
}

// SQLConfig describes the optional relational store for crawl results.
type SQLConfig struct {
	Driver          string   `yaml:"driver"`
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool     `yaml:"auto_migrate"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Probe timeout bounds per the canonicalizer contract.
const (
	MinProbeTimeout = 1500 * time.Millisecond
	MaxProbeTimeout = 15 * time.Second
)

// Top-link re-injection bounds and canonicalization fan-out cap.
const (
	MinTopLinks         = 3
	MaxTopLinks         = 15
	MaxCanonicalWorkers = 25
)

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Crawl: CrawlConfig{
			MaxPages:           8,
			RequestTimeout:     DurationFrom(12 * time.Second),
			DelayBetweenPages:  DurationFrom(350 * time.Millisecond),
			TopLinksToVisit:    8,
			UserAgent:          "jobhunter-bot/1.0 (+https://github.com/Ametist3d/jobhunter)",
			Headers:            map[string]string{},
			MaxBodyBytes:       3 * 1024 * 1024,
			AttributeScanLimit: 900,
			ContextMaxChars:    2500,
			DelayBetweenSites:  DurationFrom(1 * time.Second),
		},
		Canonical: CanonicalConfig{
			ProbeTimeout: DurationFrom(8 * time.Second),
			Concurrency:  10,
		},
		Robots: RobotsConfig{
			Respect:   true,
			Overrides: []string{},
			UserAgent: "jobhunter-bot/1.0",
			CacheTTL:  DurationFrom(6 * time.Hour),
		},
		Rendering: RenderingConfig{
			Enabled:            false,
			Timeout:            DurationFrom(15 * time.Second),
			ConcurrentSessions: 1,
		},
		Verify: VerifyConfig{
			SMTPEnabled: false,
			HelloDomain: "localhost",
			FromAddress: "verify@localhost",
			Timeout:     DurationFrom(10 * time.Second),
		},
		DB: SQLConfig{
			AutoMigrate: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants for the crawler configuration.
func (c Config) Validate() error {
	if c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be > 0 (got %d)", c.Crawl.MaxPages)
	}
	if c.Crawl.RequestTimeout.Duration <= 0 {
		return errors.New("crawl.request_timeout must be > 0")
	}
	if c.Crawl.DelayBetweenPages.Duration < 0 {
		return errors.New("crawl.delay_between_pages must be >= 0")
	}
	if c.Crawl.MaxBodyBytes <= 0 {
		return fmt.Errorf("crawl.max_body_bytes must be > 0 (got %d)", c.Crawl.MaxBodyBytes)
	}
	if strings.TrimSpace(c.Crawl.UserAgent) == "" {
		return errors.New("crawl.user_agent must be set")
	}
	if c.Canonical.Concurrency <= 0 {
		return fmt.Errorf("canonical.concurrency must be > 0 (got %d)", c.Canonical.Concurrency)
	}
	if rl := c.Crawl.RateLimitPerHost; rl.Requests < 0 {
		return fmt.Errorf("crawl.rate_limit_per_host.requests must be >= 0 (got %d)", rl.Requests)
	}
	if c.Robots.Respect && strings.TrimSpace(c.Robots.UserAgent) == "" {
		return errors.New("robots.user_agent must be set")
	}
	if c.Verify.SMTPEnabled {
		if strings.TrimSpace(c.Verify.HelloDomain) == "" {
			return errors.New("verify.hello_domain must be set when verify.smtp_enabled is true")
		}
		if strings.TrimSpace(c.Verify.FromAddress) == "" {
			return errors.New("verify.from_address must be set when verify.smtp_enabled is true")
		}
	}
	return nil
}

// normalise trims inputs and clamps tunables into their documented ranges.
func (c *Config) normalise() {
	for i := range c.Crawl.Sites {
		c.Crawl.Sites[i] = strings.TrimSpace(c.Crawl.Sites[i])
	}
	c.Crawl.UserAgent = strings.TrimSpace(c.Crawl.UserAgent)
	c.Robots.UserAgent = strings.TrimSpace(c.Robots.UserAgent)
	c.Lexicon.Path = strings.TrimSpace(c.Lexicon.Path)

	if c.Crawl.TopLinksToVisit < MinTopLinks {
		c.Crawl.TopLinksToVisit = MinTopLinks
	}
	if c.Crawl.TopLinksToVisit > MaxTopLinks {
		c.Crawl.TopLinksToVisit = MaxTopLinks
	}
	if c.Canonical.ProbeTimeout.Duration < MinProbeTimeout {
		c.Canonical.ProbeTimeout = DurationFrom(MinProbeTimeout)
	}
	if c.Canonical.ProbeTimeout.Duration > MaxProbeTimeout {
		c.Canonical.ProbeTimeout = DurationFrom(MaxProbeTimeout)
	}
	if c.Canonical.Concurrency > MaxCanonicalWorkers {
		c.Canonical.Concurrency = MaxCanonicalWorkers
	}
	if c.Crawl.AttributeScanLimit <= 0 {
		c.Crawl.AttributeScanLimit = 900
	}
	if c.Crawl.ContextMaxChars <= 0 {
		c.Crawl.ContextMaxChars = 2500
	}

	if len(c.Robots.Overrides) > 0 {
		c.Robots.Overrides = dedupeLower(c.Robots.Overrides)
	}
}

func dedupeLower(values []string) []string {
	unique := make(map[string]struct{}, len(values))
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := unique[v]; ok {
			continue
		}
		unique[v] = struct{}{}
		cleaned = append(cleaned, v)
	}
	sort.Strings(cleaned)
	return cleaned
}

// Enabled reports whether per-host rate limiting is active.
func (r RateLimitConfig) Enabled() bool {
	return r.Requests > 0 && !r.Window.IsZero()
}
