// Package canonical resolves messy user- or LLM-provided website strings
// into a stable scheme://host origin by probing protocol and www variants.
package canonical

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Ametist3d/jobhunter/internal/fetcher"
)

const (
	minProbeTimeout = 1500 * time.Millisecond
	maxProbeTimeout = 15 * time.Second
)

// Resolver probes origin candidates until one answers.
type Resolver struct {
	prober  fetcher.Prober
	timeout time.Duration
	logger  *slog.Logger
}

// NewResolver builds a resolver. The probe timeout is clamped to the
// documented [1.5s, 15s] range.
func NewResolver(prober fetcher.Prober, timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout < minProbeTimeout {
		timeout = minProbeTimeout
	}
	if timeout > maxProbeTimeout {
		timeout = maxProbeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{prober: prober, timeout: timeout, logger: logger}
}

// Resolve turns arbitrary input into a canonical origin. It probes at most
// four candidates in fixed order and locks onto the first that yields any
// HTTP response whose final URL is http(s). When every probe fails it falls
// back to https://host unverified; ok is false only when no hostname can be
// extracted at all. Resolve never returns an error: network failures are an
// expected part of probing.
func (r *Resolver) Resolve(ctx context.Context, input string) (string, bool) {
	host := HostFromInput(input)
	if host == "" {
		return "", false
	}

	for _, candidate := range candidates(host) {
		probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
		res, err := r.prober.Probe(probeCtx, candidate)
		cancel()
		if err != nil {
			r.logger.Debug("probe failed", "candidate", candidate, "error", err)
			continue
		}
		if res.FinalURL == nil {
			continue
		}
		scheme := strings.ToLower(res.FinalURL.Scheme)
		if scheme != "http" && scheme != "https" {
			continue
		}
		origin := scheme + "://" + strings.ToLower(res.FinalURL.Host)
		r.logger.Debug("origin resolved", "input", input, "origin", origin, "status", res.StatusCode)
		return origin, true
	}

	r.logger.Debug("all probes failed, using naive origin", "input", input, "host", host)
	return "https://" + host, true
}

// candidates builds the fixed probe order: https then http, bare host then
// www variant, skipping duplicates.
func candidates(host string) []string {
	out := make([]string, 0, 4)
	withWWW := "www." + host
	for _, scheme := range []string{"https", "http"} {
		out = append(out, scheme+"://"+host)
		if withWWW != host {
			out = append(out, scheme+"://"+withWWW)
		}
	}
	return out
}

// HostFromInput extracts a bare hostname from arbitrary text: scheme,
// path, leading www., surrounding punctuation, and a trailing dot are all
// stripped. An empty result means the input holds no usable hostname.
func HostFromInput(input string) string {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return ""
	}
	if idx := strings.Index(s, "://"); idx != -1 {
		s = s[idx+3:]
	}
	if idx := strings.IndexAny(s, "/?#"); idx != -1 {
		s = s[:idx]
	}
	if idx := strings.Index(s, "@"); idx != -1 {
		s = s[idx+1:]
	}
	s = strings.Trim(s, " \t\r\n.,;:()[]<>\"'")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimSuffix(s, ".")
	if s == "" || !strings.Contains(s, ".") {
		return ""
	}
	if _, err := url.Parse("https://" + s); err != nil {
		return ""
	}
	return s
}
