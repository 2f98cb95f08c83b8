// Package verify performs send-time email verification: syntax, DNS, and
// an optional SMTP recipient probe. Every check is tri-state; "unknown"
// means the address may still be deliverable and the caller decides what
// risk to take.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/smtp"
	"regexp"
	"strings"
	"time"

	"github.com/Ametist3d/jobhunter/internal/config"
	"github.com/Ametist3d/jobhunter/internal/lexicon"
)

// Status is the tri-state verification outcome.
type Status string

const (
	StatusDeliverable   Status = "deliverable"
	StatusUndeliverable Status = "undeliverable"
	StatusUnknown       Status = "unknown"
)

// Result holds everything learned about one address.
type Result struct {
	Email      string `json:"email"`
	Status     Status `json:"status"`
	Reason     string `json:"reason,omitempty"`
	Disposable bool   `json:"disposable"`
	RoleBased  bool   `json:"role_based"`
	FreeMail   bool   `json:"free_mail"`
	HasMX      bool   `json:"has_mx"`
	CatchAll   bool   `json:"catch_all"`
}

// MXLookup resolves the mail exchangers for a domain. Swappable for tests.
type MXLookup func(ctx context.Context, domain string) ([]*net.MX, error)

// smtpProbe asks one mail exchanger whether it accepts the recipient.
// Swappable for tests; the default dials the real host.
type smtpProbe func(ctx context.Context, mxHost, email string) (Status, error)

var syntaxRe = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

// Verifier checks addresses against DNS and optionally SMTP.
type Verifier struct {
	cfg      config.VerifyConfig
	lex      *lexicon.Lexicon
	lookupMX MXLookup
	probe    smtpProbe
	logger   *slog.Logger
}

// NewVerifier builds a verifier. A nil lookup uses the system resolver.
func NewVerifier(cfg config.VerifyConfig, lex *lexicon.Lexicon, lookup MXLookup, logger *slog.Logger) *Verifier {
	if lookup == nil {
		lookup = func(ctx context.Context, domain string) ([]*net.MX, error) {
			return net.DefaultResolver.LookupMX(ctx, domain)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	v := &Verifier{cfg: cfg, lex: lex, lookupMX: lookup, logger: logger}
	v.probe = v.dialAndProbe
	return v
}

// Verify runs the full pipeline for one address. It never returns an error;
// any failure downgrades the status to unknown with a reason.
func (v *Verifier) Verify(ctx context.Context, email string) Result {
	email = strings.ToLower(strings.TrimSpace(email))
	res := Result{Email: email, Status: StatusUnknown}

	if !syntaxRe.MatchString(email) {
		res.Status = StatusUndeliverable
		res.Reason = "invalid syntax"
		return res
	}
	at := strings.LastIndex(email, "@")
	local, domain := email[:at], email[at+1:]

	res.Disposable = containsDomain(v.lex.Email.DisposableDomains, domain)
	res.RoleBased = containsWord(v.lex.Email.RoleUsers, local)
	res.FreeMail = containsDomain(v.lex.Email.FreeEmailDomains, domain)

	if containsWord(v.lex.Email.PlaceholderUsers, local) && res.FreeMail {
		res.Status = StatusUndeliverable
		res.Reason = "placeholder address"
		return res
	}
	if res.Disposable {
		res.Status = StatusUndeliverable
		res.Reason = "disposable domain"
		return res
	}

	mxs, err := v.lookupMX(ctx, domain)
	if err != nil || len(mxs) == 0 {
		res.Reason = "no mx records"
		return res
	}
	res.HasMX = true

	// Without an SMTP probe the best DNS alone can prove is "probably".
	if !v.cfg.SMTPEnabled {
		res.Reason = "mx present, smtp probe disabled"
		return res
	}

	mxHost := strings.TrimSuffix(mxs[0].Host, ".")
	status, err := v.probe(ctx, mxHost, email)
	if err != nil {
		v.logger.Debug("smtp probe failed", "email", email, "mx", mxHost, "error", err)
		res.Reason = "smtp probe failed"
		return res
	}
	res.Status = status

	// A server that accepts a random local part accepts everything, so a
	// positive answer proves nothing about this mailbox.
	if status == StatusDeliverable {
		if accepted, err := v.probeRandom(ctx, mxHost, domain); err == nil && accepted {
			res.CatchAll = true
			res.Status = StatusUnknown
			res.Reason = "catch-all domain"
		}
	}
	return res
}

// VerifyAll runs Verify over a batch sequentially, respecting cancellation.
func (v *Verifier) VerifyAll(ctx context.Context, emails []string) []Result {
	out := make([]Result, 0, len(emails))
	for _, email := range emails {
		if ctx.Err() != nil {
			break
		}
		out = append(out, v.Verify(ctx, email))
	}
	return out
}

func (v *Verifier) probeRandom(ctx context.Context, mxHost, domain string) (bool, error) {
	random := fmt.Sprintf("nx-%d-%d@%s", time.Now().UnixNano(), rand.Intn(1_000_000), domain)
	status, err := v.probe(ctx, mxHost, random)
	if err != nil {
		return false, err
	}
	return status == StatusDeliverable, nil
}

// dialAndProbe speaks just enough SMTP to learn the recipient verdict:
// HELO, MAIL FROM, RCPT TO, QUIT. Nothing is ever sent.
func (v *Verifier) dialAndProbe(ctx context.Context, mxHost, email string) (Status, error) {
	timeout := v.cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(mxHost, "25"))
	if err != nil {
		return StatusUnknown, fmt.Errorf("dial %s: %w", mxHost, err)
	}
	_ = conn.SetDeadline(time.Now().Add(timeout))

	client, err := smtp.NewClient(conn, mxHost)
	if err != nil {
		conn.Close()
		return StatusUnknown, fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.Hello(v.cfg.HelloDomain); err != nil {
		return StatusUnknown, fmt.Errorf("helo: %w", err)
	}
	if err := client.Mail(v.cfg.FromAddress); err != nil {
		return StatusUnknown, fmt.Errorf("mail from: %w", err)
	}
	err = client.Rcpt(email)
	_ = client.Quit()

	if err == nil {
		return StatusDeliverable, nil
	}
	if code := smtpCode(err); code == 550 || code == 551 || code == 553 {
		return StatusUndeliverable, nil
	}
	return StatusUnknown, nil
}

// smtpCode pulls the leading reply code out of a textproto error string.
func smtpCode(err error) int {
	msg := err.Error()
	if len(msg) < 3 {
		return 0
	}
	code := 0
	for i := 0; i < 3; i++ {
		if msg[i] < '0' || msg[i] > '9' {
			return 0
		}
		code = code*10 + int(msg[i]-'0')
	}
	return code
}

func containsDomain(list []string, domain string) bool {
	for _, d := range list {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

func containsWord(list []string, word string) bool {
	for _, w := range list {
		if word == w {
			return true
		}
	}
	return false
}
