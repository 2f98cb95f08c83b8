package verify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/Ametist3d/jobhunter/internal/config"
	"github.com/Ametist3d/jobhunter/internal/lexicon"
)

func mxFound(ctx context.Context, domain string) ([]*net.MX, error) {
	return []*net.MX{{Host: "mx1." + domain + ".", Pref: 10}}, nil
}

func mxMissing(ctx context.Context, domain string) ([]*net.MX, error) {
	return nil, errors.New("no such host")
}

func newTestVerifier(t *testing.T, cfg config.VerifyConfig, lookup MXLookup) *Verifier {
	t.Helper()
	lex := lexicon.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewVerifier(cfg, &lex, lookup, logger)
}

func TestVerifySyntaxFailure(t *testing.T) {
	v := newTestVerifier(t, config.VerifyConfig{}, mxFound)

	for _, email := range []string{"", "not-an-email", "a@b", "spaces in@firma.de"} {
		res := v.Verify(context.Background(), email)
		if res.Status != StatusUndeliverable {
			t.Fatalf("expected %q undeliverable, got %s", email, res.Status)
		}
	}
}

func TestVerifyNoMX(t *testing.T) {
	v := newTestVerifier(t, config.VerifyConfig{}, mxMissing)

	res := v.Verify(context.Background(), "info@firma.de")
	if res.Status != StatusUnknown {
		t.Fatalf("expected unknown without mx, got %s", res.Status)
	}
	if res.HasMX {
		t.Fatal("expected HasMX false")
	}
}

func TestVerifyMXOnlyStaysUnknown(t *testing.T) {
	v := newTestVerifier(t, config.VerifyConfig{SMTPEnabled: false}, mxFound)

	res := v.Verify(context.Background(), "info@firma.de")
	if res.Status != StatusUnknown {
		t.Fatalf("expected unknown without smtp probe, got %s", res.Status)
	}
	if !res.HasMX {
		t.Fatal("expected HasMX true")
	}
}

func TestVerifyDisposableAndRoleFlags(t *testing.T) {
	v := newTestVerifier(t, config.VerifyConfig{}, mxFound)

	res := v.Verify(context.Background(), "someone@mailinator.com")
	if res.Status != StatusUndeliverable || !res.Disposable {
		t.Fatalf("expected disposable undeliverable, got %+v", res)
	}

	res = v.Verify(context.Background(), "postmaster@firma.de")
	if !res.RoleBased {
		t.Fatalf("expected role flag, got %+v", res)
	}

	res = v.Verify(context.Background(), "anna@gmail.com")
	if !res.FreeMail {
		t.Fatalf("expected free mail flag, got %+v", res)
	}
}

func TestVerifyPlaceholderOnFreeMail(t *testing.T) {
	v := newTestVerifier(t, config.VerifyConfig{}, mxFound)

	res := v.Verify(context.Background(), "john.doe@gmail.com")
	if res.Status != StatusUndeliverable {
		t.Fatalf("expected placeholder undeliverable, got %+v", res)
	}
}

func TestVerifySMTPVerdicts(t *testing.T) {
	cfg := config.VerifyConfig{
		SMTPEnabled: true,
		HelloDomain: "verifier.test",
		FromAddress: "check@verifier.test",
	}

	cases := []struct {
		name       string
		probe      smtpProbe
		wantStatus Status
		wantCatch  bool
	}{
		{
			"mailbox rejected",
			func(ctx context.Context, mxHost, email string) (Status, error) {
				return StatusUndeliverable, nil
			},
			StatusUndeliverable, false,
		},
		{
			"probe error",
			func(ctx context.Context, mxHost, email string) (Status, error) {
				return StatusUnknown, errors.New("connection refused")
			},
			StatusUnknown, false,
		},
		{
			"accepted, random rejected",
			func(ctx context.Context, mxHost, email string) (Status, error) {
				if strings.HasPrefix(email, "nx-") {
					return StatusUndeliverable, nil
				}
				return StatusDeliverable, nil
			},
			StatusDeliverable, false,
		},
		{
			"catch-all accepts everything",
			func(ctx context.Context, mxHost, email string) (Status, error) {
				return StatusDeliverable, nil
			},
			StatusUnknown, true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newTestVerifier(t, cfg, mxFound)
			v.probe = tc.probe

			res := v.Verify(context.Background(), "info@firma.de")
			if res.Status != tc.wantStatus {
				t.Fatalf("expected status %s, got %s (%+v)", tc.wantStatus, res.Status, res)
			}
			if res.CatchAll != tc.wantCatch {
				t.Fatalf("expected catch-all %v, got %+v", tc.wantCatch, res)
			}
		})
	}
}

func TestVerifyAllRespectsCancellation(t *testing.T) {
	v := newTestVerifier(t, config.VerifyConfig{}, mxFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := v.VerifyAll(ctx, []string{"a@firma.de", "b@firma.de"})
	if len(results) != 0 {
		t.Fatalf("expected no results after cancellation, got %d", len(results))
	}
}

func TestSMTPCode(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"550 5.1.1 user unknown", 550},
		{"451 try again later", 451},
		{"no code here", 0},
		{"55", 0},
	}
	for _, tc := range cases {
		if got := smtpCode(errors.New(tc.in)); got != tc.want {
			t.Fatalf("smtpCode(%q): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}
