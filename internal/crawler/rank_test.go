package crawler

import (
	"testing"

	"github.com/Ametist3d/jobhunter/internal/lexicon"
)

func TestRankEmailsDomainAffinity(t *testing.T) {
	lex := lexicon.Default()
	emails := []string{
		"someone@gmail.com",
		"kontakt@mail.firma.de",
		"info@firma.de",
	}
	got := rankEmails(emails, "www.firma.de", &lex)

	if got[0] != "info@firma.de" {
		t.Fatalf("expected exact-domain info address first, got %v", got)
	}
	if got[1] != "kontakt@mail.firma.de" {
		t.Fatalf("expected subdomain address second, got %v", got)
	}
	if got[2] != "someone@gmail.com" {
		t.Fatalf("expected foreign domain last, got %v", got)
	}
}

func TestRankEmailsPrefixOrder(t *testing.T) {
	lex := lexicon.Default()
	emails := []string{
		"support@firma.de",
		"sales@firma.de",
		"office@firma.de",
		"contact@firma.de",
		"hello@firma.de",
		"info@firma.de",
	}
	got := rankEmails(emails, "firma.de", &lex)

	want := []string{
		"info@firma.de",
		"hello@firma.de",
		"contact@firma.de",
		"office@firma.de",
		"sales@firma.de",
		"support@firma.de",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestRankEmailsStableOnTies(t *testing.T) {
	lex := lexicon.Default()
	emails := []string{
		"anna.schmidt@firma.de",
		"ben.weber@firma.de",
	}
	got := rankEmails(emails, "firma.de", &lex)

	if got[0] != "anna.schmidt@firma.de" || got[1] != "ben.weber@firma.de" {
		t.Fatalf("expected discovery order preserved on equal rank, got %v", got)
	}
}

func TestRankEmailsInfraPenalty(t *testing.T) {
	lex := lexicon.Default()
	emails := []string{
		"contact@mail.hubspot.com",
		"anna@other-company.de",
	}
	got := rankEmails(emails, "firma.de", &lex)

	if got[0] != "anna@other-company.de" {
		t.Fatalf("expected infra domain penalised below plain foreign address, got %v", got)
	}
}

func TestRankEmailsDoesNotMutateInput(t *testing.T) {
	lex := lexicon.Default()
	emails := []string{"z@gmail.com", "info@firma.de"}
	_ = rankEmails(emails, "firma.de", &lex)

	if emails[0] != "z@gmail.com" {
		t.Fatalf("input slice mutated: %v", emails)
	}
}
