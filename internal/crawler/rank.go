package crawler

import (
	"sort"
	"strings"

	"github.com/Ametist3d/jobhunter/internal/lexicon"
)

// Ranking weights for extracted addresses. Domain affinity to the crawled
// site outweighs any local-part preference.
const (
	rankExactDomain = 50
	rankSubdomain   = 40
	rankInfraDomain = -20
)

// Local-part bonuses in preference order.
var prefixBonuses = []struct {
	prefix string
	bonus  int
}{
	{"info", 12},
	{"hello", 11},
	{"contact", 10},
	{"office", 9},
	{"sales", 8},
	{"support", 7},
}

// rankEmails orders addresses by descending outreach value for the given
// site. The sort is stable, so equally ranked addresses keep their
// discovery order.
func rankEmails(emails []string, siteHost string, lex *lexicon.Lexicon) []string {
	base := stripWWW(siteHost)
	ranked := make([]string, len(emails))
	copy(ranked, emails)

	scores := make(map[string]int, len(ranked))
	for _, e := range ranked {
		scores[e] = emailScore(e, base, lex)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})
	return ranked
}

func emailScore(email, baseHost string, lex *lexicon.Lexicon) int {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return 0
	}
	local, domain := email[:at], email[at+1:]

	score := 0
	switch {
	case domain == baseHost:
		score += rankExactDomain
	case strings.HasSuffix(domain, "."+baseHost):
		score += rankSubdomain
	}

	for _, pb := range prefixBonuses {
		if local == pb.prefix || strings.HasPrefix(local, pb.prefix+".") {
			score += pb.bonus
			break
		}
	}

	for _, infra := range lex.Email.InfraDomains {
		if domain == infra || strings.HasSuffix(domain, "."+infra) {
			score += rankInfraDomain
			break
		}
	}
	return score
}
