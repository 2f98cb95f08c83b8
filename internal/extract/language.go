package extract

import "strings"

// Confidence thresholds for the stopword heuristic. These are empirical
// tunables, not derived values; override them via the setters when a corpus
// suggests different cut-offs.
const (
	defaultMinScore   = 3
	defaultMinGap     = 1
	minDetectableText = 200
)

// LanguageDetector infers a two-letter language code from stopword
// frequencies. It only answers when one language clearly wins; otherwise it
// returns the empty string for "undetermined".
type LanguageDetector struct {
	stopwords map[string]map[string]struct{}
	minScore  int
	minGap    int
}

// NewLanguageDetector builds a detector from per-language stopword lists.
func NewLanguageDetector(lists map[string][]string) *LanguageDetector {
	stopwords := make(map[string]map[string]struct{}, len(lists))
	for lang, words := range lists {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				set[w] = struct{}{}
			}
		}
		if len(set) > 0 {
			stopwords[strings.ToLower(lang)] = set
		}
	}
	return &LanguageDetector{
		stopwords: stopwords,
		minScore:  defaultMinScore,
		minGap:    defaultMinGap,
	}
}

// SetThresholds overrides the confidence tunables. Non-positive values keep
// the current setting.
func (d *LanguageDetector) SetThresholds(minScore, minGap int) {
	if minScore > 0 {
		d.minScore = minScore
	}
	if minGap > 0 {
		d.minGap = minGap
	}
}

// Detect scores each configured language by stopword occurrences in the
// text. It requires at least 200 cleaned characters and accepts the top
// language only when its score passes minScore and beats the runner-up by
// minGap.
func (d *LanguageDetector) Detect(text string) string {
	cleaned := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if len(cleaned) < minDetectableText {
		return ""
	}

	tokens := strings.FieldsFunc(cleaned, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') &&
			r != 'ä' && r != 'ö' && r != 'ü' && r != 'ß' &&
			r != 'é' && r != 'è' && r != 'à' && r != 'ç' && r != 'ì' && r != 'ò'
	})

	best, second := "", 0
	bestScore := 0
	for lang, set := range d.stopwords {
		score := 0
		for _, tok := range tokens {
			if _, ok := set[tok]; ok {
				score++
			}
		}
		switch {
		case score > bestScore:
			second = bestScore
			best, bestScore = lang, score
		case score > second:
			second = score
		}
	}

	if bestScore < d.minScore || bestScore-second < d.minGap {
		return ""
	}
	return best
}
