package detect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/leakprobe/internal/lexicon"
)

const minTermLength = 3

// Options bounds the detectors
type Options struct {
	MinPhraseWords int     // Shortest shared window that counts (default 4)
	MaxPhraseWords int     // Longest window tried first (default 6)
	YesNoOverlap   float64 // Content-word fraction above which a yes/no question restates the claim (default 0.5)
}

// DefaultOptions returns the standard detector bounds
func DefaultOptions() Options {
	return Options{MinPhraseWords: 4, MaxPhraseWords: 6, YesNoOverlap: 0.5}
}

// Detector finds lexical leakage signals between a question and a claim.
// It holds no mutable state and is safe for concurrent use.
type Detector struct {
	classifier *lexicon.Classifier
	opts       Options
}

// NewDetector creates a detector. Zero option values take their defaults.
func NewDetector(classifier *lexicon.Classifier, opts Options) *Detector {
	def := DefaultOptions()
	if opts.MinPhraseWords <= 0 {
		opts.MinPhraseWords = def.MinPhraseWords
	}
	if opts.MaxPhraseWords < opts.MinPhraseWords {
		opts.MaxPhraseWords = max(def.MaxPhraseWords, opts.MinPhraseWords)
	}
	if opts.YesNoOverlap <= 0 {
		opts.YesNoOverlap = def.YesNoOverlap
	}
	return &Detector{classifier: classifier, opts: opts}
}

// SpecificOverlap counts claim entities that appear verbatim in the question.
// Entities shorter than three characters and generic entities are ignored.
// Entities are not deduplicated: a repeated entity counts each time.
func (d *Detector) SpecificOverlap(question string, entities []string) (int, []string) {
	return d.countPresent(question, entities)
}

// BannedTerms counts non-generic banned terms that appear in the question
func (d *Detector) BannedTerms(question string, banned []string) (int, []string) {
	return d.countPresent(question, banned)
}

func (d *Detector) countPresent(question string, terms []string) (int, []string) {
	lowerQ := strings.ToLower(question)
	var matched []string
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if len([]rune(term)) < minTermLength {
			continue
		}
		if d.classifier.IsGeneric(term) {
			continue
		}
		if strings.Contains(lowerQ, strings.ToLower(term)) {
			matched = append(matched, term)
		}
	}
	return len(matched), matched
}

// DistinctivePhrase returns the longest, then leftmost, window of question
// words that also occurs in the claim. Windows with fewer than two words that
// are neither stopwords nor generic are skipped.
func (d *Detector) DistinctivePhrase(questionWords, claimWords []string) (string, bool) {
	if len(questionWords) == 0 || len(claimWords) == 0 {
		return "", false
	}

	claimText := strings.Join(claimWords, " ")
	for size := d.opts.MaxPhraseWords; size >= d.opts.MinPhraseWords; size-- {
		for start := 0; start+size <= len(questionWords); start++ {
			window := questionWords[start : start+size]
			if d.distinctiveCount(window) < 2 {
				continue
			}
			phrase := strings.Join(window, " ")
			if strings.Contains(claimText, phrase) {
				return phrase, true
			}
		}
	}
	return "", false
}

func (d *Detector) distinctiveCount(window []string) int {
	n := 0
	for _, w := range window {
		if stopwords[w] || d.classifier.IsGeneric(w) {
			continue
		}
		n++
	}
	return n
}

// AnswerEmbedding checks, in priority order, for a shared multi-digit number,
// a shared percentage, and a yes/no question that restates the claim.
// The first pattern that fires wins.
func (d *Detector) AnswerEmbedding(question, claim string) (string, bool) {
	claimNumbers := numberTokens(claim)
	for year := range datedYears(claim) {
		delete(claimNumbers, year)
	}
	if shared := intersect(claimNumbers, numberTokens(question)); len(shared) > 0 {
		return fmt.Sprintf("question contains number %s from the claim", shared[0]), true
	}

	if shared := intersect(percentTokens(claim), percentTokens(question)); len(shared) > 0 {
		return fmt.Sprintf("question contains percentage %q from the claim", shared[0]), true
	}

	qWords := Words(question)
	if len(qWords) == 0 || !auxiliaries[qWords[0]] {
		return "", false
	}

	content := contentWords(qWords[1:])
	if len(content) == 0 {
		return "", false
	}

	claimContent := make(map[string]bool)
	for _, w := range contentWords(Words(claim)) {
		claimContent[w] = true
	}

	shared := 0
	for _, w := range content {
		if claimContent[w] {
			shared++
		}
	}

	fraction := float64(shared) / float64(len(content))
	if fraction > d.opts.YesNoOverlap {
		return fmt.Sprintf("yes/no question restates the claim (%d/%d content words shared)", shared, len(content)), true
	}
	return "", false
}

// intersect returns the sorted keys present in both sets
func intersect(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
