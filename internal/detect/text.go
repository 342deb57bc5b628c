package detect

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// stopwords contains common English words that never make a phrase distinctive
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "am": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"being": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "not": true,
	"no": true, "and": true, "or": true, "but": true, "if": true,
	"then": true, "than": true, "so": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "into": true,
	"of": true, "on": true, "to": true, "with": true, "about": true,
	"up": true, "out": true, "it": true, "its": true, "this": true,
	"that": true, "these": true, "those": true, "what": true, "which": true,
	"who": true, "whom": true, "whose": true, "how": true, "when": true,
	"where": true, "why": true, "you": true, "me": true, "i": true,
	"my": true, "your": true, "we": true, "our": true, "they": true,
	"their": true, "he": true, "she": true, "his": true, "her": true,
	"him": true, "us": true, "them": true, "there": true, "any": true,
	"some": true, "all": true, "also": true, "such": true, "other": true,
	"over": true, "under": true, "between": true, "during": true,
	"before": true, "after": true, "s": true, "t": true,
}

var months = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true, "jul": true,
	"aug": true, "sep": true, "sept": true, "oct": true, "nov": true, "dec": true,
}

// temporalWords precede a year used as a date
var temporalWords = map[string]bool{
	"in": true, "since": true, "by": true, "until": true, "till": true,
	"before": true, "after": true, "during": true, "from": true, "to": true,
	"through": true, "circa": true, "c": true, "early": true,
	"late": true, "mid": true, "year": true, "the": true,
	"spring": true, "summer": true, "autumn": true, "fall": true, "winter": true,
}

// auxiliaries open a yes/no question
var auxiliaries = map[string]bool{
	"did": true, "does": true, "is": true, "was": true, "were": true,
	"has": true, "have": true, "will": true, "would": true, "could": true,
	"should": true,
}

var (
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|percent\b|per\s+cent\b)`)
	numberPattern  = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
)

// IsStopword reports whether a normalized word is a stopword
func IsStopword(word string) bool {
	return stopwords[word]
}

// Normalize lowercases text, spells out percent signs, strips punctuation
// and collapses whitespace
func Normalize(text string) string {
	return strings.Join(Words(text), " ")
}

// Words returns the normalized word sequence of text
func Words(text string) []string {
	lower := percentPattern.ReplaceAllString(strings.ToLower(text), "$1 percent ")
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// contentWords returns the distinct non-stopword words in order of appearance
func contentWords(words []string) []string {
	seen := make(map[string]bool, len(words))
	var out []string
	for _, w := range words {
		if stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// numberTokens returns the multi-digit numbers in text, canonicalised
// (thousands separators removed)
func numberTokens(text string) map[string]bool {
	out := make(map[string]bool)
	for _, raw := range numberPattern.FindAllString(text, -1) {
		if canon, ok := canonicalNumber(raw); ok {
			out[canon] = true
		}
	}
	return out
}

// datedYears returns the year-shaped numbers that text uses as dates:
// preceded by a month, a "March 3," day or a temporal word, or followed by a month.
// A bare year-shaped count such as "sold 1995 rifles" is not a date.
func datedYears(text string) map[string]bool {
	out := make(map[string]bool)
	lower := strings.ToLower(text)
	for _, loc := range numberPattern.FindAllStringIndex(lower, -1) {
		raw := lower[loc[0]:loc[1]]
		canon, ok := canonicalNumber(raw)
		if !ok || strings.Contains(strings.TrimRight(raw, ","), ",") || !isYear(canon) {
			continue
		}
		before := Words(lower[:loc[0]])
		after := Words(lower[loc[1]:])
		if yearContext(before, after) {
			out[canon] = true
		}
	}
	return out
}

func yearContext(before, after []string) bool {
	if n := len(before); n > 0 {
		prev := before[n-1]
		if months[prev] || temporalWords[prev] {
			return true
		}
		if n > 1 && months[before[n-2]] && isDay(prev) {
			return true
		}
	}
	return len(after) > 0 && months[after[0]]
}

func canonicalNumber(raw string) (string, bool) {
	canon := strings.ReplaceAll(strings.TrimRight(raw, ","), ",", "")
	digits := 0
	for _, r := range canon {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return canon, digits >= 2
}

// percentTokens returns "<number> percent" tokens found in text
func percentTokens(text string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range percentPattern.FindAllStringSubmatch(strings.ToLower(text), -1) {
		out[m[1]+" percent"] = true
	}
	return out
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= 1000 && n <= 2099
}

func isDay(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= 1 && n <= 31
}
