package lexicon

import (
	"regexp"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Category is the lexical class of a term
type Category string

const (
	GenericActor       Category = "generic_actor"       // Countries, alliances, institutional nouns
	StructuralTerm     Category = "structural_term"     // Procedural words (meeting, proposal, ...)
	DomainVocabulary   Category = "domain_vocabulary"   // Field jargon that does not identify an answer
	SpecificIdentifier Category = "specific_identifier" // Everything else
)

const memoSize = 4096

// Classifier assigns terms to lexical categories.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	genericMap    map[string]bool
	structuralMap map[string]bool
	vocabulary    [][]string
	suffixPattern *regexp.Regexp
	memo          *lru.Cache[string, Category]
}

// NewClassifier creates a classifier from a lexicon
func NewClassifier(lex Lexicon) *Classifier {
	c := &Classifier{
		genericMap:    make(map[string]bool, len(lex.GenericActors)),
		structuralMap: make(map[string]bool, len(lex.StructuralTerms)),
		vocabulary:    make([][]string, 0, len(lex.DomainVocabulary)),
	}

	for _, term := range lex.GenericActors {
		if key := normalizeTerm(term); key != "" {
			c.genericMap[key] = true
		}
	}

	for _, term := range lex.StructuralTerms {
		if key := normalizeTerm(term); key != "" {
			c.structuralMap[key] = true
		}
	}

	for _, phrase := range lex.DomainVocabulary {
		if toks := tokens(phrase); len(toks) > 0 {
			c.vocabulary = append(c.vocabulary, toks)
		}
	}

	// Noun phrases ending in a structural suffix, optionally plural
	var suffixes []string
	for _, s := range lex.StructuralSuffixes {
		if key := normalizeTerm(s); key != "" {
			suffixes = append(suffixes, regexp.QuoteMeta(key))
		}
	}
	if len(suffixes) > 0 {
		c.suffixPattern = regexp.MustCompile(`^(?:[\p{L}\p{N}]+ )*(?:` + strings.Join(suffixes, "|") + `)s?$`)
	}

	// Only fails for a non-positive size
	c.memo, _ = lru.New[string, Category](memoSize)

	return c
}

// Classify returns the category of a term. Blank terms are reported as
// structural so they never count as a specific identifier.
func (c *Classifier) Classify(term string) Category {
	key := normalizeTerm(term)
	if key == "" {
		return StructuralTerm
	}

	if cat, ok := c.memo.Get(key); ok {
		return cat
	}

	cat := c.classify(key)
	c.memo.Add(key, cat)
	return cat
}

// IsGeneric reports whether a term falls into any category other than
// specific identifier
func (c *Classifier) IsGeneric(term string) bool {
	return c.Classify(term) != SpecificIdentifier
}

func (c *Classifier) classify(key string) Category {
	if c.genericMap[key] {
		return GenericActor
	}

	if c.structuralMap[key] {
		return StructuralTerm
	}
	if c.suffixPattern != nil && c.suffixPattern.MatchString(key) {
		return StructuralTerm
	}

	// Containment in either direction, on word boundaries
	termTokens := strings.Split(key, " ")
	for _, phrase := range c.vocabulary {
		if containsSequence(termTokens, phrase) || containsSequence(phrase, termTokens) {
			return DomainVocabulary
		}
	}

	return SpecificIdentifier
}

// normalizeTerm lowercases, tokenizes and drops a leading article
func normalizeTerm(term string) string {
	toks := tokens(term)
	if len(toks) > 1 {
		switch toks[0] {
		case "the", "a", "an":
			toks = toks[1:]
		}
	}
	return strings.Join(toks, " ")
}

// tokens splits text into lowercase letter/digit runs
func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// containsSequence reports whether needle occurs as a contiguous run in haystack
func containsSequence(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, tok := range needle {
			if haystack[i+j] != tok {
				continue outer
			}
		}
		return true
	}
	return false
}
