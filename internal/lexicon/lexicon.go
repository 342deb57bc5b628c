package lexicon

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultLexicon []byte

// Lexicon holds the term lists that drive classification.
// It is loaded once at startup and treated as read-only.
type Lexicon struct {
	GenericActors      []string `yaml:"generic_actors"`
	StructuralTerms    []string `yaml:"structural_terms"`
	DomainVocabulary   []string `yaml:"domain_vocabulary"`
	StructuralSuffixes []string `yaml:"structural_suffixes"`
}

// Default returns the embedded lexicon
func Default() Lexicon {
	lex, err := Parse(defaultLexicon)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon is invalid: %v", err))
	}
	return lex
}

// Parse decodes a lexicon from YAML
func Parse(data []byte) (Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon: %w", err)
	}
	return lex, nil
}

// Load reads a lexicon file. An empty path yields the embedded default.
func Load(path string) (Lexicon, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon: %w", err)
	}
	return Parse(data)
}
