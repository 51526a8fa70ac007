package scoring

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// Vocabulary holds the word lists the factors match against. It is treated as
// immutable configuration: the Analyzer keeps its own copy.
type Vocabulary struct {
	TechnicalKeywords []string       `yaml:"technical_keywords" json:"technical_keywords" validate:"required,min=1,dive,required"`
	SoftSkills        []string       `yaml:"soft_skills" json:"soft_skills" validate:"required,min=1,dive,required"`
	StrongVerbs       []string       `yaml:"strong_verbs" json:"strong_verbs" validate:"required,min=1,dive,required"`
	WeakVerbs         []string       `yaml:"weak_verbs" json:"weak_verbs" validate:"required,min=1,dive,required"`
	Buzzwords         []string       `yaml:"buzzwords" json:"buzzwords" validate:"required,min=1,dive,required"`
	RequiredSections  []string       `yaml:"required_sections" json:"required_sections" validate:"required,min=1,dive,required"`
	CriticalSections  []string       `yaml:"critical_sections" json:"critical_sections" validate:"dive,required"`
	HeaderSections    []string       `yaml:"header_sections" json:"header_sections" validate:"required,min=1,dive,required"`
	ImageWords        []string       `yaml:"image_words" json:"image_words" validate:"required,min=1,dive,required"`
	ToneCategories    []ToneCategory `yaml:"tone_categories" json:"tone_categories" validate:"required,min=1,dive"`
}

// ToneCategory groups unprofessional terms that cost points together
type ToneCategory struct {
	Name  string   `yaml:"name" json:"name" validate:"required"`
	Terms []string `yaml:"terms" json:"terms" validate:"required,min=1,dive,required"`
}

// DefaultVocabulary returns a fresh copy of the built-in word lists.
func DefaultVocabulary() *Vocabulary {
	vocab, err := ParseVocabulary(defaultVocabularyYAML)
	if err != nil {
		// The embedded file is part of the build; failing to parse it is a programming error.
		panic(fmt.Sprintf("embedded vocabulary is invalid: %v", err))
	}
	return vocab
}

// DefaultVocabularyYAML returns the raw built-in vocabulary document
func DefaultVocabularyYAML() []byte {
	return bytes.Clone(defaultVocabularyYAML)
}

// LoadVocabulary reads and validates a YAML vocabulary file
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &VocabularyError{Path: path, Message: "failed to read file", Cause: err}
	}

	vocab, err := ParseVocabulary(data)
	if err != nil {
		return nil, &VocabularyError{Path: path, Message: "invalid vocabulary", Cause: err}
	}
	return vocab, nil
}

// ParseVocabulary decodes and validates a YAML vocabulary document.
// Terms are trimmed and lowercased.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var vocab Vocabulary
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&vocab); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary YAML: %w", err)
	}

	vocab.normalize()

	if err := vocab.Validate(); err != nil {
		return nil, err
	}
	return &vocab, nil
}

// Validate checks that every list is present and holds no blank terms
func (v *Vocabulary) Validate() error {
	validate := validator.New()
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("vocabulary validation failed: %w", err)
	}
	for _, section := range v.CriticalSections {
		if !slices.Contains(v.RequiredSections, section) {
			return fmt.Errorf("critical section %q is not a required section", section)
		}
	}
	return nil
}

// Clone returns a deep copy of the vocabulary
func (v *Vocabulary) Clone() *Vocabulary {
	out := &Vocabulary{
		TechnicalKeywords: slices.Clone(v.TechnicalKeywords),
		SoftSkills:        slices.Clone(v.SoftSkills),
		StrongVerbs:       slices.Clone(v.StrongVerbs),
		WeakVerbs:         slices.Clone(v.WeakVerbs),
		Buzzwords:         slices.Clone(v.Buzzwords),
		RequiredSections:  slices.Clone(v.RequiredSections),
		CriticalSections:  slices.Clone(v.CriticalSections),
		HeaderSections:    slices.Clone(v.HeaderSections),
		ImageWords:        slices.Clone(v.ImageWords),
		ToneCategories:    make([]ToneCategory, len(v.ToneCategories)),
	}
	for i, c := range v.ToneCategories {
		out.ToneCategories[i] = ToneCategory{Name: c.Name, Terms: slices.Clone(c.Terms)}
	}
	return out
}

func (v *Vocabulary) normalize() {
	lists := []*[]string{
		&v.TechnicalKeywords, &v.SoftSkills, &v.StrongVerbs, &v.WeakVerbs, &v.Buzzwords,
		&v.RequiredSections, &v.CriticalSections, &v.HeaderSections, &v.ImageWords,
	}
	for _, list := range lists {
		normalizeTerms(*list)
	}
	for i := range v.ToneCategories {
		v.ToneCategories[i].Name = strings.TrimSpace(v.ToneCategories[i].Name)
		normalizeTerms(v.ToneCategories[i].Terms)
	}
}

func normalizeTerms(terms []string) {
	for i, term := range terms {
		terms[i] = strings.ToLower(strings.TrimSpace(term))
	}
}
