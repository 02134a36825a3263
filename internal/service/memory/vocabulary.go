package memory

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// Vocabulary is the controlled word list used for entity extraction.
type Vocabulary struct {
	Crops struct {
		Phrases   []string          `yaml:"phrases"`
		Words     []string          `yaml:"words"`
		Canonical map[string]string `yaml:"canonical"`
	} `yaml:"crops"`
	Timeframes struct {
		Phrases  []string `yaml:"phrases"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"timeframes"`
	Markets         []string `yaml:"markets"`
	FollowUpMarkers []string `yaml:"followUpMarkers"`
}

// ParseVocabulary decodes a vocabulary document and checks that every crop
// surface form has a canonical name.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var vocab Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}

	lowered := make(map[string]string, len(vocab.Crops.Canonical))
	for k, v := range vocab.Crops.Canonical {
		lowered[strings.ToLower(k)] = v
	}
	vocab.Crops.Canonical = lowered

	for _, list := range [][]string{vocab.Crops.Phrases, vocab.Crops.Words} {
		for i, term := range list {
			term = strings.ToLower(strings.TrimSpace(term))
			list[i] = term
			if _, ok := lowered[term]; !ok {
				return nil, fmt.Errorf("crop %q has no canonical name", term)
			}
		}
	}

	if len(vocab.Markets) == 0 {
		return nil, fmt.Errorf("vocabulary defines no markets")
	}

	return &vocab, nil
}

var (
	defaultExtractor     *Extractor
	defaultExtractorOnce sync.Once
	defaultExtractorErr  error
)

// DefaultExtractor returns the extractor built from the embedded vocabulary.
// The vocabulary is parsed once per process.
func DefaultExtractor() (*Extractor, error) {
	defaultExtractorOnce.Do(func() {
		vocab, err := ParseVocabulary(vocabularyYAML)
		if err != nil {
			defaultExtractorErr = err
			return
		}
		defaultExtractor, defaultExtractorErr = NewExtractor(vocab)
	})
	return defaultExtractor, defaultExtractorErr
}

func compileMarkers(markers []string) (*regexp.Regexp, error) {
	quoted := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(strings.ToLower(m))
		if m == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(m))
	}
	if len(quoted) == 0 {
		return nil, fmt.Errorf("vocabulary defines no follow-up markers")
	}
	return regexp.Compile(`\b(` + strings.Join(quoted, "|") + `)\b`)
}
