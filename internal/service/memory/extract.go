package memory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
)

// Extractor finds crop, timeframe and market mentions by lowercase
// substring search against a Vocabulary.
type Extractor struct {
	vocab     *Vocabulary
	patterns  []*regexp.Regexp
	canonical map[string]string
	markers   *regexp.Regexp
}

func NewExtractor(vocab *Vocabulary) (*Extractor, error) {
	if vocab == nil {
		return nil, fmt.Errorf("vocabulary is nil")
	}

	x := &Extractor{
		vocab:     vocab,
		canonical: make(map[string]string, len(vocab.Crops.Canonical)*2),
	}

	for surface, name := range vocab.Crops.Canonical {
		x.canonical[surface] = name
	}
	// Canonical names normalise to themselves.
	for _, name := range vocab.Crops.Canonical {
		x.canonical[strings.ToLower(name)] = name
	}

	for _, p := range vocab.Timeframes.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid timeframe pattern %q: %w", p, err)
		}
		x.patterns = append(x.patterns, re)
	}

	markers, err := compileMarkers(vocab.FollowUpMarkers)
	if err != nil {
		return nil, err
	}
	x.markers = markers

	return x, nil
}

// ExtractCrop returns the canonical crop named in message, or "".
func (x *Extractor) ExtractCrop(message string) string {
	lower := strings.ToLower(message)
	for _, list := range [][]string{x.vocab.Crops.Phrases, x.vocab.Crops.Words} {
		for _, term := range list {
			if strings.Contains(lower, term) {
				return x.canonical[term]
			}
		}
	}
	return ""
}

// ExtractTimeframe returns the first literal timeframe text found, lowercased.
func (x *Extractor) ExtractTimeframe(message string) string {
	lower := strings.ToLower(message)
	for _, phrase := range x.vocab.Timeframes.Phrases {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	for _, re := range x.patterns {
		if m := re.FindString(lower); m != "" {
			return m
		}
	}
	return ""
}

func (x *Extractor) ExtractMarket(message string) string {
	lower := strings.ToLower(message)
	for _, market := range x.vocab.Markets {
		if strings.Contains(lower, market) {
			return market
		}
	}
	return ""
}

// ExtractAll runs every extractor and returns the found values keyed by entity.
func (x *Extractor) ExtractAll(message string) map[domain.EntityType]string {
	found := make(map[domain.EntityType]string, 3)
	if v := x.ExtractCrop(message); v != "" {
		found[domain.EntityCrop] = v
	}
	if v := x.ExtractTimeframe(message); v != "" {
		found[domain.EntityTimeframe] = v
	}
	if v := x.ExtractMarket(message); v != "" {
		found[domain.EntityMarket] = v
	}
	return found
}

// NormalizeCrop maps a crop surface form to its display name. Unknown
// names are returned trimmed and otherwise unchanged.
func (x *Extractor) NormalizeCrop(name string) string {
	trimmed := strings.TrimSpace(name)
	if canonical, ok := x.canonical[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// CropNames lists the distinct canonical crop names in vocabulary order.
func (x *Extractor) CropNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, list := range [][]string{x.vocab.Crops.Phrases, x.vocab.Crops.Words} {
		for _, term := range list {
			name := x.canonical[term]
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// IsFollowUp is the default follow-up predicate: a word-boundary match on
// the vocabulary's anaphoric markers.
func (x *Extractor) IsFollowUp(message string) bool {
	return x.markers.MatchString(strings.ToLower(message))
}
