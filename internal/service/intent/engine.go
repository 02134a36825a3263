package intent

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/constants"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/util"
)

// scoreSensitivity is the raw score that maps to full confidence.
const scoreSensitivity = 2.0

// ConfidenceFunc maps a normalised raw score to a confidence in [0, 1].
type ConfidenceFunc func(score float64) float64

// LinearConfidence is the default mapping: min(1, score/2).
func LinearConfidence(score float64) float64 {
	return util.Clamp01(score / scoreSensitivity)
}

type Option func(*Engine)

func WithConfidenceFunc(fn ConfidenceFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.confidence = fn
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine scores messages against a Catalog with keyword TF-IDF.
// It holds no mutable state after construction and is safe for concurrent use.
type Engine struct {
	catalog    *Catalog
	phrases    [][][]string // intent -> keyword -> tokens
	idf        map[string]float64
	confidence ConfidenceFunc
	logger     *zap.Logger
}

func NewEngine(catalog *Catalog, opts ...Option) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	e := &Engine{
		catalog:    catalog,
		phrases:    make([][][]string, catalog.Len()),
		idf:        make(map[string]float64),
		confidence: LinearConfidence,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	docFreq := make(map[string]int)
	for i := 0; i < catalog.Len(); i++ {
		in := catalog.At(i)
		seen := make(map[string]struct{})
		e.phrases[i] = make([][]string, len(in.Keywords))
		for k, kw := range in.Keywords {
			tokens := Tokenize(kw)
			e.phrases[i][k] = tokens
			for _, tok := range tokens {
				if _, ok := seen[tok]; ok {
					continue
				}
				seen[tok] = struct{}{}
				docFreq[tok]++
			}
		}
	}

	total := float64(catalog.Len())
	for tok, df := range docFreq {
		e.idf[tok] = math.Log(total / float64(df))
	}

	e.logger.Debug("Intent engine initialized",
		zap.Int("intents", catalog.Len()),
		zap.Int("vocabulary", len(e.idf)),
	)

	return e
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Lookup finds a catalog intent by name.
func (e *Engine) Lookup(name domain.IntentName) (*domain.Intent, bool) {
	return e.catalog.Get(name)
}

// IDF returns the inverse document frequency of a keyword token, or 0 for
// tokens that appear in no intent.
func (e *Engine) IDF(token string) float64 {
	return e.idf[token]
}

// DetectIntents returns every intent whose confidence clears threshold,
// highest first. Ties keep catalog order.
func (e *Engine) DetectIntents(message string, threshold float64) []domain.IntentMatch {
	tokens := Tokenize(message)
	if len(tokens) == 0 {
		return nil
	}
	tf := termFrequency(tokens)
	lower := strings.ToLower(message)

	var matches []domain.IntentMatch
	for i := 0; i < e.catalog.Len(); i++ {
		in := e.catalog.At(i)
		if len(in.Keywords) == 0 {
			continue
		}

		var score float64
		var matched []string
		for k, phrase := range e.phrases[i] {
			hit := false
			for _, tok := range phrase {
				if freq, ok := tf[tok]; ok {
					score += freq * e.idf[tok] * in.Weight
				}
				if !hit && strings.Contains(lower, tok) {
					hit = true
				}
			}
			if hit {
				matched = append(matched, in.Keywords[k])
			}
		}

		if score <= 0 {
			continue
		}
		score /= math.Sqrt(float64(len(in.Keywords)))

		confidence := e.confidence(score)
		if confidence < threshold {
			continue
		}
		matches = append(matches, domain.IntentMatch{
			Intent:          in,
			Name:            in.Name,
			Confidence:      confidence,
			MatchedKeywords: matched,
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Confidence > matches[b].Confidence
	})

	if len(matches) > 0 {
		e.logger.Debug("Intents detected",
			zap.String("top", matches[0].Name.String()),
			zap.Float64("confidence", matches[0].Confidence),
			zap.Int("candidates", len(matches)),
		)
	}

	return matches
}

// BestIntent returns the top match above the default threshold.
func (e *Engine) BestIntent(message string) (domain.IntentMatch, bool) {
	matches := e.DetectIntents(message, constants.IntentThresholds.Best)
	if len(matches) == 0 {
		return domain.IntentMatch{}, false
	}
	return matches[0], true
}

// HasMultipleIntents reports whether at least two intents clear the
// multi-intent threshold.
func (e *Engine) HasMultipleIntents(message string) bool {
	return len(e.DetectIntents(message, constants.IntentThresholds.Multiple)) >= 2
}
