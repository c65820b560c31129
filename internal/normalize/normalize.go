// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts a free-text query into an ordered sequence of
// canonical search terms. Terms come from the keyword mapping table first,
// then optionally from an AI suggestion call whose responses are cached for
// the process lifetime.
package normalize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/learninglab/kscholar/internal/termtable"
	"github.com/learninglab/kscholar/pkg/types"
)

const (
	defaultMaxTerms = 12
	aiTermWeight    = 0.5
	aiTermCategory  = "ai"
)

// Normalizer maps free-text queries to canonical term sequences. It owns
// the AI suggestion cache; the term table is shared and read-only.
type Normalizer struct {
	table *termtable.Table
	ai    Suggester
	cache *suggestionCache
	cfg   types.NormalizerConfig
}

// New builds a Normalizer. ai may be nil, in which case AI enrichment is
// silently unavailable and normalization runs from the table alone.
func New(table *termtable.Table, ai Suggester, cfg types.NormalizerConfig) *Normalizer {
	return &Normalizer{
		table: table,
		ai:    ai,
		cache: newSuggestionCache(),
		cfg:   cfg,
	}
}

// Normalize converts query into canonical terms. Table matches come first,
// ordered by descending weight, followed by AI-suggested terms for any
// unmatched residue. Duplicate texts (case-insensitive) collapse keeping
// the first occurrence. AI failures degrade to a warning, never an error:
// the returned warnings describe any such degradation.
func (n *Normalizer) Normalize(ctx context.Context, query string, useAI bool) ([]types.CanonicalTerm, []string) {
	var warnings []string

	matched, residual := n.matchTable(query)

	// Stable sort: descending weight, ties keep match order so that
	// earlier (longer) matches stay first.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Weight > matched[j].Weight
	})

	terms := matched
	residual = dropStopwords(residual)

	if useAI && len(residual) > 0 && n.ai != nil {
		residualQuery := strings.Join(residual, " ")
		suggested, err := n.cache.suggest(ctx, n.ai, residualQuery)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("AI term suggestion failed for %q: %v", residualQuery, err))
		} else {
			for _, s := range suggested {
				terms = append(terms, types.CanonicalTerm{
					Text:     s,
					Category: aiTermCategory,
					Weight:   aiTermWeight,
				})
			}
		}
	}

	terms = dedupeTerms(terms)

	maxTerms := n.cfg.MaxTerms
	if maxTerms <= 0 {
		maxTerms = defaultMaxTerms
	}
	if len(terms) > maxTerms {
		terms = terms[:maxTerms]
	}
	return terms, warnings
}

// ClearCache empties the AI suggestion cache. Hit/miss counters survive.
func (n *Normalizer) ClearCache() { n.cache.clear() }

// Stats returns a read-only snapshot of the AI cache counters.
func (n *Normalizer) Stats() CacheStats { return n.cache.stats() }

// matchTable scans the query tokens with a greedy longest-match window so
// that multi-word table patterns take priority over single-word ones.
// Unmatched tokens are returned as residual in input order.
func (n *Normalizer) matchTable(query string) ([]types.CanonicalTerm, []string) {
	tokens := strings.Fields(query)
	maxWindow := n.table.MaxPatternWords()

	var matched []types.CanonicalTerm
	var residual []string

	i := 0
	for i < len(tokens) {
		window := maxWindow
		if rest := len(tokens) - i; window > rest {
			window = rest
		}
		found := false
		for w := window; w >= 1; w-- {
			phrase := strings.Join(tokens[i:i+w], " ")
			if entry, ok := n.table.Find(phrase); ok {
				matched = append(matched, entry.Term())
				i += w
				found = true
				break
			}
		}
		if !found {
			residual = append(residual, tokens[i])
			i++
		}
	}
	return matched, residual
}

// dropStopwords removes stopword and punctuation-only tokens. A token that
// is solely stopwords or punctuation never produces a canonical term.
func dropStopwords(tokens []string) []string {
	var out []string
	for _, tok := range tokens {
		trimmed := strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed == "" {
			continue
		}
		if isStopword(trimmed) {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// dedupeTerms collapses duplicate term texts case-insensitively, keeping
// the first occurrence (and therefore its weight and synonyms).
func dedupeTerms(terms []types.CanonicalTerm) []types.CanonicalTerm {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		key := strings.ToLower(strings.TrimSpace(t.Text))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
