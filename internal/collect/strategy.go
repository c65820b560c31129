// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/learninglab/kscholar/pkg/types"
)

// Scope selects the field a strategy searches in.
type Scope string

const (
	// ScopeTitle searches the title field only (high precision).
	ScopeTitle Scope = "title"
	// ScopeKeyword searches across all indexed fields (high recall).
	ScopeKeyword Scope = "keyword"
)

// Strategy is one concrete query variant issued to a single backend: a
// (term, field scope, year range, doc type) tuple. Strategies are stateless
// values generated fresh per search call and run in priority order.
type Strategy struct {
	Label     string
	Term      string
	QueryTerm string
	Scope     Scope
	YearFrom  int
	YearTo    int
	DocType   string
}

// Options holds per-search parameters shared by both collectors.
type Options struct {
	YearFrom      int
	YearTo        int
	DocType       string
	MaxResults    int
	FetchDetails  bool
	DetailWorkers int

	// StrategyDelay is a polite pause between successive strategy calls
	// to the same backend. Zero disables it.
	StrategyDelay time.Duration
}

// pause sleeps for the configured strategy delay, returning early when the
// context expires.
func (o Options) pause(ctx context.Context) {
	if o.StrategyDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(o.StrategyDelay):
	}
}

const (
	defaultMaxResults = 100
	// fallbackVariants bounds the per-term/per-synonym fallback strategies.
	fallbackVariants = 6
	// maxYearlySplit bounds the per-year split so a wide date range does
	// not explode into dozens of calls.
	maxYearlySplit = 10
)

// maxResults returns the configured cap or the default.
func (o Options) maxResults() int {
	if o.MaxResults <= 0 {
		return defaultMaxResults
	}
	return o.MaxResults
}

// BuildStrategies derives the ordered query variants for one backend from
// the normalized terms. scopes lists the field scopes the backend supports,
// most precise first. The order compensates for the backends' narrow query
// grammars (no OR operator):
//
//  1. exact top-term search in each supported scope, precise first
//  2. individual-term fallback: remaining terms and top-term synonyms in
//     the widest scope, capped at fallbackVariants
//  3. per-year split of the top term, widest scope, when a bounded year
//     range is given
//
// Duplicate (scope, term, years) tuples are dropped so a backend never
// issues the same call twice.
func BuildStrategies(terms []types.CanonicalTerm, opts Options, scopes ...Scope) []Strategy {
	if len(terms) == 0 || len(scopes) == 0 {
		return nil
	}

	top := terms[0]
	wide := scopes[len(scopes)-1]

	var strategies []Strategy
	add := func(s Strategy) {
		s.Label = fmt.Sprintf("%s:%s[%d-%d]", s.Scope, s.Term, s.YearFrom, s.YearTo)
		for _, existing := range strategies {
			if existing.Label == s.Label {
				return
			}
		}
		strategies = append(strategies, s)
	}

	for _, scope := range scopes {
		add(Strategy{
			Term:      top.Text,
			QueryTerm: top.Text,
			Scope:     scope,
			YearFrom:  opts.YearFrom,
			YearTo:    opts.YearTo,
			DocType:   opts.DocType,
		})
	}

	var fallback []Strategy
	for _, t := range terms[1:] {
		fallback = append(fallback, Strategy{
			Term:      t.Text,
			QueryTerm: t.Text,
			Scope:     wide,
			YearFrom:  opts.YearFrom,
			YearTo:    opts.YearTo,
			DocType:   opts.DocType,
		})
	}
	for _, syn := range top.Synonyms {
		fallback = append(fallback, Strategy{
			Term:      syn,
			QueryTerm: top.Text,
			Scope:     wide,
			YearFrom:  opts.YearFrom,
			YearTo:    opts.YearTo,
			DocType:   opts.DocType,
		})
	}
	if len(fallback) > fallbackVariants {
		fallback = fallback[:fallbackVariants]
	}
	for _, s := range fallback {
		add(s)
	}

	if span := opts.YearTo - opts.YearFrom + 1; opts.YearFrom > 0 && span > 1 && span <= maxYearlySplit {
		for year := opts.YearFrom; year <= opts.YearTo; year++ {
			add(Strategy{
				Term:      top.Text,
				QueryTerm: top.Text,
				Scope:     wide,
				YearFrom:  year,
				YearTo:    year,
				DocType:   opts.DocType,
			})
		}
	}

	return strategies
}
