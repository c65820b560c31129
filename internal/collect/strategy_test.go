// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"testing"

	"github.com/learninglab/kscholar/pkg/types"
)

func testTerms() []types.CanonicalTerm {
	return []types.CanonicalTerm{
		{Text: "청년 고용", Category: "policy", Weight: 1.0, Synonyms: []string{"청년 일자리", "청년 취업"}},
		{Text: "고용", Category: "policy", Weight: 0.8},
		{Text: "노동시장", Category: "economy", Weight: 0.6},
	}
}

func TestBuildStrategiesTopTermFirst(t *testing.T) {
	strategies := BuildStrategies(testTerms(), Options{}, ScopeTitle, ScopeKeyword)
	if len(strategies) == 0 {
		t.Fatal("expected strategies, got none")
	}
	if strategies[0].Scope != ScopeTitle || strategies[0].Term != "청년 고용" {
		t.Errorf("first strategy should be title search of top term, got %s:%s", strategies[0].Scope, strategies[0].Term)
	}
	if strategies[1].Scope != ScopeKeyword || strategies[1].Term != "청년 고용" {
		t.Errorf("second strategy should be keyword search of top term, got %s:%s", strategies[1].Scope, strategies[1].Term)
	}
}

func TestBuildStrategiesSingleScope(t *testing.T) {
	strategies := BuildStrategies(testTerms(), Options{}, ScopeTitle)
	for _, s := range strategies {
		if s.Scope != ScopeTitle {
			t.Errorf("strategy %s uses scope %s, want title only", s.Label, s.Scope)
		}
	}
}

func TestBuildStrategiesFallbackTermsAndSynonyms(t *testing.T) {
	strategies := BuildStrategies(testTerms(), Options{}, ScopeTitle, ScopeKeyword)

	wantTerms := map[string]bool{"고용": false, "노동시장": false, "청년 일자리": false, "청년 취업": false}
	for _, s := range strategies {
		if _, ok := wantTerms[s.Term]; ok && s.Scope == ScopeKeyword {
			wantTerms[s.Term] = true
		}
	}
	for term, found := range wantTerms {
		if !found {
			t.Errorf("fallback strategy for %q missing", term)
		}
	}

	// Synonym strategies keep the canonical term as the attribution term.
	for _, s := range strategies {
		if s.Term == "청년 일자리" && s.QueryTerm != "청년 고용" {
			t.Errorf("synonym strategy query term = %q, want canonical %q", s.QueryTerm, "청년 고용")
		}
	}
}

func TestBuildStrategiesFallbackCap(t *testing.T) {
	terms := []types.CanonicalTerm{{Text: "top", Weight: 1.0}}
	for i := 0; i < 10; i++ {
		terms = append(terms, types.CanonicalTerm{Text: string(rune('a' + i)), Weight: 0.5})
	}
	strategies := BuildStrategies(terms, Options{}, ScopeKeyword)
	// one top-term strategy plus at most fallbackVariants fallbacks
	if got, want := len(strategies), 1+fallbackVariants; got != want {
		t.Errorf("got %d strategies, want %d", got, want)
	}
}

func TestBuildStrategiesYearlySplit(t *testing.T) {
	opts := Options{YearFrom: 2020, YearTo: 2023}
	strategies := BuildStrategies(testTerms(), opts, ScopeTitle, ScopeKeyword)

	perYear := 0
	for _, s := range strategies {
		if s.Term == "청년 고용" && s.YearFrom == s.YearTo && s.YearFrom >= 2020 && s.YearTo <= 2023 {
			perYear++
		}
	}
	if perYear != 4 {
		t.Errorf("got %d per-year strategies, want 4", perYear)
	}
}

func TestBuildStrategiesNoSplitForWideRange(t *testing.T) {
	opts := Options{YearFrom: 2000, YearTo: 2023}
	strategies := BuildStrategies(testTerms(), opts, ScopeTitle)
	for _, s := range strategies {
		if s.YearFrom == s.YearTo && s.YearFrom != 0 {
			t.Errorf("unexpected per-year strategy %s for a %d-year range", s.Label, 24)
		}
	}
}

func TestBuildStrategiesNoDuplicates(t *testing.T) {
	// Single-year range makes the split collide with the top-term strategy.
	opts := Options{YearFrom: 2022, YearTo: 2022}
	strategies := BuildStrategies(testTerms(), opts, ScopeTitle, ScopeKeyword)

	seen := make(map[string]bool)
	for _, s := range strategies {
		if seen[s.Label] {
			t.Errorf("duplicate strategy %s", s.Label)
		}
		seen[s.Label] = true
	}
}

func TestBuildStrategiesEmptyInputs(t *testing.T) {
	if got := BuildStrategies(nil, Options{}, ScopeTitle); got != nil {
		t.Errorf("expected nil for no terms, got %d strategies", len(got))
	}
	if got := BuildStrategies(testTerms(), Options{}); got != nil {
		t.Errorf("expected nil for no scopes, got %d strategies", len(got))
	}
}
