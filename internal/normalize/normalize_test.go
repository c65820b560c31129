package normalize

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/learninglab/kscholar/internal/termtable"
	"github.com/learninglab/kscholar/pkg/types"
)

// --- mock suggester ---

type mockSuggester struct {
	calls int32
	terms []string
	err   error
	delay time.Duration
}

func (m *mockSuggester) Name() string { return "mock" }

func (m *mockSuggester) Suggest(_ context.Context, _ string) ([]string, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.terms, m.err
}

func testTable() *termtable.Table {
	return termtable.New([]termtable.Entry{
		{UserPattern: "청년", Canonical: "청년", Category: "인구", Synonyms: []string{"젊은층", "20대"}, Weight: 0.9},
		{UserPattern: "고용", Canonical: "고용", Category: "노동", Synonyms: []string{"취업", "일자리"}, Weight: 0.8},
		{UserPattern: "청년 고용", Canonical: "청년고용", Category: "노동", Synonyms: []string{"청년취업"}, Weight: 1.0},
		{UserPattern: "employment", Canonical: "고용", Category: "노동", Weight: 0.8},
	})
}

func newTestNormalizer(ai Suggester) *Normalizer {
	return New(testTable(), ai, types.NormalizerConfig{MaxTerms: 12})
}

// --- table matching ---

func TestNormalizeTableScenario(t *testing.T) {
	// Table with single-word patterns only, per the 청년/고용/문제 scenario.
	table := termtable.New([]termtable.Entry{
		{UserPattern: "청년", Canonical: "청년", Synonyms: []string{"젊은층", "20대"}, Weight: 0.9},
		{UserPattern: "고용", Canonical: "고용", Synonyms: []string{"취업", "일자리"}, Weight: 0.8},
	})
	n := New(table, nil, types.NormalizerConfig{})

	terms, warnings := n.Normalize(context.Background(), "청년 고용 문제", false)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if len(terms) != 2 {
		t.Fatalf("terms = %+v, want [청년 고용]", terms)
	}
	if terms[0].Text != "청년" || terms[1].Text != "고용" {
		t.Errorf("terms = %q, %q, want 청년, 고용", terms[0].Text, terms[1].Text)
	}
	if len(terms[0].Synonyms) != 2 {
		t.Errorf("Synonyms = %v", terms[0].Synonyms)
	}
}

func TestNormalizeLongestMatchWins(t *testing.T) {
	n := newTestNormalizer(nil)
	terms, _ := n.Normalize(context.Background(), "청년 고용 문제", false)
	// The two-word pattern "청년 고용" must beat the single-word entries.
	if len(terms) != 1 {
		t.Fatalf("terms = %+v, want single 청년고용", terms)
	}
	if terms[0].Text != "청년고용" {
		t.Errorf("terms[0] = %q, want 청년고용", terms[0].Text)
	}
}

func TestNormalizeOrderedByWeight(t *testing.T) {
	n := newTestNormalizer(nil)
	terms, _ := n.Normalize(context.Background(), "고용 연구 청년", false)
	if len(terms) != 2 {
		t.Fatalf("terms = %+v", terms)
	}
	if terms[0].Text != "청년" || terms[1].Text != "고용" {
		t.Errorf("order = %q, %q, want weight-descending 청년, 고용", terms[0].Text, terms[1].Text)
	}
}

func TestNormalizeWeightsInRangeNoDuplicates(t *testing.T) {
	ai := &mockSuggester{terms: []string{"고용", "노동시장", "노동시장"}}
	n := newTestNormalizer(ai)

	terms, _ := n.Normalize(context.Background(), "고용 employment 미래전망", true)
	seen := make(map[string]bool)
	for _, term := range terms {
		if term.Weight < 0.0 || term.Weight > 1.0 {
			t.Errorf("weight %f out of range for %q", term.Weight, term.Text)
		}
		key := strings.ToLower(term.Text)
		if seen[key] {
			t.Errorf("duplicate term %q", term.Text)
		}
		seen[key] = true
	}
	// "고용" appears via 고용, employment, and the AI suggestion: once only,
	// keeping the table weight.
	if terms[0].Text != "고용" || terms[0].Weight != 0.8 {
		t.Errorf("terms[0] = %+v, want table 고용 at 0.8", terms[0])
	}
}

func TestNormalizeStopwordsDropped(t *testing.T) {
	ai := &mockSuggester{terms: []string{"무언가"}}
	n := newTestNormalizer(ai)

	// Residual is stopwords and punctuation only: no AI call at all.
	terms, warnings := n.Normalize(context.Background(), "고용 문제 연구 !!", true)
	if got := atomic.LoadInt32(&ai.calls); got != 0 {
		t.Errorf("AI calls = %d, want 0 for stopword-only residue", got)
	}
	if len(terms) != 1 || terms[0].Text != "고용" {
		t.Errorf("terms = %+v", terms)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
}

// --- AI enrichment and cache ---

func TestNormalizeCachesAICall(t *testing.T) {
	ai := &mockSuggester{terms: []string{"플랫폼노동", "긱경제"}}
	n := newTestNormalizer(ai)

	first, _ := n.Normalize(context.Background(), "긱워커 실태", true)
	second, _ := n.Normalize(context.Background(), "긱워커 실태", true)

	if got := atomic.LoadInt32(&ai.calls); got != 1 {
		t.Errorf("AI calls = %d, want 1 (second normalize hits cache)", got)
	}
	if len(first) != len(second) {
		t.Fatalf("sequences differ: %+v vs %+v", first, second)
	}
	for i := range first {
		if first[i].Text != second[i].Text || first[i].Weight != second[i].Weight {
			t.Errorf("term %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}

	stats := n.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("stats = %+v, want hits=1 misses=1 size=1", stats)
	}
}

func TestNormalizeAIFailureIsSoft(t *testing.T) {
	ai := &mockSuggester{err: fmt.Errorf("request timed out")}
	n := newTestNormalizer(ai)

	terms, warnings := n.Normalize(context.Background(), "XYZ123", true)
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if !strings.Contains(warnings[0], "timed out") {
		t.Errorf("warning = %q", warnings[0])
	}
	if len(terms) != 0 {
		t.Errorf("terms = %+v, want empty sequence", terms)
	}
}

func TestNormalizeFailedSuggestionNotCached(t *testing.T) {
	ai := &mockSuggester{err: fmt.Errorf("boom")}
	n := newTestNormalizer(ai)

	n.Normalize(context.Background(), "XYZ123", true)
	ai.err = nil
	ai.terms = []string{"성공"}

	terms, warnings := n.Normalize(context.Background(), "XYZ123", true)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if len(terms) != 1 || terms[0].Text != "성공" {
		t.Errorf("terms = %+v, want retried suggestion", terms)
	}
}

func TestNormalizeSingleFlight(t *testing.T) {
	ai := &mockSuggester{terms: []string{"결과"}, delay: 50 * time.Millisecond}
	n := newTestNormalizer(ai)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Normalize(context.Background(), "동시요청", true)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&ai.calls); got != 1 {
		t.Errorf("AI calls = %d, want 1 shared flight", got)
	}
}

func TestClearCache(t *testing.T) {
	ai := &mockSuggester{terms: []string{"키워드"}}
	n := newTestNormalizer(ai)

	n.Normalize(context.Background(), "미등록어", true)
	n.ClearCache()
	n.Normalize(context.Background(), "미등록어", true)

	if got := atomic.LoadInt32(&ai.calls); got != 2 {
		t.Errorf("AI calls = %d, want 2 after clear", got)
	}
	stats := n.Stats()
	if stats.Size != 1 {
		t.Errorf("Size = %d, want 1 (re-populated)", stats.Size)
	}
	if stats.Misses != 2 {
		t.Errorf("Misses = %d, want 2 (counters survive clear)", stats.Misses)
	}
}

func TestNormalizeMaxTerms(t *testing.T) {
	var many []string
	for i := 0; i < 20; i++ {
		many = append(many, fmt.Sprintf("키워드%d", i))
	}
	ai := &mockSuggester{terms: many}
	n := New(testTable(), ai, types.NormalizerConfig{MaxTerms: 5})

	terms, _ := n.Normalize(context.Background(), "고용 신조어", true)
	if len(terms) != 5 {
		t.Errorf("len(terms) = %d, want capped at 5", len(terms))
	}
}

func TestNormalizeNilSuggester(t *testing.T) {
	n := newTestNormalizer(nil)
	terms, warnings := n.Normalize(context.Background(), "고용 미등록어", true)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if len(terms) != 1 {
		t.Errorf("terms = %+v", terms)
	}
}
