package termtable

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = `user_pattern,canonical_term,category,synonyms,weight
청년,청년,인구,젊은층|20대,0.9
고용,고용,노동,취업|일자리,0.8
청년 고용,청년고용,노동,청년취업,1.0
ai,인공지능,기술,AI|머신러닝,0.7
`

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keyword_mapping.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	table, warnings, err := Load(writeTable(t, sampleCSV))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if table.Len() != 4 {
		t.Errorf("Len() = %d, want 4", table.Len())
	}

	e, ok := table.Find("고용")
	if !ok {
		t.Fatal("Find(고용) should match")
	}
	if e.Canonical != "고용" || e.Weight != 0.8 {
		t.Errorf("entry = %+v", e)
	}
	if len(e.Synonyms) != 2 || e.Synonyms[0] != "취업" {
		t.Errorf("Synonyms = %v", e.Synonyms)
	}
}

func TestLoadMissingFile(t *testing.T) {
	table, warnings, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "not found") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestFindCaseInsensitive(t *testing.T) {
	table, _, err := Load(writeTable(t, sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := table.Find("AI"); !ok {
		t.Error("Find(AI) should match the lowercase pattern")
	}
	if _, ok := table.Find(" 청년 "); !ok {
		t.Error("Find should trim whitespace")
	}
	if _, ok := table.Find("없는말"); ok {
		t.Error("Find should miss unknown patterns")
	}
}

func TestMaxPatternWords(t *testing.T) {
	table, _, err := Load(writeTable(t, sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if got := table.MaxPatternWords(); got != 2 {
		t.Errorf("MaxPatternWords() = %d, want 2 (청년 고용)", got)
	}
	if got := New(nil).MaxPatternWords(); got != 1 {
		t.Errorf("empty table MaxPatternWords() = %d, want 1", got)
	}
}

func TestParseToleratesBadRows(t *testing.T) {
	csv := "user_pattern,canonical_term,category,synonyms,weight\n" +
		"고용,고용,노동,취업,abc\n" + // bad weight → default 1.0
		"혼자\n" + // too few columns
		",비어있음,,,0.5\n" // empty pattern
	table, warnings, err := Load(writeTable(t, csv))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
	if len(warnings) != 3 {
		t.Errorf("warnings = %v, want 3", warnings)
	}
	e, _ := table.Find("고용")
	if e.Weight != 1.0 {
		t.Errorf("bad weight should default to 1.0, got %f", e.Weight)
	}
}

func TestWeightClamped(t *testing.T) {
	csv := "a,a,,,1.5\nb,b,,,-0.5\n"
	table, _, err := Load(writeTable(t, csv))
	if err != nil {
		t.Fatal(err)
	}
	a, _ := table.Find("a")
	b, _ := table.Find("b")
	if a.Weight != 1.0 || b.Weight != 0.0 {
		t.Errorf("weights = %f, %f, want clamped to [0,1]", a.Weight, b.Weight)
	}
}
