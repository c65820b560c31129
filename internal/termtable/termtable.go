// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package termtable loads the user-maintained keyword mapping table.
// The table is a CSV asset with columns user_pattern, canonical_term,
// category, synonyms (pipe-separated), weight (0.0-1.0). It is loaded once
// at startup and read-only afterwards.
package termtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/learninglab/kscholar/pkg/types"
)

// Entry is one row of the mapping table.
type Entry struct {
	UserPattern string
	Canonical   string
	Category    string
	Synonyms    []string
	Weight      float64
}

// Term converts the entry into the canonical term it maps to.
func (e Entry) Term() types.CanonicalTerm {
	return types.CanonicalTerm{
		Text:     e.Canonical,
		Category: e.Category,
		Weight:   e.Weight,
		Synonyms: append([]string(nil), e.Synonyms...),
	}
}

// Table is the read-only mapping from user patterns to canonical terms.
type Table struct {
	byPattern       map[string]Entry
	maxPatternWords int
}

// Load reads the mapping CSV at path. A missing file is not an error: the
// normalizer still works from stopwords and AI suggestion alone, so Load
// returns an empty table and a warning for the caller to surface.
func Load(path string) (*Table, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil), []string{fmt.Sprintf("term table %s not found, continuing without it", path)}, nil
		}
		return nil, nil, fmt.Errorf("opening term table %s: %w", path, err)
	}
	defer f.Close()

	entries, warnings, err := parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing term table %s: %w", path, err)
	}
	return New(entries), warnings, nil
}

// New builds a table from entries. Duplicate patterns keep the first entry.
func New(entries []Entry) *Table {
	t := &Table{byPattern: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		pattern := strings.ToLower(strings.TrimSpace(e.UserPattern))
		if pattern == "" || e.Canonical == "" {
			continue
		}
		if _, ok := t.byPattern[pattern]; ok {
			continue
		}
		t.byPattern[pattern] = e
		if n := len(strings.Fields(pattern)); n > t.maxPatternWords {
			t.maxPatternWords = n
		}
	}
	return t
}

// parse reads CSV rows into entries. A header row is recognized by its
// first column and skipped. Rows with too few columns or an empty
// canonical term are skipped with a warning rather than failing the load.
func parse(r io.Reader) ([]Entry, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var entries []Entry
	var warnings []string
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line++

		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "user_pattern") {
			continue
		}
		if len(row) < 2 {
			warnings = append(warnings, fmt.Sprintf("term table row %d: expected at least 2 columns, got %d", line, len(row)))
			continue
		}

		e := Entry{
			UserPattern: strings.TrimSpace(row[0]),
			Canonical:   strings.TrimSpace(row[1]),
			Weight:      1.0,
		}
		if len(row) > 2 {
			e.Category = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			e.Synonyms = splitSynonyms(row[3])
		}
		if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
			w, parseErr := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
			if parseErr != nil {
				warnings = append(warnings, fmt.Sprintf("term table row %d: bad weight %q, using 1.0", line, row[4]))
			} else {
				e.Weight = clampWeight(w)
			}
		}
		if e.UserPattern == "" || e.Canonical == "" {
			warnings = append(warnings, fmt.Sprintf("term table row %d: empty pattern or canonical term", line))
			continue
		}
		entries = append(entries, e)
	}
	return entries, warnings, nil
}

// splitSynonyms splits a pipe-separated synonym cell (e.g. "취업|일자리").
func splitSynonyms(cell string) []string {
	var out []string
	for _, s := range strings.Split(cell, "|") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clampWeight(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// Find returns the entry whose user pattern matches phrase, case-insensitively.
func (t *Table) Find(phrase string) (Entry, bool) {
	e, ok := t.byPattern[strings.ToLower(strings.TrimSpace(phrase))]
	return e, ok
}

// Len returns the number of patterns in the table.
func (t *Table) Len() int { return len(t.byPattern) }

// MaxPatternWords returns the word count of the longest pattern, bounding
// the n-gram window the normalizer needs to scan.
func (t *Table) MaxPatternWords() int {
	if t.maxPatternWords < 1 {
		return 1
	}
	return t.maxPatternWords
}
