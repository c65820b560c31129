// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge reconciles standardized records across sources that share
// no common identifier scheme. Records keyed by normalized DOI when
// present, otherwise by normalized title + year + first author, collapse
// into one; non-empty fields win over empty ones, and the KCI value wins
// conflicts (fixed source precedence, so the result is independent of
// input order).
package merge

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/learninglab/kscholar/pkg/types"
)

// Merge deduplicates the union of both collectors' record sets and returns
// the combined set plus the number of duplicates removed. Input order does
// not affect the output set: identities are computed before any merging
// and conflicts resolve by source precedence, not arrival order.
//
// A record with an empty title or source violates the collector contract
// and is a fatal error, not a warning.
func Merge(kciRecords, rissRecords []types.StandardRecord) ([]types.StandardRecord, int, error) {
	all := make([]types.StandardRecord, 0, len(kciRecords)+len(rissRecords))
	all = append(all, kciRecords...)
	all = append(all, rissRecords...)

	seen := make(map[string]int, len(all))
	var merged []types.StandardRecord
	removed := 0

	for _, r := range all {
		if r.Title == "" || r.Source == "" {
			return nil, 0, fmt.Errorf("malformed record: title and source are required (got title=%q source=%q)", r.Title, r.Source)
		}
		key := identity(r)
		if idx, ok := seen[key]; ok {
			merged[idx] = combine(merged[idx], r)
			removed++
			continue
		}
		seen[key] = len(merged)
		merged = append(merged, r)
	}
	return merged, removed, nil
}

// identity computes the dedup key: normalized DOI when present, otherwise
// normalized title + publication year + normalized first author.
func identity(r types.StandardRecord) string {
	if doi := NormalizeDOI(r.DOI); doi != "" {
		return "doi:" + doi
	}
	author := ""
	if len(r.Authors) > 0 {
		author = normalizeText(r.Authors[0])
	}
	return fmt.Sprintf("tya:%s|%d|%s", normalizeTitle(r.Title), r.PubYear, author)
}

// sourceRank orders sources for conflict resolution: KCI beats RISS.
func sourceRank(s types.Source) int {
	switch s {
	case types.SourceCombined:
		return 3
	case types.SourceKCI:
		return 2
	case types.SourceRISS:
		return 1
	default:
		return 0
	}
}

// combine merges two records sharing an identity. The higher-precedence
// record is the base; empty base fields fill from the other record. When
// both sources contributed, the result carries the combined source marker.
func combine(a, b types.StandardRecord) types.StandardRecord {
	base, other := a, b
	if sourceRank(b.Source) > sourceRank(a.Source) {
		base, other = b, a
	}

	if base.Title == "" {
		base.Title = other.Title
	}
	if len(base.Authors) == 0 {
		base.Authors = other.Authors
	}
	if base.Venue == "" {
		base.Venue = other.Venue
	}
	if base.PubYear == 0 {
		base.PubYear = other.PubYear
	}
	if base.URL == "" {
		base.URL = other.URL
	}
	if base.DOI == "" {
		base.DOI = other.DOI
	}
	if base.Abstract == "" {
		base.Abstract = other.Abstract
	}
	if len(base.Keywords) == 0 {
		base.Keywords = other.Keywords
	}
	if base.QueryTerm == "" {
		base.QueryTerm = other.QueryTerm
	}

	if a.Source != b.Source {
		base.Source = types.SourceCombined
	}
	return base
}

// NormalizeDOI lowercases a DOI and strips resolver prefixes so that
// "https://doi.org/10.1234/X" and "10.1234/x" key identically.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{
		"https://doi.org/",
		"http://doi.org/",
		"https://dx.doi.org/",
		"http://dx.doi.org/",
		"doi:",
	} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return doi
}

// normalizeTitle keys a title: NFC + width folding (Korean corpora mix
// full-width and half-width forms), lowercasing, punctuation stripped,
// whitespace collapsed.
func normalizeTitle(title string) string {
	return normalizeText(title)
}

func normalizeText(s string) string {
	s = width.Fold.String(norm.NFC.String(s))
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
