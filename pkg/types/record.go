// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the kscholar pipeline.
package types

// Source identifies which backend produced a record.
type Source string

const (
	SourceKCI  Source = "KCI"
	SourceRISS Source = "RISS"
	// SourceCombined marks a record merged from both backends.
	SourceCombined Source = "KCI,RISS"
)

// CanonicalTerm is a normalized search keyword with its category, weight,
// and synonym set. Terms are produced by the term table or by AI suggestion
// and are immutable once produced.
type CanonicalTerm struct {
	// Text is the canonical keyword (e.g. "고용").
	Text string `json:"text" yaml:"text"`

	// Category groups related terms (e.g. "labor", or "ai" for suggested terms).
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Weight is a value between 0.0 and 1.0. Table entries carry their
	// configured weight; AI-suggested terms carry 0.5.
	Weight float64 `json:"weight" yaml:"weight"`

	// Synonyms lists alternative keywords queried alongside Text.
	Synonyms []string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
}

// StandardRecord is the unified representation of a paper or thesis entry,
// independent of the backend that found it. Title and Source are always
// present; DOI, Abstract, and Keywords may be empty.
type StandardRecord struct {
	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Venue is the journal or degree-granting institution.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// PubYear is the publication year, 0 when unknown.
	PubYear int `json:"pub_year,omitempty" yaml:"pub_year,omitempty"`

	// URL is the source landing page for the record.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// DOI is the bare DOI without a resolver prefix. Primary dedup key
	// when present.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Abstract is the paper abstract when the source exposes one.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Keywords lists author or indexer keywords.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Source is the backend (or combination) that contributed the record.
	Source Source `json:"source" yaml:"source"`

	// QueryTerm is the canonical term whose strategy retrieved the record.
	QueryTerm string `json:"query_term,omitempty" yaml:"query_term,omitempty"`
}
