// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline chains the three search stages: query normalization,
// concurrent collection from both backends, and cross-source merge. The
// CLI and the HTTP API both run searches through it.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/learninglab/kscholar/internal/collect"
	"github.com/learninglab/kscholar/internal/merge"
	"github.com/learninglab/kscholar/internal/normalize"
	"github.com/learninglab/kscholar/pkg/types"
)

// Request holds one search's parameters.
type Request struct {
	Query        string `json:"query" yaml:"query"`
	UseAI        bool   `json:"use_ai,omitempty" yaml:"use_ai,omitempty"`
	DocType      string `json:"doc_type,omitempty" yaml:"doc_type,omitempty"`
	YearFrom     int    `json:"year_from,omitempty" yaml:"year_from,omitempty"`
	YearTo       int    `json:"year_to,omitempty" yaml:"year_to,omitempty"`
	MaxResults   int    `json:"max_results,omitempty" yaml:"max_results,omitempty"`
	FetchDetails bool   `json:"fetch_details,omitempty" yaml:"fetch_details,omitempty"`
}

// Result is a completed search: the expanded terms, the merged records,
// and everything that degraded along the way.
type Result struct {
	Query       string                 `json:"query" yaml:"query"`
	Terms       []types.CanonicalTerm  `json:"terms" yaml:"terms"`
	Records     []types.StandardRecord `json:"records" yaml:"records"`
	PerSource   map[string]int         `json:"per_source" yaml:"per_source"`
	DupsRemoved int                    `json:"dups_removed" yaml:"dups_removed"`
	Warnings    []string               `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Pipeline wires the stages together. Collectors run concurrently; the
// normalizer's suggestion cache persists across runs.
type Pipeline struct {
	Normalizer *normalize.Normalizer
	Collectors []collect.Collector
	Workers    int
	// StrategyDelay spaces strategy calls within each collector.
	StrategyDelay time.Duration
}

// Run executes one search end to end. Warnings stream to w as they
// surface and also accumulate in the result. Fatal errors are empty or
// unusable queries, authentication failures, and merge contract
// violations.
func (p *Pipeline) Run(ctx context.Context, req Request, w io.Writer) (Result, error) {
	if req.Query == "" {
		return Result{}, fmt.Errorf("empty query")
	}

	terms, warnings := p.Normalizer.Normalize(ctx, req.Query, req.UseAI)
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	if len(terms) == 0 {
		return Result{}, fmt.Errorf("query %q normalized to no searchable terms", req.Query)
	}

	opts := collect.Options{
		YearFrom:      req.YearFrom,
		YearTo:        req.YearTo,
		DocType:       req.DocType,
		MaxResults:    req.MaxResults,
		FetchDetails:  req.FetchDetails,
		DetailWorkers: p.Workers,
		StrategyDelay: p.StrategyDelay,
	}
	out, err := collect.Collect(ctx, p.Collectors, terms, opts, w)
	if err != nil {
		return Result{}, err
	}
	warnings = append(warnings, out.Warnings...)

	records, removed, err := merge.Merge(out.Records(collect.KCIName), out.Records(collect.RISSName))
	if err != nil {
		return Result{}, fmt.Errorf("merging results: %w", err)
	}

	perSource := make(map[string]int, len(out.Sets))
	for name, set := range out.Sets {
		perSource[name] = len(set)
	}

	return Result{
		Query:       req.Query,
		Terms:       terms,
		Records:     records,
		PerSource:   perSource,
		DupsRemoved: removed,
		Warnings:    warnings,
	}, nil
}
