// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect retrieves paper metadata from the KCI and RISS open APIs
// and translates each backend's native schema into standardized records.
// Each collector compensates for its backend's narrow query grammar by
// issuing several query variants (strategies) and merging their hits.
package collect

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/learninglab/kscholar/pkg/types"
)

// Collector searches a single backend. Each backend (KCI, RISS) implements
// this interface; there is no shared state beyond the contract. A search
// returns partial results plus warnings for degraded strategies; the error
// is non-nil only for fatal failures (authentication).
type Collector interface {
	Name() string
	Search(ctx context.Context, terms []types.CanonicalTerm, opts Options) ([]types.StandardRecord, []string, error)
}

// Output holds each collector's standardized records plus the warnings
// accumulated across strategies and detail fetches.
type Output struct {
	Sets     map[string][]types.StandardRecord
	Warnings []string
}

// Records returns the record set collected by the named backend.
func (o Output) Records(name string) []types.StandardRecord {
	return o.Sets[name]
}

// Total returns the number of records across all collectors.
func (o Output) Total() int {
	n := 0
	for _, set := range o.Sets {
		n += len(set)
	}
	return n
}

// Collect fans the canonical terms out to all collectors concurrently and
// joins their outputs. Per-collector degradation surfaces as warnings
// written to w and collected in the output; an authentication failure on
// any collector is fatal and propagates after all collectors finish, so
// the caller never sees a half-cancelled run.
func Collect(ctx context.Context, collectors []Collector, terms []types.CanonicalTerm, opts Options, w io.Writer) (Output, error) {
	if len(terms) == 0 {
		return Output{}, fmt.Errorf("no canonical terms: normalize the query first")
	}
	if len(collectors) == 0 {
		return Output{}, fmt.Errorf("no collectors configured")
	}

	type collectorResult struct {
		name     string
		records  []types.StandardRecord
		warnings []string
		err      error
	}

	ch := make(chan collectorResult, len(collectors))
	var wg sync.WaitGroup

	for _, c := range collectors {
		wg.Add(1)
		go func(c Collector) {
			defer wg.Done()
			records, warnings, err := c.Search(ctx, terms, opts)
			ch <- collectorResult{name: c.Name(), records: records, warnings: warnings, err: err}
		}(c)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	out := Output{Sets: make(map[string][]types.StandardRecord, len(collectors))}
	var authErr error
	for cr := range ch {
		out.Warnings = append(out.Warnings, cr.warnings...)
		for _, warning := range cr.warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
		if cr.err != nil {
			if isAuthentication(cr.err) {
				authErr = fmt.Errorf("%s: %w", cr.name, cr.err)
				continue
			}
			msg := fmt.Sprintf("%s failed: %v", cr.name, cr.err)
			out.Warnings = append(out.Warnings, msg)
			fmt.Fprintf(w, "warning: %s\n", msg)
			continue
		}
		out.Sets[cr.name] = cr.records
	}

	if authErr != nil {
		return Output{}, authErr
	}
	return out, nil
}
