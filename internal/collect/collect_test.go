// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/learninglab/kscholar/pkg/types"
)

// mockCollector is a canned Collector for fan-out tests.
type mockCollector struct {
	name     string
	records  []types.StandardRecord
	warnings []string
	err      error
}

func (m *mockCollector) Name() string { return m.name }

func (m *mockCollector) Search(ctx context.Context, terms []types.CanonicalTerm, opts Options) ([]types.StandardRecord, []string, error) {
	return m.records, m.warnings, m.err
}

func mockRecord(title string, source types.Source) types.StandardRecord {
	return types.StandardRecord{Title: title, Source: source, PubYear: 2022}
}

func TestCollectFansOut(t *testing.T) {
	collectors := []Collector{
		&mockCollector{name: "kci", records: []types.StandardRecord{
			mockRecord("논문 A", types.SourceKCI),
			mockRecord("논문 B", types.SourceKCI),
		}},
		&mockCollector{name: "riss", records: []types.StandardRecord{
			mockRecord("논문 C", types.SourceRISS),
		}},
	}

	var buf bytes.Buffer
	out, err := Collect(context.Background(), collectors, singleTerm("고용"), Options{}, &buf)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if out.Total() != 3 {
		t.Errorf("total = %d, want 3", out.Total())
	}
	if len(out.Records("kci")) != 2 || len(out.Records("riss")) != 1 {
		t.Errorf("per-source counts wrong: kci=%d riss=%d", len(out.Records("kci")), len(out.Records("riss")))
	}
}

func TestCollectWarningsSurface(t *testing.T) {
	collectors := []Collector{
		&mockCollector{name: "kci", warnings: []string{"kci strategy title:고용[0-0]: transient network failure"}},
		&mockCollector{name: "riss", records: []types.StandardRecord{mockRecord("논문", types.SourceRISS)}},
	}

	var buf bytes.Buffer
	out, err := Collect(context.Background(), collectors, singleTerm("고용"), Options{}, &buf)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(out.Warnings) != 1 {
		t.Errorf("got %d warnings, want 1", len(out.Warnings))
	}
	if !strings.Contains(buf.String(), "warning: kci strategy") {
		t.Errorf("warning not written to writer: %q", buf.String())
	}
	if out.Total() != 1 {
		t.Errorf("degraded collector must not block the other: total = %d", out.Total())
	}
}

func TestCollectNonAuthErrorDegrades(t *testing.T) {
	collectors := []Collector{
		&mockCollector{name: "kci", err: fmt.Errorf("kci: %w", ErrTransient)},
		&mockCollector{name: "riss", records: []types.StandardRecord{mockRecord("논문", types.SourceRISS)}},
	}

	var buf bytes.Buffer
	out, err := Collect(context.Background(), collectors, singleTerm("고용"), Options{}, &buf)
	if err != nil {
		t.Fatalf("transient collector error must degrade, got: %v", err)
	}
	if out.Total() != 1 {
		t.Errorf("total = %d, want 1 from the surviving collector", out.Total())
	}
	if !strings.Contains(buf.String(), "kci failed") {
		t.Errorf("expected a failure warning, got %q", buf.String())
	}
}

func TestCollectAuthErrorFatal(t *testing.T) {
	collectors := []Collector{
		&mockCollector{name: "kci", err: fmt.Errorf("kci: bad key: %w", ErrAuthentication)},
		&mockCollector{name: "riss", records: []types.StandardRecord{mockRecord("논문", types.SourceRISS)}},
	}

	var buf bytes.Buffer
	_, err := Collect(context.Background(), collectors, singleTerm("고용"), Options{}, &buf)
	if !isAuthentication(err) {
		t.Errorf("expected fatal authentication error, got %v", err)
	}
}

func TestCollectEmptyInputs(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Collect(context.Background(), nil, singleTerm("고용"), Options{}, &buf); err == nil {
		t.Error("expected error for no collectors")
	}
	collectors := []Collector{&mockCollector{name: "kci"}}
	if _, err := Collect(context.Background(), collectors, nil, Options{}, &buf); err == nil {
		t.Error("expected error for no terms")
	}
}

func TestStatusErrorTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{401, ErrAuthentication},
		{403, ErrAuthentication},
		{429, ErrRateLimited},
		{500, ErrTransient},
		{503, ErrTransient},
		{400, ErrMalformed},
	}
	for _, tc := range cases {
		err := statusError("test", tc.status)
		if !errors.Is(err, tc.want) {
			t.Errorf("statusError(%d) = %v, want %v", tc.status, err, tc.want)
		}
	}
}
