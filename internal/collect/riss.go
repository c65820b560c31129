// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/learninglab/kscholar/internal/httputil"
	"github.com/learninglab/kscholar/pkg/types"
)

// rissAPIBase is the RISS open API endpoint. Declared as a var so tests
// can substitute an httptest server.
var rissAPIBase = "https://www.riss.kr/openApi"

// rissPageSize is the API's rowcount ceiling per call.
const rissPageSize = 100

// RISSName is the collector identifier for RISS.
const RISSName = "riss"

// RISSCollector queries the RISS (thesis/article index) open API. RISS
// supports both title-scoped and keyword-wide search but caps each call's
// row count, so the strategy list also splits wide year ranges per year.
type RISSCollector struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

// Name returns the collector identifier.
func (c *RISSCollector) Name() string { return RISSName }

// Search runs the strategies in priority order (title search first,
// keyword-wide second, per-term fallback and per-year split after) and
// deduplicates by record URL. Strategy failures degrade to warnings; only
// authentication failures abort the search. RISS exposes no abstracts or
// DOIs, so there is no detail-fetch pass.
func (c *RISSCollector) Search(ctx context.Context, terms []types.CanonicalTerm, opts Options) ([]types.StandardRecord, []string, error) {
	if len(terms) == 0 {
		return nil, nil, fmt.Errorf("riss: no canonical terms to search")
	}
	if c.APIKey == "" {
		return nil, nil, fmt.Errorf("riss: missing API key: %w", ErrAuthentication)
	}

	strategies := BuildStrategies(terms, opts, ScopeTitle, ScopeKeyword)
	maxResults := opts.maxResults()

	var records []types.StandardRecord
	var warnings []string
	seen := make(map[string]bool)

	for i, st := range strategies {
		if len(records) >= maxResults {
			break
		}
		if i > 0 {
			opts.pause(ctx)
		}
		if err := ctx.Err(); err != nil {
			warnings = append(warnings, fmt.Sprintf("riss: deadline reached, %d strategies skipped", remaining(strategies, st)))
			break
		}

		found, err := c.runStrategy(ctx, st, maxResults-len(records))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				warnings = append(warnings, fmt.Sprintf("riss: deadline reached during strategy %s", st.Label))
				break
			}
			if isAuthentication(err) {
				return nil, warnings, fmt.Errorf("riss strategy %s: %w", st.Label, err)
			}
			warnings = append(warnings, fmt.Sprintf("riss strategy %s: %v", st.Label, err))
			continue
		}

		for _, rec := range found {
			key := rissDedupKey(rec)
			if seen[key] {
				continue
			}
			seen[key] = true
			records = append(records, rec)
			if len(records) >= maxResults {
				break
			}
		}
	}

	return records, warnings, nil
}

// runStrategy executes one openApi call.
func (c *RISSCollector) runStrategy(ctx context.Context, st Strategy, remaining int) ([]types.StandardRecord, error) {
	if remaining > rissPageSize {
		remaining = rissPageSize
	}

	docType := st.DocType
	if docType == "" {
		docType = "T"
	}

	params := url.Values{
		"key":      {c.APIKey},
		"version":  {"1.0"},
		"type":     {docType},
		"sort":     {"Y"},
		"asc":      {"D"},
		"rsnum":    {"1"},
		"rowcount": {strconv.Itoa(remaining)},
	}
	switch st.Scope {
	case ScopeTitle:
		params.Set("title", st.Term)
	default:
		params.Set("keyword", st.Term)
	}
	if st.YearFrom > 0 {
		params.Set("spubdate", strconv.Itoa(st.YearFrom))
	}
	if st.YearTo > 0 {
		params.Set("epubdate", strconv.Itoa(st.YearTo))
	}

	reqURL := rissAPIBase + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/xml,text/xml,*/*")

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("RISS API request: %w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("RISS API", resp.StatusCode)
	}

	var rr rissResponse
	if err := xml.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("parsing RISS response: %w: %v", ErrMalformed, err)
	}

	if code := strings.TrimSpace(rr.Head.Error); code != "" && code != "0" {
		msg := strings.TrimSpace(rr.Head.ErrorMessage)
		if rissAuthError(code, msg) {
			return nil, fmt.Errorf("RISS API error %s: %s: %w", code, msg, ErrAuthentication)
		}
		return nil, fmt.Errorf("RISS API error %s: %s: %w", code, msg, ErrMalformed)
	}

	records := make([]types.StandardRecord, 0, len(rr.Records))
	for _, rec := range rr.Records {
		r := rec.toRecord(st.QueryTerm)
		if r.Title == "" {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// rissAuthError recognizes key-related API error replies. RISS signals a
// bad or expired key in-band with HTTP 200.
func rissAuthError(code, msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "key") || strings.Contains(msg, "인증") || strings.Contains(msg, "키")
}

// rissDedupKey uses the record URL (RISS's stable identifier), falling
// back to a lowercased title.
func rissDedupKey(r types.StandardRecord) string {
	if r.URL != "" {
		return "url:" + r.URL
	}
	return "title:" + strings.ToLower(r.Title)
}

// RISS API XML structures.
type rissResponse struct {
	Head    rissHead     `xml:"head"`
	Records []rissRecord `xml:"metadata"`
}

type rissHead struct {
	TotalCount   string `xml:"totalcount"`
	Error        string `xml:"Error"`
	ErrorMessage string `xml:"ErrorMessage"`
}

type rissRecord struct {
	Title        string `xml:"riss.title"`
	Author       string `xml:"riss.author"`
	Publisher    string `xml:"riss.publisher"`
	PubDate      string `xml:"riss.pubdate"`
	DocType      string `xml:"riss.type"`
	MaterialType string `xml:"riss.mtype"`
	URL          string `xml:"url"`
}

// toRecord converts one RISS record into the standard form. RISS exposes
// no DOI, abstract text, or keywords; those fields stay empty and merge
// backfills them from KCI when the sources overlap.
func (r rissRecord) toRecord(queryTerm string) types.StandardRecord {
	return types.StandardRecord{
		Title:     strings.TrimSpace(r.Title),
		Authors:   splitAuthors(r.Author),
		Venue:     strings.TrimSpace(r.Publisher),
		PubYear:   extractYear(r.PubDate),
		URL:       strings.TrimSpace(r.URL),
		Source:    types.SourceRISS,
		QueryTerm: queryTerm,
	}
}

// splitAuthors splits RISS's single author string on its separators.
func splitAuthors(s string) []string {
	var out []string
	for _, a := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// extractYear pulls the first four-digit year out of a free-form date
// string (RISS mixes "2021", "2021.02", and longer forms).
func extractYear(s string) int {
	runes := []rune(s)
	run := 0
	for i, r := range runes {
		if unicode.IsDigit(r) {
			run++
			if run == 4 {
				year, err := strconv.Atoi(string(runes[i-3 : i+1]))
				if err == nil && year >= 1900 && year <= 2100 {
					return year
				}
				run = 0
			}
		} else {
			run = 0
		}
	}
	return 0
}
