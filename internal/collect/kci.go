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
	"sync"

	"github.com/learninglab/kscholar/internal/httputil"
	"github.com/learninglab/kscholar/pkg/types"
)

// kciAPIBase is the KCI open API endpoint. Declared as a var so tests can
// substitute an httptest server.
var kciAPIBase = "https://open.kci.go.kr/po/openapi/openApiSearch.kci"

// kciPageSize is the API's displayCount ceiling per call.
const kciPageSize = 100

// KCIName is the collector identifier for KCI.
const KCIName = "kci"

// KCICollector queries the Korean Citation Index open API. KCI exposes
// title-scoped article search plus a per-article detail call used to
// backfill abstracts and keywords.
type KCICollector struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

// Name returns the collector identifier.
func (c *KCICollector) Name() string { return KCIName }

// kciHit pairs a standardized record with its backend-native article ID,
// which the detail-fetch pass needs.
type kciHit struct {
	record    types.StandardRecord
	articleID string
}

// Search runs the title-scoped strategies in priority order, deduplicates
// by article ID (then DOI, then URL), and optionally enriches records
// missing abstract or keywords through the bounded detail-fetch pool.
// Strategy failures degrade to warnings; only authentication failures
// abort the search.
func (c *KCICollector) Search(ctx context.Context, terms []types.CanonicalTerm, opts Options) ([]types.StandardRecord, []string, error) {
	if len(terms) == 0 {
		return nil, nil, fmt.Errorf("kci: no canonical terms to search")
	}
	if c.APIKey == "" {
		return nil, nil, fmt.Errorf("kci: missing API key: %w", ErrAuthentication)
	}

	// KCI's grammar has no free-keyword parameter; everything is title-scoped.
	strategies := BuildStrategies(terms, opts, ScopeTitle)
	maxResults := opts.maxResults()

	var hits []kciHit
	var warnings []string
	seen := make(map[string]bool)

	for i, st := range strategies {
		if len(hits) >= maxResults {
			break
		}
		if i > 0 {
			opts.pause(ctx)
		}
		if err := ctx.Err(); err != nil {
			warnings = append(warnings, fmt.Sprintf("kci: deadline reached, %d strategies skipped", remaining(strategies, st)))
			break
		}

		found, err := c.runStrategy(ctx, st, maxResults-len(hits))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				warnings = append(warnings, fmt.Sprintf("kci: deadline reached during strategy %s", st.Label))
				break
			}
			if isAuthentication(err) {
				return nil, warnings, fmt.Errorf("kci strategy %s: %w", st.Label, err)
			}
			warnings = append(warnings, fmt.Sprintf("kci strategy %s: %v", st.Label, err))
			continue
		}

		for _, h := range found {
			key := kciDedupKey(h)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			hits = append(hits, h)
			if len(hits) >= maxResults {
				break
			}
		}
	}

	if opts.FetchDetails {
		detailWarnings := c.enrichDetails(ctx, hits, opts.DetailWorkers)
		warnings = append(warnings, detailWarnings...)
	}

	records := make([]types.StandardRecord, 0, len(hits))
	for _, h := range hits {
		records = append(records, h.record)
	}
	return records, warnings, nil
}

// runStrategy executes one articleSearch call.
func (c *KCICollector) runStrategy(ctx context.Context, st Strategy, remaining int) ([]kciHit, error) {
	if remaining > kciPageSize {
		remaining = kciPageSize
	}
	params := url.Values{
		"apiCode":      {"articleSearch"},
		"key":          {c.APIKey},
		"title":        {st.Term},
		"page":         {"1"},
		"displayCount": {strconv.Itoa(remaining)},
	}
	if st.YearFrom > 0 {
		params.Set("dateFrom", fmt.Sprintf("%d01", st.YearFrom))
	}
	if st.YearTo > 0 {
		params.Set("dateTo", fmt.Sprintf("%d12", st.YearTo))
	}

	var resp kciResponse
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, err
	}

	hits := make([]kciHit, 0, len(resp.OutputData.Records))
	for _, rec := range resp.OutputData.Records {
		hit := rec.toHit(st.QueryTerm)
		if hit.record.Title == "" {
			continue
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// call performs one KCI API request and decodes the XML body into out.
func (c *KCICollector) call(ctx context.Context, params url.Values, out interface{}) error {
	reqURL := kciAPIBase + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return fmt.Errorf("KCI API request: %w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError("KCI API", resp.StatusCode)
	}

	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing KCI response: %w: %v", ErrMalformed, err)
	}
	return nil
}

// enrichDetails backfills abstract and keywords for hits missing them via
// articleDetail calls over a bounded worker pool. Each task is independent:
// a per-record failure degrades that record to missing fields and never
// aborts the batch. Aggregation happens after all workers complete.
func (c *KCICollector) enrichDetails(ctx context.Context, hits []kciHit, workers int) []string {
	if workers <= 0 {
		workers = 5
	}

	var need []int
	for i, h := range hits {
		if h.articleID == "" {
			continue
		}
		if h.record.Abstract == "" || len(h.record.Keywords) == 0 {
			need = append(need, i)
		}
	}
	if len(need) == 0 {
		return nil
	}

	type detailResult struct {
		idx  int
		info *kciArticleInfo
		err  error
	}

	jobs := make(chan int)
	results := make(chan detailResult, len(need))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				info, err := c.fetchDetail(ctx, hits[idx].articleID)
				results <- detailResult{idx: idx, info: info, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, idx := range need {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var warnings []string
	for res := range results {
		if res.err != nil {
			warnings = append(warnings, fmt.Sprintf("kci detail %s: %v", hits[res.idx].articleID, res.err))
			continue
		}
		rec := &hits[res.idx].record
		if rec.Abstract == "" {
			rec.Abstract = res.info.abstractText()
		}
		if len(rec.Keywords) == 0 {
			rec.Keywords = res.info.keywordList()
		}
	}
	return warnings
}

// fetchDetail performs one articleDetail call.
func (c *KCICollector) fetchDetail(ctx context.Context, articleID string) (*kciArticleInfo, error) {
	params := url.Values{
		"apiCode": {"articleDetail"},
		"key":     {c.APIKey},
		"id":      {articleID},
	}
	var resp kciDetailResponse
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, err
	}
	return &resp.OutputData.Record.ArticleInfo, nil
}

// kciDedupKey prefers the backend-native article ID, then DOI, then URL.
func kciDedupKey(h kciHit) string {
	if h.articleID != "" {
		return "id:" + h.articleID
	}
	if h.record.DOI != "" {
		return "doi:" + strings.ToLower(h.record.DOI)
	}
	if h.record.URL != "" {
		return "url:" + h.record.URL
	}
	return "title:" + strings.ToLower(h.record.Title)
}

// remaining counts strategies at or after st, for deadline warnings.
func remaining(strategies []Strategy, st Strategy) int {
	for i := range strategies {
		if strategies[i].Label == st.Label {
			return len(strategies) - i
		}
	}
	return 0
}

// KCI API XML structures (articleSearch / articleDetail).
type kciResponse struct {
	OutputData kciOutputData `xml:"outputData"`
}

type kciOutputData struct {
	Records []kciXMLRecord `xml:"record"`
}

type kciDetailResponse struct {
	OutputData struct {
		Record kciXMLRecord `xml:"record"`
	} `xml:"outputData"`
}

type kciXMLRecord struct {
	JournalInfo kciJournalInfo `xml:"journalInfo"`
	ArticleInfo kciArticleInfo `xml:"articleInfo"`
}

type kciJournalInfo struct {
	JournalName   string `xml:"journal-name"`
	PublisherName string `xml:"publisher-name"`
	PubYear       string `xml:"pub-year"`
}

type kciArticleInfo struct {
	ArticleID      string        `xml:"article-id,attr"`
	Titles         []kciTitle    `xml:"title-group>article-title"`
	Authors        []string      `xml:"author-group>author"`
	Abstract       kciAbstract   `xml:"abstract"`
	AbstractGroup  []kciAbstract `xml:"abstract-group>abstract"`
	DOI            string        `xml:"doi"`
	UCI            string        `xml:"uci"`
	URL            string        `xml:"url"`
	Keywords       []string      `xml:"keyword-group>keyword"`
	KeywordsLegacy []string      `xml:"kwd-group>kwd"`
}

type kciTitle struct {
	Lang string `xml:"lang,attr"`
	Text string `xml:",chardata"`
}

type kciAbstract struct {
	Lang string `xml:"lang,attr"`
	Text string `xml:",chardata"`
}

// title returns the first non-empty article title.
func (a *kciArticleInfo) title() string {
	for _, t := range a.Titles {
		if text := strings.TrimSpace(t.Text); text != "" {
			return text
		}
	}
	return ""
}

// abstractText returns the first non-empty abstract, checking the flat
// element before the grouped form. KCI varies between the two.
func (a *kciArticleInfo) abstractText() string {
	if text := strings.TrimSpace(a.Abstract.Text); text != "" {
		return text
	}
	for _, abs := range a.AbstractGroup {
		if text := strings.TrimSpace(abs.Text); text != "" {
			return text
		}
	}
	return ""
}

// keywordList merges the two keyword group forms KCI uses.
func (a *kciArticleInfo) keywordList() []string {
	var out []string
	for _, kw := range append(append([]string(nil), a.Keywords...), a.KeywordsLegacy...) {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// toHit converts one KCI record into a standardized hit.
func (r kciXMLRecord) toHit(queryTerm string) kciHit {
	info := r.ArticleInfo

	var authors []string
	for _, a := range info.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}

	pubYear := 0
	if y, err := strconv.Atoi(strings.TrimSpace(r.JournalInfo.PubYear)); err == nil {
		pubYear = y
	}

	return kciHit{
		articleID: strings.TrimSpace(info.ArticleID),
		record: types.StandardRecord{
			Title:     info.title(),
			Authors:   authors,
			Venue:     strings.TrimSpace(r.JournalInfo.JournalName),
			PubYear:   pubYear,
			URL:       strings.TrimSpace(info.URL),
			DOI:       strings.TrimSpace(info.DOI),
			Abstract:  info.abstractText(),
			Keywords:  info.keywordList(),
			Source:    types.SourceKCI,
			QueryTerm: queryTerm,
		},
	}
}
