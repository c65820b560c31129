// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes merged result sets to CSV and to YAML result
// files that can be reloaded later without re-querying the backends.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/learninglab/kscholar/pkg/types"
)

// ResultFile is the on-disk representation of a search run and its merged
// records.
type ResultFile struct {
	Query   string                 `yaml:"query"`
	Terms   []types.CanonicalTerm  `yaml:"terms"`
	Config  ResultFileConfig       `yaml:"config"`
	Records []types.StandardRecord `yaml:"records"`
	Summary ResultSummary          `yaml:"summary"`
}

// ResultFileConfig stores the search parameters that produced the records.
type ResultFileConfig struct {
	DocType    string `yaml:"doc_type,omitempty"`
	YearFrom   int    `yaml:"year_from,omitempty"`
	YearTo     int    `yaml:"year_to,omitempty"`
	MaxResults int    `yaml:"max_results"`
}

// ResultSummary stores result statistics and a timestamp.
type ResultSummary struct {
	Total       int       `yaml:"total"`
	DupsRemoved int       `yaml:"dups_removed"`
	Warnings    []string  `yaml:"warnings,omitempty"`
	Timestamp   time.Time `yaml:"timestamp"`
}

// WriteResultFile saves a run and its merged records to a YAML file.
func WriteResultFile(path string, rf ResultFile) error {
	if rf.Summary.Timestamp.IsZero() {
		rf.Summary.Timestamp = time.Now()
	}
	rf.Summary.Total = len(rf.Records)

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved result file from disk.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &rf, nil
}

// csvHeader is the fixed column order for CSV export. Multi-valued fields
// are joined with "; ".
var csvHeader = []string{
	"title", "authors", "venue", "pub_year", "url", "doi",
	"abstract", "keywords", "source", "query_term",
}

// WriteCSV writes the records as UTF-8 CSV with a header row. A leading
// byte order mark keeps spreadsheet tools from garbling Korean text.
func WriteCSV(w io.Writer, records []types.StandardRecord) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, rec := range records {
		year := ""
		if rec.PubYear > 0 {
			year = strconv.Itoa(rec.PubYear)
		}
		row := []string{
			rec.Title,
			strings.Join(rec.Authors, "; "),
			rec.Venue,
			year,
			rec.URL,
			rec.DOI,
			rec.Abstract,
			strings.Join(rec.Keywords, "; "),
			string(rec.Source),
			rec.QueryTerm,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record %q: %w", rec.Title, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the records to a CSV file at path.
func WriteCSVFile(path string, records []types.StandardRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer f.Close()
	if err := WriteCSV(f, records); err != nil {
		return err
	}
	return f.Close()
}
