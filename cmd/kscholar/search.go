// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/learninglab/kscholar/internal/export"
	"github.com/learninglab/kscholar/internal/history"
	"github.com/learninglab/kscholar/internal/pipeline"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search KCI and RISS for papers matching a query",
	Long: `Search normalizes a free-form Korean query into canonical terms, queries
both backends with several strategy variants, and merges the results into
one deduplicated record set. Results print as a table by default.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text query (required)")
	searchCmd.Flags().Bool("use-ai", false, "expand the query with AI-suggested terms")
	searchCmd.Flags().Int("from", 0, "publication year range start (YYYY)")
	searchCmd.Flags().Int("to", 0, "publication year range end (YYYY)")
	searchCmd.Flags().String("doc-type", "", "RISS document type: T (theses), A (articles), F (foreign)")
	searchCmd.Flags().Int("max-results", 100, "maximum records per backend")
	searchCmd.Flags().Bool("details", false, "fetch abstracts and keywords for KCI records")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("out", "", "save results to a YAML result file")
	searchCmd.Flags().String("csv", "", "export results to a CSV file")
	searchCmd.Flags().Bool("save", false, "record this run in the search history")
	searchCmd.Flags().Duration("timeout", 2*time.Minute, "overall search deadline")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		return fmt.Errorf("--query is required")
	}

	useAI, _ := cmd.Flags().GetBool("use-ai")
	yearFrom, _ := cmd.Flags().GetInt("from")
	yearTo, _ := cmd.Flags().GetInt("to")
	docType, _ := cmd.Flags().GetString("doc-type")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	details, _ := cmd.Flags().GetBool("details")
	asJSON, _ := cmd.Flags().GetBool("json")
	outPath, _ := cmd.Flags().GetString("out")
	csvPath, _ := cmd.Flags().GetString("csv")
	save, _ := cmd.Flags().GetBool("save")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if yearFrom > 0 && yearTo > 0 && yearTo < yearFrom {
		return fmt.Errorf("--to %d is before --from %d", yearTo, yearFrom)
	}

	cfg := loadConfig()
	if !cmd.Flags().Changed("use-ai") {
		useAI = cfg.Normalizer.UseAI
	}
	if !cmd.Flags().Changed("doc-type") {
		docType = cfg.Search.DocType
	}
	if !cmd.Flags().Changed("details") {
		details = cfg.Search.FetchDetails
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	req := pipeline.Request{
		Query:        query,
		UseAI:        useAI,
		DocType:      docType,
		YearFrom:     yearFrom,
		YearTo:       yearTo,
		MaxResults:   maxResults,
		FetchDetails: details,
	}
	res, err := p.Run(ctx, req, os.Stderr)
	if err != nil {
		return err
	}

	if asJSON {
		if err := pipeline.FormatJSON(res, os.Stdout); err != nil {
			return err
		}
	} else {
		pipeline.FormatTable(res, os.Stdout)
	}

	if outPath != "" {
		rf := export.ResultFile{
			Query:   res.Query,
			Terms:   res.Terms,
			Config:  export.ResultFileConfig{DocType: docType, YearFrom: yearFrom, YearTo: yearTo, MaxResults: maxResults},
			Records: res.Records,
			Summary: export.ResultSummary{DupsRemoved: res.DupsRemoved, Warnings: res.Warnings},
		}
		if err := export.WriteResultFile(outPath, rf); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved results to %s\n", outPath)
	}

	if csvPath != "" {
		if err := export.WriteCSVFile(csvPath, res.Records); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported CSV to %s\n", csvPath)
	}

	if save {
		store, err := history.NewStore(cfg.History.Dir)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.SaveRun(cmd.Context(), history.Run{
			Query:       res.Query,
			Terms:       res.Terms,
			DocType:     docType,
			YearFrom:    yearFrom,
			YearTo:      yearTo,
			DupsRemoved: res.DupsRemoved,
			Warnings:    res.Warnings,
			Records:     res.Records,
		})
		if err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved run %s\n", id)
	}

	return nil
}
