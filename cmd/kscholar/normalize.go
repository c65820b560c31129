// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Expand a query into canonical search terms",
	Long: `Normalize shows what the search stage would query for: the canonical terms
a free-form query expands to through the term table, stopword removal, and
the optional AI suggestion step.`,
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().String("query", "", "free-text query (required)")
	normalizeCmd.Flags().Bool("use-ai", false, "expand the query with AI-suggested terms")
	normalizeCmd.Flags().Bool("json", false, "output terms as JSON")

	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		return fmt.Errorf("--query is required")
	}
	useAI, _ := cmd.Flags().GetBool("use-ai")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg := loadConfig()
	normalizer, err := newNormalizer(cfg.Normalizer, cfg.Search.HTTPConfig)
	if err != nil {
		return err
	}

	terms, warnings := normalizer.Normalize(cmd.Context(), query, useAI)
	for _, warning := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(terms)
	}

	if len(terms) == 0 {
		fmt.Println("No searchable terms.")
		return nil
	}
	fmt.Printf("%-24s  %-10s  %-6s  %s\n", "Term", "Category", "Weight", "Synonyms")
	fmt.Println(strings.Repeat("-", 70))
	for _, t := range terms {
		fmt.Printf("%-24s  %-10s  %-6.2f  %s\n",
			t.Text, t.Category, t.Weight, strings.Join(t.Synonyms, ", "))
	}
	if useAI {
		stats := normalizer.Stats()
		fmt.Printf("\nAI cache: %d hits, %d misses, %d entries\n", stats.Hits, stats.Misses, stats.Size)
	}
	return nil
}
