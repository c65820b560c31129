// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/learninglab/kscholar/internal/export"
	"github.com/learninglab/kscholar/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List and inspect saved search runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one saved run and its records",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum runs to list (0 for all)")
	historyShowCmd.Flags().Bool("json", false, "output the run as JSON")
	historyShowCmd.Flags().String("csv", "", "export the run's records to a CSV file")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.NewStore(loadConfig().History.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No saved runs.")
		return nil
	}

	fmt.Printf("%-36s  %-19s  %-30s  %-7s  %s\n", "ID", "When", "Query", "Results", "Warnings")
	fmt.Println(strings.Repeat("-", 105))
	for _, run := range runs {
		fmt.Printf("%-36s  %-19s  %-30s  %-7d  %d\n",
			run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			truncateQuery(run.Query, 30), run.Total, len(run.Warnings))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	csvPath, _ := cmd.Flags().GetString("csv")

	store, err := history.NewStore(loadConfig().History.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if csvPath != "" {
		if err := export.WriteCSVFile(csvPath, run.Records); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported CSV to %s\n", csvPath)
		return nil
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("Query:    %s\n", run.Query)
	fmt.Printf("When:     %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if run.YearFrom > 0 || run.YearTo > 0 {
		fmt.Printf("Years:    %d-%d\n", run.YearFrom, run.YearTo)
	}
	fmt.Printf("Results:  %d (%d duplicates removed)\n", run.Total, run.DupsRemoved)
	for _, warning := range run.Warnings {
		fmt.Printf("Warning:  %s\n", warning)
	}
	fmt.Println()
	for i, r := range run.Records {
		year := ""
		if r.PubYear > 0 {
			year = fmt.Sprintf(" (%d)", r.PubYear)
		}
		fmt.Printf("%3d. %s%s  [%s]\n", i+1, r.Title, year, r.Source)
	}
	return nil
}

func truncateQuery(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
