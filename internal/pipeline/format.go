// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

// FormatTable writes the merged records as a human-readable table.
func FormatTable(res Result, w io.Writer) {
	if len(res.Records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-16s  %-4s  %-9s  %s\n",
		"Rank", "Title", "Authors", "Year", "Source", "Term")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, r := range res.Records {
		year := ""
		if r.PubYear > 0 {
			year = fmt.Sprintf("%d", r.PubYear)
		}
		fmt.Fprintf(w, "%-4d  %-50s  %-16s  %-4s  %-9s  %s\n",
			i+1, truncate(r.Title, 50), formatAuthors(r.Authors), year, r.Source, r.QueryTerm)
	}

	fmt.Fprintf(w, "\n%d results", len(res.Records))
	if res.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", res.DupsRemoved)
	}
	names := make([]string, 0, len(res.PerSource))
	for name := range res.PerSource {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, ", %s: %d", name, res.PerSource[name])
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the full result as indented JSON.
func FormatJSON(res Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 16)
	default:
		return truncate(authors[0], 10) + " 외"
	}
}

// truncate shortens s to max runes. Korean titles are multi-byte, so this
// counts runes, not bytes.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
