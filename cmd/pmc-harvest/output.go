// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/pmc-harvest/pkg/types"
)

// formatTable writes article records as a human-readable table.
func formatTable(articles []types.Article, w io.Writer) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No articles found.")
		return
	}

	fmt.Fprintf(w, "%-12s  %-60s  %-24s  %-10s  %s\n",
		"PMCID", "Title", "Journal", "Date", "Authors")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, a := range articles {
		fmt.Fprintf(w, "%-12s  %-60s  %-24s  %-10s  %s\n",
			a.PMCID,
			truncate(a.Title, 60),
			truncate(a.Journal, 24),
			a.PubDate,
			formatAuthors(a.Authors))
	}

	fmt.Fprintf(w, "\n%d article(s)\n", len(articles))
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 24)
	default:
		return truncate(authors[0], 18) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
