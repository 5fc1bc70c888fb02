// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pmc-harvest/internal/httputil"
	"github.com/pdiddy/pmc-harvest/internal/search"
	"github.com/pdiddy/pmc-harvest/pkg/types"
)

const flagDateFmt = "2006-01-02"

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search PubMed Central for article identifiers",
	Long: `Search queries the PMC esearch endpoint for articles matching a term,
filtered by publication date. Without --from and --to the window defaults
to the 15 days preceding now. The identifiers print one per line and can
be fed to the fetch and download subcommands.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("term", "", "search term (required)")
	searchCmd.Flags().Int("max", 0, "maximum number of identifiers to return (default 5)")
	searchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().Bool("json", false, "output identifiers as JSON")
	searchCmd.Flags().String("out", "", "save the search to a results file (YAML)")
	searchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	searchCmd.MarkFlagRequired("term")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, cfg, err := searchParams(cmd)
	if err != nil {
		return err
	}

	client := httputil.New(cfg.HTTPConfig)
	ids, err := search.Search(cmd.Context(), client, q, cfg, logger)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ids); err != nil {
			return err
		}
	} else {
		for _, id := range ids {
			fmt.Println(id)
		}
		fmt.Fprintf(os.Stderr, "%d identifier(s)\n", len(ids))
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := search.WriteResultsFile(out, q, cfg, ids, nil); err != nil {
			return fmt.Errorf("saving results file: %w", err)
		}
		logger.Info().Str("file", out).Msg("saved results file")
	}
	return nil
}

// searchParams builds the query and stage config from flags and the config file.
func searchParams(cmd *cobra.Command) (search.Query, types.SearchConfig, error) {
	term, _ := cmd.Flags().GetString("term")
	q := search.Query{Term: term}

	if from, _ := cmd.Flags().GetString("from"); from != "" {
		t, err := time.Parse(flagDateFmt, from)
		if err != nil {
			return q, types.SearchConfig{}, fmt.Errorf("invalid --from date %q: %w", from, err)
		}
		q.From = t
	}
	if to, _ := cmd.Flags().GetString("to"); to != "" {
		t, err := time.Parse(flagDateFmt, to)
		if err != nil {
			return q, types.SearchConfig{}, fmt.Errorf("invalid --to date %q: %w", to, err)
		}
		q.To = t
	}

	maxResults, _ := cmd.Flags().GetInt("max")
	if maxResults == 0 {
		maxResults = viper.GetInt("search.max_results")
	}

	cfg := types.SearchConfig{
		HTTPConfig: httpConfig(cmd),
		MaxResults: maxResults,
		WindowDays: viper.GetInt("search.window_days"),
	}
	return q, cfg, nil
}
