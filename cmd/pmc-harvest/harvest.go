// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pmc-harvest/internal/download"
	"github.com/pdiddy/pmc-harvest/internal/httputil"
	"github.com/pdiddy/pmc-harvest/internal/metadata"
	"github.com/pdiddy/pmc-harvest/internal/search"
	"github.com/pdiddy/pmc-harvest/pkg/types"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Search, fetch metadata, and download in one run",
	Long: `Harvest composes the three operations: it searches for identifiers,
fetches metadata for all of them in one batch, optionally saves a results
file, and downloads the open-access full text per article. The stages
share nothing but the identifier strings passed between them.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("term", "", "search term (required)")
	harvestCmd.Flags().Int("max", 0, "maximum number of identifiers (default 5)")
	harvestCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	harvestCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	harvestCmd.Flags().String("out", "", "save the run to a results file (YAML)")
	harvestCmd.Flags().String("dir", "", `base directory for downloads (default "downloads")`)
	harvestCmd.Flags().Duration("delay", 0, "delay between consecutive articles (default 1s)")
	harvestCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	harvestCmd.MarkFlagRequired("term")

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	q, searchCfg, err := searchParams(cmd)
	if err != nil {
		return err
	}
	cfg := types.HarvestConfig{
		Search:   searchCfg,
		Fetch:    types.FetchConfig{HTTPConfig: searchCfg.HTTPConfig},
		Download: downloadConfig(cmd),
	}

	client := httputil.New(cfg.Search.HTTPConfig)

	ids, err := search.Search(cmd.Context(), client, q, cfg.Search, logger)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		logger.Info().Msg("no articles in the search window")
		return nil
	}

	articles, err := metadata.Fetch(cmd.Context(), client, ids, cfg.Fetch, logger)
	if err != nil {
		return err
	}
	formatTable(articles, cmd.OutOrStdout())

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := search.WriteResultsFile(out, q, cfg.Search, ids, articles); err != nil {
			return fmt.Errorf("saving results file: %w", err)
		}
		logger.Info().Str("file", out).Msg("saved results file")
	}

	download.Batch(cmd.Context(), client, canonicalIDs(ids), cfg.Download, logger)
	return nil
}
