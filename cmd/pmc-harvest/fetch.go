// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pmc-harvest/internal/httputil"
	"github.com/pdiddy/pmc-harvest/internal/metadata"
	"github.com/pdiddy/pmc-harvest/internal/search"
	"github.com/pdiddy/pmc-harvest/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [identifiers...]",
	Short: "Fetch article metadata for a set of identifiers",
	Long: `Fetch issues one batched efetch request for the given PMC identifiers
and parses each returned article into a metadata record: title, journal,
publication date, authors, abstract, keywords, and references. Identifiers
come from the arguments or from a saved results file (--in).`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("in", "", "read identifiers from a results file (YAML)")
	fetchCmd.Flags().Bool("json", false, "output records as JSON")
	fetchCmd.Flags().Bool("yaml", false, "output records as YAML")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ids, err := gatherIDs(cmd, args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("provide one or more PMC identifiers or a results file via --in")
	}

	cfg := types.FetchConfig{HTTPConfig: httpConfig(cmd)}
	client := httputil.New(cfg.HTTPConfig)

	articles, err := metadata.Fetch(cmd.Context(), client, ids, cfg, logger)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	asYAML, _ := cmd.Flags().GetBool("yaml")
	switch {
	case asJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(articles)
	case asYAML:
		data, err := yaml.Marshal(articles)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		formatTable(articles, os.Stdout)
		return nil
	}
}

// gatherIDs merges identifiers from the arguments and an optional results file.
func gatherIDs(cmd *cobra.Command, args []string) ([]string, error) {
	ids := append([]string(nil), args...)
	if in, _ := cmd.Flags().GetString("in"); in != "" {
		rf, err := search.ReadResultsFile(in)
		if err != nil {
			return nil, err
		}
		ids = append(ids, rf.IDs...)
	}
	return ids, nil
}
