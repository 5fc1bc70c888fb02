// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pmc-harvest/internal/download"
	"github.com/pdiddy/pmc-harvest/internal/httputil"
	"github.com/pdiddy/pmc-harvest/pkg/types"
)

const defaultDownloadDelay = 1 * time.Second

var downloadCmd = &cobra.Command{
	Use:   "download [identifiers...]",
	Short: "Download open-access full text for articles",
	Long: `Download queries the PMC Open Access Web Service per identifier and
saves the available full-text files under {dir}/{pmcid}/ as {pmcid}.pdf
and {pmcid}.nxml. Direct links are preferred; otherwise the packaged
archive is fetched, extracted, and its files renamed. Articles that are
not open access are reported and skipped; failures never abort the batch.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("in", "", "read identifiers from a results file (YAML)")
	downloadCmd.Flags().String("dir", "", `base directory for downloads (default "downloads")`)
	downloadCmd.Flags().Duration("delay", 0, "delay between consecutive articles (default 1s)")
	downloadCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	ids, err := gatherIDs(cmd, args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("provide one or more PMC identifiers or a results file via --in")
	}

	cfg := downloadConfig(cmd)
	client := httputil.New(cfg.HTTPConfig)
	download.Batch(cmd.Context(), client, canonicalIDs(ids), cfg, logger)
	return nil
}

func downloadConfig(cmd *cobra.Command) types.DownloadConfig {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = viper.GetString("download.save_dir")
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = viper.GetDuration("download.delay")
	}
	if delay == 0 {
		delay = defaultDownloadDelay
	}

	return types.DownloadConfig{
		HTTPConfig: httpConfig(cmd),
		SaveDir:    dir,
		Delay:      delay,
	}
}

// canonicalIDs normalizes bare numeric identifiers to the prefixed form the
// OA service and the on-disk layout use.
func canonicalIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if !strings.HasPrefix(id, "PMC") {
			id = "PMC" + id
		}
		out[i] = id
	}
	return out
}
