// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download retrieves open-access full-text files for PMC articles
// and normalizes them to {pmcid}.pdf and {pmcid}.nxml on disk.
//
// Unlike search and metadata fetch, every failure here is logged and
// swallowed: a batch download over many identifiers should keep going when
// one article is closed-access or a single transfer breaks, so no step
// propagates an error to the caller.
package download

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pmc-harvest/internal/httputil"
	"github.com/pdiddy/pmc-harvest/pkg/types"
)

// oaBase is the PMC Open Access Web Service endpoint. Declared as a var so
// tests can substitute an httptest server.
var oaBase = "https://www.ncbi.nlm.nih.gov/pmc/utils/oa/oa.fcgi"

const (
	// DefaultSaveDir is the base directory used when none is configured.
	DefaultSaveDir = "downloads"

	// copyChunkSize is the buffer size for streaming downloads to disk.
	copyChunkSize = 8192
)

// OA service response structures. A response carries either an error
// element or one or more record links.
type oaResponse struct {
	Error *oaError `xml:"error"`
	Links []oaLink `xml:"records>record>link"`
}

type oaError struct {
	Code string `xml:"code,attr"`
	Text string `xml:",chardata"`
}

type oaLink struct {
	Format string `xml:"format,attr"`
	Href   string `xml:"href,attr"`
}

// Download fetches the open-access files for one identifier into
// {saveDir}/{pmcid}/. It tries direct PDF and XML links first and falls
// back to the packaged .tar.gz archive, extracting and renaming its
// contents to the canonical names. All outcomes are reported as log events.
func Download(ctx context.Context, client *httputil.Client, pmcid string, cfg types.DownloadConfig, log zerolog.Logger) {
	log = log.With().Str("pmcid", pmcid).Logger()

	saveDir := cfg.SaveDir
	if saveDir == "" {
		saveDir = DefaultSaveDir
	}

	links, ok := lookupLinks(ctx, client, pmcid, log)
	if !ok {
		return
	}

	articleDir := filepath.Join(saveDir, pmcid)
	if err := os.MkdirAll(articleDir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", articleDir).Msg("creating article directory failed")
		return
	}

	downloaded := false

	// Direct PDF and XML links. A failed sibling does not abort the other.
	for _, target := range []struct{ format, ext string }{{"pdf", "pdf"}, {"xml", "nxml"}} {
		href, exists := links[target.format]
		if !exists {
			continue
		}
		name := pmcid + "." + target.ext
		log.Info().Str("format", target.format).Str("file", name).Msg("downloading direct file")
		if err := fetchToFile(ctx, client, href, filepath.Join(articleDir, name)); err != nil {
			log.Error().Err(err).Str("url", href).Msg("direct download failed")
			continue
		}
		log.Info().Str("file", name).Msg("saved")
		downloaded = true
	}

	// Packaged archive fallback.
	if !downloaded {
		if href, exists := links["tgz"]; exists {
			downloaded = fetchPackage(ctx, client, href, articleDir, pmcid, log)
		}
	}

	if !downloaded {
		log.Warn().Msg("no accessible files found; article may not be open access")
	}
}

// Batch downloads each identifier in turn with a pause between consecutive
// articles. Failures never interrupt the batch.
func Batch(ctx context.Context, client *httputil.Client, pmcids []string, cfg types.DownloadConfig, log zerolog.Logger) {
	for i, pmcid := range pmcids {
		if i > 0 && cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				log.Warn().Err(ctx.Err()).Msg("batch download interrupted")
				return
			case <-time.After(cfg.Delay):
			}
		}
		Download(ctx, client, pmcid, cfg, log)
	}
}

// lookupLinks queries the OA service and returns the format to URL map.
// ftp:// hrefs are rewritten to https://, which the service also accepts.
// The second return is false when the lookup failed or the service reported
// an error for the identifier.
func lookupLinks(ctx context.Context, client *httputil.Client, pmcid string, log zerolog.Logger) (map[string]string, bool) {
	u, err := url.Parse(oaBase)
	if err != nil {
		log.Error().Err(err).Msg("invalid OA service URL")
		return nil, false
	}
	params := u.Query()
	params.Set("id", pmcid)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		log.Error().Err(err).Msg("creating OA request failed")
		return nil, false
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("querying OA service failed")
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("OA service returned an error status")
		return nil, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("reading OA response failed")
		return nil, false
	}

	var oa oaResponse
	if err := xml.Unmarshal(body, &oa); err != nil {
		log.Error().Err(err).Msg("failed to parse OA XML response")
		return nil, false
	}

	if oa.Error != nil {
		log.Error().
			Str("code", oa.Error.Code).
			Str("message", strings.TrimSpace(oa.Error.Text)).
			Msg("OA service reported an error")
		return nil, false
	}

	links := make(map[string]string, len(oa.Links))
	for _, l := range oa.Links {
		if l.Href == "" {
			continue
		}
		href := l.Href
		if strings.HasPrefix(href, "ftp://") {
			href = "https://" + strings.TrimPrefix(href, "ftp://")
		}
		links[l.Format] = href
	}
	return links, true
}

// fetchPackage downloads the .tar.gz archive, extracts it into articleDir,
// removes the archive, and renames the first extracted PDF and XML to the
// canonical names. Extraction failures are logged independently of download
// failures. Returns whether any content was obtained.
func fetchPackage(ctx context.Context, client *httputil.Client, href, articleDir, pmcid string, log zerolog.Logger) bool {
	archiveName := path.Base(href)
	archivePath := filepath.Join(articleDir, archiveName)

	log.Info().Str("archive", archiveName).Msg("downloading open-access package")
	if err := fetchToFile(ctx, client, href, archivePath); err != nil {
		log.Error().Err(err).Str("url", href).Msg("package download failed")
		return false
	}

	log.Info().Str("archive", archiveName).Msg("extracting")
	if err := extractTarGz(archivePath, articleDir); err != nil {
		log.Error().Err(err).Str("archive", archiveName).Msg("package extraction failed")
		os.Remove(archivePath)
		return false
	}
	os.Remove(archivePath)

	renameExtracted(articleDir, pmcid, log)
	return true
}

// fetchToFile streams url to destPath in fixed-size chunks, writing through
// a temporary file that is renamed into place on success so a failed
// transfer never leaves a partial target.
func fetchToFile(ctx context.Context, client *httputil.Client, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.CopyBuffer(tmpFile, resp.Body, make([]byte, copyChunkSize))
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
