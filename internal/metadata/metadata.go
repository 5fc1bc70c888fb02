// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata fetches PMC article documents in batches and parses the
// structured markup into Article records. esummary does not expose
// abstracts, keywords, or references, so the full efetch XML is used.
package metadata

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pmc-harvest/internal/httputil"
	"github.com/pdiddy/pmc-harvest/pkg/types"
)

// eutilsBase is the NCBI E-utilities endpoint. Declared as a var so tests
// can substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

// maxResponseBytes caps the efetch response read. Full-text batches for a
// few dozen articles stay well under this.
const maxResponseBytes = 100 << 20

// Fetch retrieves metadata for the given identifiers in one batched efetch
// request and parses each article present in the response. An empty
// identifier list short-circuits to an empty result without a request.
// Transport errors and non-2xx statuses propagate; a malformed response
// document is logged and yields an empty result.
func Fetch(ctx context.Context, client *httputil.Client, ids []string, cfg types.FetchConfig, log zerolog.Logger) ([]types.Article, error) {
	if len(ids) == 0 {
		return []types.Article{}, nil
	}

	u, err := url.Parse(eutilsBase + "efetch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid efetch URL: %w", err)
	}
	params := u.Query()
	params.Set("db", "pmc")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")
	if cfg.APIKey != "" {
		params.Set("api_key", cfg.APIKey)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating efetch request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("efetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("efetch returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading efetch response: %w", err)
	}

	return Parse(body, log), nil
}

// Parse extracts Article records from an efetch article-set document.
// Articles without an article-meta container are skipped. A document that
// does not parse at all is logged and yields an empty result.
func Parse(doc []byte, log zerolog.Logger) []types.Article {
	var set articleSet
	if err := xml.Unmarshal(doc, &set); err != nil {
		log.Error().Err(err).Msg("failed to parse efetch XML response")
		return []types.Article{}
	}

	articles := make([]types.Article, 0, len(set.Articles))
	for _, a := range set.Articles {
		if a.Front.ArticleMeta == nil {
			continue
		}
		articles = append(articles, a.record())
	}
	return articles
}
