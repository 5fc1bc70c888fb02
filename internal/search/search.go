// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the PMC esearch endpoint and returns article
// identifiers for a term within a publication-date window.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pmc-harvest/internal/httputil"
	"github.com/pdiddy/pmc-harvest/pkg/types"
)

// eutilsBase is the NCBI E-utilities endpoint. Declared as a var so tests
// can substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

// dateFmt is the E-utilities publication-date parameter format.
const dateFmt = "2006/01/02"

// defaultWindowDays is the size of the date window applied when the query
// carries no explicit range.
const defaultWindowDays = 15

// Query holds the search parameters. A zero From and To means the default
// window: the 15 days preceding now.
type Query struct {
	Term string
	From time.Time
	To   time.Time
}

// esearch JSON response structures. Only idlist is consumed.
type esearchResponse struct {
	Result *esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	IDList []string `json:"idlist"`
}

// Search queries esearch.fcgi for PMC identifiers matching the term,
// filtered by publication date. It returns the identifiers in response
// order, or an empty slice when the response lacks the expected fields.
// Transport errors and non-2xx statuses propagate; a malformed response
// body is logged and yields an empty slice.
func Search(ctx context.Context, client *httputil.Client, q Query, cfg types.SearchConfig, log zerolog.Logger) ([]string, error) {
	mindate, maxdate := window(q.From, q.To, cfg.WindowDays, time.Now())
	log.Info().
		Str("term", q.Term).
		Str("mindate", mindate).
		Str("maxdate", maxdate).
		Msg("searching publication window")

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	u, err := url.Parse(eutilsBase + "esearch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid esearch URL: %w", err)
	}
	params := u.Query()
	params.Set("db", "pmc")
	params.Set("term", q.Term)
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(maxResults))
	params.Set("datetype", "pdat")
	if mindate != "" {
		params.Set("mindate", mindate)
	}
	if maxdate != "" {
		params.Set("maxdate", maxdate)
	}
	if cfg.APIKey != "" {
		params.Set("api_key", cfg.APIKey)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating esearch request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("esearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("esearch returned HTTP %d", resp.StatusCode)
	}

	var body esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Error().Err(err).Msg("failed to parse esearch response")
		return []string{}, nil
	}

	if body.Result == nil || body.Result.IDList == nil {
		return []string{}, nil
	}
	return body.Result.IDList, nil
}

// window resolves the effective date range. When both ends are zero it
// defaults to the days preceding now; otherwise only the provided ends are
// formatted and the other parameter is omitted.
func window(from, to time.Time, days int, now time.Time) (mindate, maxdate string) {
	if days <= 0 {
		days = defaultWindowDays
	}
	if from.IsZero() && to.IsZero() {
		to = now
		from = now.AddDate(0, 0, -days)
	}
	if !from.IsZero() {
		mindate = from.Format(dateFmt)
	}
	if !to.IsZero() {
		maxdate = to.Format(dateFmt)
	}
	return mindate, maxdate
}
