// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pmc-harvest/pkg/types"
)

// ResultsFile is the on-disk representation of one search run. The user can
// save a search to a file and fetch or download from it later without
// re-querying the archive.
type ResultsFile struct {
	Query    QueryParams     `yaml:"query"`
	IDs      []string        `yaml:"ids"`
	Articles []types.Article `yaml:"articles,omitempty"`
	Summary  ResultsSummary  `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	Term       string `yaml:"term"`
	From       string `yaml:"from,omitempty"`
	To         string `yaml:"to,omitempty"`
	MaxResults int    `yaml:"max_results"`
}

// ResultsSummary stores result statistics and a timestamp.
type ResultsSummary struct {
	Total     int       `yaml:"total"`
	Timestamp time.Time `yaml:"timestamp"`
}

const fileDateFmt = "2006-01-02"

// WriteResultsFile saves query parameters, identifiers, and any fetched
// article records to a YAML file.
func WriteResultsFile(path string, q Query, cfg types.SearchConfig, ids []string, articles []types.Article) error {
	rf := ResultsFile{
		Query: QueryParams{
			Term:       q.Term,
			MaxResults: cfg.MaxResults,
		},
		IDs:      ids,
		Articles: articles,
		Summary: ResultsSummary{
			Total:     len(ids),
			Timestamp: time.Now(),
		},
	}
	if !q.From.IsZero() {
		rf.Query.From = q.From.Format(fileDateFmt)
	}
	if !q.To.IsZero() {
		rf.Query.To = q.To.Format(fileDateFmt)
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling results file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultsFile loads a previously saved results file from disk.
func ReadResultsFile(path string) (*ResultsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}
	var rf ResultsFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing results file: %w", err)
	}
	return &rf, nil
}

// ToQuery converts stored QueryParams back into a Query struct.
func (p QueryParams) ToQuery() (Query, error) {
	q := Query{Term: p.Term}
	if p.From != "" {
		t, err := time.Parse(fileDateFmt, p.From)
		if err != nil {
			return q, fmt.Errorf("invalid from date %q: %w", p.From, err)
		}
		q.From = t
	}
	if p.To != "" {
		t, err := time.Parse(fileDateFmt, p.To)
		if err != nil {
			return q, fmt.Errorf("invalid to date %q: %w", p.To, err)
		}
		q.To = t
	}
	return q, nil
}
