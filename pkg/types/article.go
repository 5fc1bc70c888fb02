// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pmc-harvest stages.
package types

// Placeholder values substituted for metadata fields absent from a fetched
// article document. They are stable strings callers can match on.
const (
	NoTitle        = "No Title"
	NoAbstract     = "No Abstract"
	UnknownID      = "Unknown"
	UnknownType    = "Unknown"
	UnknownJournal = "Unknown Journal"
	UnknownDate    = "Unknown Date"
)

// Article holds the metadata parsed from one PMC article document.
// It is constructed once per parsed article and never mutated afterwards;
// nothing is persisted between invocations.
type Article struct {
	// PMCID is the canonical archive identifier ("PMC" followed by digits).
	PMCID string `json:"pmcid" yaml:"pmcid"`

	// Title is the article title with inline markup flattened to text.
	Title string `json:"title" yaml:"title"`

	// Journal is the journal name.
	Journal string `json:"journal" yaml:"journal"`

	// PubDate is the publication date as "YYYY-MM-DD". Missing month or
	// day default to "01"; a missing year leaves the leading segment empty.
	PubDate string `json:"pub_date" yaml:"pub_date"`

	// Authors lists author names in document order, each "Surname, Given"
	// or surname alone when no given name is recorded.
	Authors []string `json:"authors" yaml:"authors"`

	// PubType is the article-type tag from the source document.
	PubType string `json:"pub_type" yaml:"pub_type"`

	// Abstract is the flattened abstract text.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Keywords lists keyword strings in document order.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// References lists the citation text of each resolvable reference entry.
	References []string `json:"references" yaml:"references"`
}
