// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"html"
	"regexp"
	"strings"

	"github.com/pdiddy/pmc-harvest/pkg/types"
)

// xmlTagRe matches markup tags for stripping from innerxml content, which
// flattens an element to its concatenated text fragments.
var xmlTagRe = regexp.MustCompile(`<[^>]+>`)

// XML structures for the article vocabulary used by PMC efetch responses.
// The root article-set element name is not constrained so both
// pmc-articleset and bare article documents decode.

type articleSet struct {
	Articles []jatsArticle `xml:"article"`
}

type jatsArticle struct {
	ArticleType string    `xml:"article-type,attr"`
	Front       jatsFront `xml:"front"`
	Back        *jatsBack `xml:"back"`
}

type jatsFront struct {
	JournalMeta *jatsJournalMeta `xml:"journal-meta"`
	ArticleMeta *jatsArticleMeta `xml:"article-meta"`
}

type jatsJournalMeta struct {
	// journal-title lives under journal-title-group in current documents
	// and directly under journal-meta in older ones.
	GroupTitles  []jatsText `xml:"journal-title-group>journal-title"`
	DirectTitles []jatsText `xml:"journal-title"`
}

type jatsArticleMeta struct {
	ArticleIDs    []jatsArticleID    `xml:"article-id"`
	TitleGroup    *jatsTitleGroup    `xml:"title-group"`
	Abstracts     []jatsInner        `xml:"abstract"`
	KwdGroups     []jatsKwdGroup     `xml:"kwd-group"`
	PubDates      []jatsPubDate      `xml:"pub-date"`
	ContribGroups []jatsContribGroup `xml:"contrib-group"`
}

type jatsArticleID struct {
	Type  string `xml:"pub-id-type,attr"`
	Value string `xml:",chardata"`
}

type jatsTitleGroup struct {
	ArticleTitle *jatsInner `xml:"article-title"`
}

type jatsKwdGroup struct {
	Kwds []jatsInner `xml:"kwd"`
}

type jatsPubDate struct {
	Year  string `xml:"year"`
	Month string `xml:"month"`
	Day   string `xml:"day"`
}

type jatsContribGroup struct {
	Contribs []jatsContrib `xml:"contrib"`
}

type jatsContrib struct {
	Type string    `xml:"contrib-type,attr"`
	Name *jatsName `xml:"name"`
}

type jatsName struct {
	Surname    string `xml:"surname"`
	GivenNames string `xml:"given-names"`
}

type jatsBack struct {
	RefLists []jatsRefList `xml:"ref-list"`
}

// jatsRefList handles one level of ref-list nesting, which some documents
// use to group references into sections.
type jatsRefList struct {
	Refs     []jatsRef     `xml:"ref"`
	Children []jatsRefList `xml:"ref-list"`
}

type jatsRef struct {
	MixedCitations   []jatsInner `xml:"mixed-citation"`
	Citations        []jatsInner `xml:"citation"`
	ElementCitations []jatsInner `xml:"element-citation"`
}

// jatsInner captures raw inner markup for elements whose text is spread
// across inline children (italic, sup, xref and so on).
type jatsInner struct {
	Inner string `xml:",innerxml"`
}

// text flattens the inner markup to its concatenated text fragments.
func (e jatsInner) text() string {
	return html.UnescapeString(xmlTagRe.ReplaceAllString(e.Inner, ""))
}

// jatsText captures the character data of an element, ignoring children.
type jatsText struct {
	Value string `xml:",chardata"`
}

// record builds the Article for one parsed article element. The caller has
// already verified that article-meta is present.
func (a jatsArticle) record() types.Article {
	meta := a.Front.ArticleMeta

	rec := types.Article{
		PMCID:      canonicalPMCID(meta.ArticleIDs),
		Title:      types.NoTitle,
		Journal:    journalTitle(a.Front.JournalMeta),
		PubDate:    pubDate(meta.PubDates),
		PubType:    types.UnknownType,
		Abstract:   types.NoAbstract,
		Keywords:   keywords(meta.KwdGroups),
		Authors:    authors(meta.ContribGroups),
		References: references(a.Back),
	}

	if a.ArticleType != "" {
		rec.PubType = a.ArticleType
	}
	if meta.TitleGroup != nil && meta.TitleGroup.ArticleTitle != nil {
		rec.Title = meta.TitleGroup.ArticleTitle.text()
	}
	if len(meta.Abstracts) > 0 {
		rec.Abstract = strings.TrimSpace(meta.Abstracts[0].text())
	}

	return rec
}

// canonicalPMCID finds the archive's own identifier and normalizes it to
// carry exactly one "PMC" prefix. Some documents record "PMC123", others
// bare "123".
func canonicalPMCID(ids []jatsArticleID) string {
	for _, id := range ids {
		if id.Type != "pmcid" {
			continue
		}
		text := strings.TrimSpace(id.Value)
		if strings.HasPrefix(text, "PMC") {
			return text
		}
		return "PMC" + text
	}
	return types.UnknownID
}

// journalTitle returns the first journal-title's direct text.
func journalTitle(jm *jatsJournalMeta) string {
	if jm == nil {
		return types.UnknownJournal
	}
	for _, t := range append(jm.GroupTitles, jm.DirectTitles...) {
		if s := strings.TrimSpace(t.Value); s != "" {
			return s
		}
	}
	return types.UnknownJournal
}

// pubDate formats the first pub-date as "YYYY-MM-DD". Missing month and day
// default to "01"; a missing year leaves the leading segment empty.
func pubDate(dates []jatsPubDate) string {
	if len(dates) == 0 {
		return types.UnknownDate
	}
	d := dates[0]
	year := strings.TrimSpace(d.Year)
	month := strings.TrimSpace(d.Month)
	if month == "" {
		month = "01"
	}
	day := strings.TrimSpace(d.Day)
	if day == "" {
		day = "01"
	}
	return year + "-" + month + "-" + day
}

// keywords collects every kwd text in document order, skipping empty ones.
func keywords(groups []jatsKwdGroup) []string {
	var kws []string
	for _, g := range groups {
		for _, kw := range g.Kwds {
			if s := strings.TrimSpace(kw.text()); s != "" {
				kws = append(kws, s)
			}
		}
	}
	return kws
}

// authors builds "Surname, Given" names for author contributors. Authors
// recorded with only a surname keep the surname alone; contributors without
// a surname (collaboration entries and the like) are skipped.
func authors(groups []jatsContribGroup) []string {
	var names []string
	for _, g := range groups {
		for _, c := range g.Contribs {
			if c.Type != "author" || c.Name == nil {
				continue
			}
			surname := strings.TrimSpace(c.Name.Surname)
			if surname == "" {
				continue
			}
			given := strings.TrimSpace(c.Name.GivenNames)
			if given != "" {
				names = append(names, surname+", "+given)
			} else {
				names = append(names, surname)
			}
		}
	}
	return names
}

// references returns the citation text of each reference entry. For every
// ref the candidates mixed-citation, citation, and element-citation are
// tried in that fixed priority order and the first with non-empty text
// wins; the check is explicit on the flattened text, not on element
// presence, so an empty earlier candidate does not mask a later one.
// Entries with no usable candidate are skipped.
func references(back *jatsBack) []string {
	if back == nil {
		return nil
	}
	var refs []string
	var walk func(lists []jatsRefList)
	walk = func(lists []jatsRefList) {
		for _, list := range lists {
			for _, ref := range list.Refs {
				if text := citationText(ref); text != "" {
					refs = append(refs, text)
				}
			}
			walk(list.Children)
		}
	}
	walk(back.RefLists)
	return refs
}

func citationText(ref jatsRef) string {
	for _, candidates := range [][]jatsInner{ref.MixedCitations, ref.Citations, ref.ElementCitations} {
		for _, c := range candidates {
			if text := strings.TrimSpace(c.text()); text != "" {
				return text
			}
		}
	}
	return ""
}
