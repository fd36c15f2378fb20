package assemble

import (
	"bytes"
	"encoding/xml"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

// Atom feed structures. The feed's updated stamp is the newest post date,
// not wall-clock time, so identical inputs produce identical bytes.

type atomFeed struct {
	XMLName  xml.Name    `xml:"feed"`
	XMLNS    string      `xml:"xmlns,attr"`
	Title    string      `xml:"title"`
	Link     atomLink    `xml:"link"`
	Updated  string      `xml:"updated"`
	ID       string      `xml:"id"`
	Subtitle string      `xml:"subtitle,omitempty"`
	Entries  []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type atomEntry struct {
	Title   string   `xml:"title"`
	Link    atomLink `xml:"link"`
	ID      string   `xml:"id"`
	Updated string   `xml:"updated"`
	Summary string   `xml:"summary,omitempty"`
}

func (a *Assembler) renderFeed(posts []*render.Page) ([]byte, error) {
	limit := a.feedLimit
	if limit > len(posts) {
		limit = len(posts)
	}

	feed := atomFeed{
		XMLNS:    "http://www.w3.org/2005/Atom",
		Title:    a.site.Title,
		Subtitle: a.site.Description,
		Link:     atomLink{Href: a.absURL("/feed.xml"), Rel: "self"},
		ID:       a.absURL("/"),
	}
	if len(posts) > 0 {
		feed.Updated = posts[0].Date.UTC().Format(time.RFC3339)
	} else {
		feed.Updated = time.Unix(0, 0).UTC().Format(time.RFC3339)
	}

	for _, post := range posts[:limit] {
		feed.Entries = append(feed.Entries, atomEntry{
			Title:   post.Title,
			Link:    atomLink{Href: a.absURL(post.Permalink)},
			ID:      a.absURL(post.Permalink),
			Updated: post.Date.UTC().Format(time.RFC3339),
			Summary: Excerpt(string(post.Body)),
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(feed); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (a *Assembler) renderSitemap(pages []*render.Page) []byte {
	type urlEntry struct {
		Loc     string `xml:"loc"`
		LastMod string `xml:"lastmod,omitempty"`
	}
	type urlSet struct {
		XMLName xml.Name   `xml:"urlset"`
		XMLNS   string     `xml:"xmlns,attr"`
		URLs    []urlEntry `xml:"url"`
	}

	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, page := range sortByPermalink(pages) {
		entry := urlEntry{Loc: a.absURL(page.Permalink)}
		if !page.Date.IsZero() {
			entry.LastMod = page.Date.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, entry)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	// Encoding cannot fail for this static structure.
	_ = enc.Encode(set)
	buf.WriteByte('\n')
	return buf.Bytes()
}

func (a *Assembler) absURL(path string) string {
	base := strings.TrimSuffix(a.site.BaseURL, "/")
	return base + path
}

func sortByPermalink(pages []*render.Page) []*render.Page {
	sorted := make([]*render.Page, len(pages))
	copy(sorted, pages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Permalink < sorted[j].Permalink })
	return sorted
}
