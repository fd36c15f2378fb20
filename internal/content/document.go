package content

import (
	"fmt"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// Kind distinguishes dated posts from standalone pages.
type Kind string

const (
	KindPost Kind = "post"
	KindPage Kind = "page"
)

// Document is a single authored content unit: typed metadata plus the raw
// Markdown body. Documents are immutable once loaded for a build.
type Document struct {
	// SourcePath is the absolute path of the source file.
	SourcePath string
	// RelPath is the path relative to the content root, slash-separated.
	RelPath string
	Kind    Kind
	Slug    string
	Meta    frontmatter.FrontMatter
	Body    []byte
}

// Title returns the frontmatter title, falling back to a humanized slug.
func (d *Document) Title() string {
	if d.Meta.Title != "" {
		return d.Meta.Title
	}
	return humanizeSlug(d.Slug)
}

// Date returns the frontmatter date; for posts without one, the date encoded
// in the filename.
func (d *Document) Date() time.Time {
	return d.Meta.Date
}

// Layout returns the referenced layout name, or "default" when unset.
func (d *Document) Layout() string {
	if d.Meta.Layout != "" {
		return d.Meta.Layout
	}
	return "default"
}

// Permalink is the site-absolute URL path of the rendered document.
// Posts follow the Jekyll date scheme /YYYY/MM/DD/slug/, pages mirror their
// source path.
func (d *Document) Permalink() string {
	if d.Kind == KindPost {
		t := d.Date()
		return fmt.Sprintf("/%04d/%02d/%02d/%s/", t.Year(), t.Month(), t.Day(), d.Slug)
	}

	rel := strings.TrimSuffix(d.RelPath, path.Ext(d.RelPath))
	if rel == "index" || strings.HasSuffix(rel, "/index") {
		rel = strings.TrimSuffix(rel, "index")
		rel = strings.TrimSuffix(rel, "/")
	}
	if rel == "" {
		return "/"
	}
	return "/" + rel + "/"
}

// OutputPath is the path of the rendered file inside the output tree.
func (d *Document) OutputPath() string {
	link := strings.TrimPrefix(d.Permalink(), "/")
	return path.Join(link, "index.html")
}

func humanizeSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
