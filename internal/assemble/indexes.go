package assemble

import (
	"bytes"
	"html/template"
	"time"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

// Built-in templates for derived pages. Authored layouts control document
// pages; these only cover the generated index structures.
const indexTemplate = `<!DOCTYPE html>
<html>
<head><title>{{ .Site.Title }}</title></head>
<body>
<h1>{{ .Site.Title }}</h1>
<ul class="posts">
{{ range .Posts }}  <li>
    <time datetime="{{ .Date.Format "2006-01-02" }}">{{ .Date.Format "Jan 2, 2006" }}</time>
    <a href="{{ .Permalink }}">{{ .Title }}</a>
    {{ with .Excerpt }}<p>{{ . }}</p>{{ end }}
  </li>
{{ end }}</ul>
</body>
</html>
`

const tagTemplate = `<!DOCTYPE html>
<html>
<head><title>{{ .Tag }} - {{ .Site.Title }}</title></head>
<body>
<h1>Posts tagged &#34;{{ .Tag }}&#34;</h1>
<ul class="posts">
{{ range .Posts }}  <li>
    <time datetime="{{ .Date.Format "2006-01-02" }}">{{ .Date.Format "Jan 2, 2006" }}</time>
    <a href="{{ .Permalink }}">{{ .Title }}</a>
  </li>
{{ end }}</ul>
</body>
</html>
`

var (
	indexTpl = template.Must(template.New("index").Parse(indexTemplate))
	tagTpl   = template.Must(template.New("tag").Parse(tagTemplate))
)

// postEntry is the per-post view passed to the built-in index templates.
type postEntry struct {
	Title     string
	Date      time.Time
	Permalink string
	Excerpt   string
}

func toEntries(posts []*render.Page) []postEntry {
	entries := make([]postEntry, 0, len(posts))
	for _, post := range posts {
		entries = append(entries, postEntry{
			Title:     post.Title,
			Date:      post.Date,
			Permalink: post.Permalink,
			Excerpt:   Excerpt(string(post.Body)),
		})
	}
	return entries
}

func (a *Assembler) renderIndex(posts []*render.Page) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		Site  render.SiteInfo
		Posts []postEntry
	}{a.site, toEntries(posts)}
	if err := indexTpl.Execute(&buf, data); err != nil {
		return nil, sberrors.TemplateFailed("index.html", "builtin/index", err)
	}
	return buf.Bytes(), nil
}

func (a *Assembler) renderTagIndex(tag string, posts []*render.Page) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		Site  render.SiteInfo
		Tag   string
		Posts []postEntry
	}{a.site, tag, toEntries(posts)}
	if err := tagTpl.Execute(&buf, data); err != nil {
		return nil, sberrors.TemplateFailed("tags/"+tag, "builtin/tag", err)
	}
	return buf.Bytes(), nil
}
