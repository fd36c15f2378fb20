package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/layouts"
)

func testStore() *layouts.Store {
	store, _ := layouts.LoadDir("/nonexistent")
	store.Add("default", []byte("<html><title>{{ .Site.Title }}</title><body>{{ .Content }}</body></html>"))
	store.Add("post", []byte("---\nlayout: default\n---\n<article><h1>{{ .Page.Title }}</h1>{{ .Content }}</article>"))
	return store
}

func doc(layout, title, body string) *content.Document {
	return &content.Document{
		SourcePath: "/src/" + title + ".md",
		RelPath:    title + ".md",
		Kind:       content.KindPage,
		Slug:       title,
		Meta:       frontmatter.FrontMatter{Layout: layout, Title: title, Extra: map[string]any{}},
		Body:       []byte(body),
	}
}

func TestDocument_BodyInsertedIntoLayoutSlot(t *testing.T) {
	r := New(testStore(), SiteInfo{Title: "My Blog"})

	page, err := r.Document(doc("post", "X", "hello"))
	require.NoError(t, err)
	require.Contains(t, string(page.HTML), "<h1>X</h1>")
	require.Contains(t, string(page.HTML), "<p>hello</p>")
	// Parent layout wraps the child layout's output.
	require.Contains(t, string(page.HTML), "<title>My Blog</title>")
}

func TestDocument_MissingLayout_ReturnsLayoutError(t *testing.T) {
	r := New(testStore(), SiteInfo{})

	_, err := r.Document(doc("nope", "X", "hello"))
	require.Error(t, err)
	var se *sberrors.SiteError
	require.True(t, sberrors.As(err, &se))
	require.Equal(t, sberrors.CategoryLayout, se.Category)
	require.Equal(t, "nope", se.Context["layout"])
}

func TestDocument_LayoutCycle_ReturnsError(t *testing.T) {
	store := testStore()
	store.Add("a", []byte("---\nlayout: b\n---\n{{ .Content }}"))
	store.Add("b", []byte("---\nlayout: a\n---\n{{ .Content }}"))
	r := New(store, SiteInfo{})

	_, err := r.Document(doc("a", "X", "hello"))
	require.Error(t, err)
	var se *sberrors.SiteError
	require.True(t, sberrors.As(err, &se))
	require.Equal(t, sberrors.CategoryLayout, se.Category)
}

func TestDocument_MalformedTemplate_ReturnsTemplateError(t *testing.T) {
	store := testStore()
	store.Add("broken", []byte("{{ .Content"))
	r := New(store, SiteInfo{})

	_, err := r.Document(doc("broken", "X", "hello"))
	require.Error(t, err)
	var se *sberrors.SiteError
	require.True(t, sberrors.As(err, &se))
	require.Equal(t, sberrors.CategoryTemplate, se.Category)
}

func TestDocument_Deterministic(t *testing.T) {
	r := New(testStore(), SiteInfo{Title: "My Blog"})
	d := doc("post", "X", "# heading\n\nsome *markdown* text\n")

	first, err := r.Document(d)
	require.NoError(t, err)
	second, err := r.Document(d)
	require.NoError(t, err)
	require.Equal(t, first.HTML, second.HTML)
}

func TestDocument_GFMTable(t *testing.T) {
	r := New(testStore(), SiteInfo{})

	page, err := r.Document(doc("default", "X", "| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	require.Contains(t, string(page.HTML), "<table>")
}

func TestDocument_RawHTMLPassesThrough(t *testing.T) {
	r := New(testStore(), SiteInfo{})

	page, err := r.Document(doc("default", "X", "<div class=\"note\">raw</div>\n"))
	require.NoError(t, err)
	require.Contains(t, string(page.HTML), "<div class=\"note\">raw</div>")
}
