// Package render turns Markdown documents into final HTML by converting the
// body with Goldmark and wrapping it in the document's resolved layout chain.
package render

import (
	"bytes"
	stderrors "errors"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/layouts"
)

// SiteInfo is the site-wide metadata exposed to layout templates.
type SiteInfo struct {
	Title       string
	Description string
	BaseURL     string
}

// Page is a rendered document.
type Page struct {
	Kind       content.Kind
	Title      string
	Date       time.Time
	Permalink  string
	OutputPath string
	Tags       []string
	Draft      bool
	// Params holds unknown frontmatter keys.
	Params map[string]any
	// Body is the rendered Markdown body before layout wrapping.
	Body template.HTML
	// HTML is the final output after layout wrapping.
	HTML []byte
}

// Context is the data every layout template executes against.
type Context struct {
	Site    SiteInfo
	Page    *Page
	Content template.HTML
}

// Renderer renders documents against a layout store.
type Renderer struct {
	md      goldmark.Markdown
	layouts *layouts.Store
	site    SiteInfo
}

// New creates a renderer. Raw HTML in Markdown passes through unescaped,
// matching Jekyll's kramdown behavior for authored content.
func New(store *layouts.Store, site SiteInfo) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	return &Renderer{md: md, layouts: store, site: site}
}

// Document renders a single document: Markdown conversion, then layout
// wrapping innermost-first. Rendering the same document twice yields
// byte-identical output.
func (r *Renderer) Document(doc *content.Document) (*Page, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(doc.Body, &buf); err != nil {
		return nil, sberrors.ParseFailed(doc.SourcePath, err)
	}

	page := &Page{
		Kind:       doc.Kind,
		Title:      doc.Title(),
		Date:       doc.Date(),
		Permalink:  doc.Permalink(),
		OutputPath: doc.OutputPath(),
		Tags:       doc.Meta.Tags,
		Draft:      doc.Meta.Draft,
		Params:     doc.Meta.Extra,
		Body:       template.HTML(buf.String()), // #nosec G203 - goldmark output of authored content
	}

	chain, err := r.layouts.Resolve(doc.Layout())
	if err != nil {
		switch {
		case stderrors.Is(err, layouts.ErrNotFound):
			return nil, sberrors.MissingLayout(doc.SourcePath, doc.Layout())
		case stderrors.Is(err, layouts.ErrCycle):
			return nil, sberrors.LayoutCycle(doc.Layout())
		default:
			return nil, sberrors.TemplateFailed(doc.SourcePath, doc.Layout(), err)
		}
	}

	current := page.Body
	for _, layout := range chain {
		var out bytes.Buffer
		data := Context{Site: r.site, Page: page, Content: current}
		if err := layout.Execute(&out, data); err != nil {
			return nil, sberrors.TemplateFailed(doc.SourcePath, layout.Name, err)
		}
		current = template.HTML(out.String()) // #nosec G203 - template output feeds the parent layout
	}

	page.HTML = []byte(current)
	return page, nil
}
