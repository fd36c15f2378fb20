// Package layouts loads the HTML layout templates a site's documents are
// wrapped in. A layout may name a parent layout in its own frontmatter
// header; Resolve returns the chain innermost-first.
package layouts

import (
	stderrors "errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// ErrNotFound is returned by Resolve when a referenced layout does not exist.
var ErrNotFound = stderrors.New("layout not found")

// ErrCycle is returned by Resolve when the parent chain loops.
var ErrCycle = stderrors.New("layout chain contains a cycle")

// Layout is a named template plus its optional parent reference.
type Layout struct {
	Name   string
	Parent string
	tpl    *template.Template
	// parseErr is recorded instead of failing the whole store so documents
	// using other layouts still build.
	parseErr error
}

// Execute renders the layout template with data.
func (l *Layout) Execute(w io.Writer, data any) error {
	if l.parseErr != nil {
		return l.parseErr
	}
	return l.tpl.Execute(w, data)
}

// Funcs is the function map available inside layout templates.
var Funcs = template.FuncMap{
	"dateFormat": func(layout string, t time.Time) string { return t.Format(layout) },
	"lower":      strings.ToLower,
	"safeHTML":   func(s string) template.HTML { return template.HTML(s) }, // #nosec G203 - opt-in for trusted config values
}

// Store holds all layouts of a site keyed by name.
type Store struct {
	layouts map[string]*Layout
}

// LoadDir reads every .html file under dir as a layout. The layout name is
// the filename without extension. A layout whose template fails to parse is
// still registered; the parse error surfaces when a document resolves it.
func LoadDir(dir string) (*Store, error) {
	store := &Store{layouts: map[string]*Layout{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("read layouts dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".html")
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name())) // #nosec G304 - path comes from the configured layouts dir
		if err != nil {
			return nil, fmt.Errorf("read layout %s: %w", name, err)
		}
		store.layouts[name] = parseLayout(name, raw)
	}

	return store, nil
}

// Add registers a layout from raw file content. Used by tests and by the
// init scaffolding defaults.
func (s *Store) Add(name string, raw []byte) {
	s.layouts[name] = parseLayout(name, raw)
}

// Names returns the registered layout names.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.layouts))
	for name := range s.layouts {
		names = append(names, name)
	}
	return names
}

// Resolve returns the layout chain for name, innermost-first: the named
// layout, then its parent, and so on up the chain.
func (s *Store) Resolve(name string) ([]*Layout, error) {
	var chain []*Layout
	seen := map[string]bool{}

	for current := name; current != ""; {
		if seen[current] {
			return nil, fmt.Errorf("%w: %s", ErrCycle, current)
		}
		seen[current] = true

		layout, ok := s.layouts[current]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, current)
		}
		chain = append(chain, layout)
		current = layout.Parent
	}
	return chain, nil
}

func parseLayout(name string, raw []byte) *Layout {
	layout := &Layout{Name: name}

	parent, body, err := splitHeader(raw)
	if err != nil {
		layout.parseErr = err
		return layout
	}
	layout.Parent = parent

	tpl, err := template.New(name).Funcs(Funcs).Option("missingkey=error").Parse(string(body))
	if err != nil {
		layout.parseErr = err
		return layout
	}
	layout.tpl = tpl
	return layout
}

// splitHeader extracts the parent layout reference from a layout file's own
// frontmatter header, if present.
func splitHeader(raw []byte) (parent string, body []byte, err error) {
	header, body, had, err := frontmatter.Split(raw)
	if err != nil {
		return "", nil, err
	}
	if !had {
		return "", body, nil
	}
	fm, err := frontmatter.Decode(header)
	if err != nil {
		return "", nil, err
	}
	return fm.Layout, body, nil
}
