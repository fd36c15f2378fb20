// Package content implements the content store: it enumerates Markdown
// documents under a source root and parses their frontmatter headers.
package content

import (
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// PostsDir is the directory under the source root holding dated posts.
const PostsDir = "_posts"

// postNamePattern matches the Jekyll post filename convention
// YYYY-MM-DD-slug.md.
var postNamePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)$`)

var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// Store enumerates documents under a content root.
type Store struct {
	root string
}

// NewStore creates a content store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// ScanResult carries the documents found by a scan together with the
// per-document failures. A malformed document never aborts the scan.
type ScanResult struct {
	Documents []*Document
	Errors    []error
}

// Failed reports whether any document failed to load.
func (r *ScanResult) Failed() bool { return len(r.Errors) > 0 }

// Scan walks the content root and loads every Markdown document.
// Directories starting with `_` (other than _posts) or `.` are skipped, as
// are non-Markdown files. The returned documents are sorted by RelPath so
// results do not depend on directory enumeration order.
func (s *Store) Scan() (*ScanResult, error) {
	result := &ScanResult{}

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return sberrors.ReadFailed(p, err)
		}
		if d.IsDir() {
			if p == s.root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || (strings.HasPrefix(name, "_") && name != PostsDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if !markdownExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}

		doc, derr := s.load(p)
		if derr != nil {
			slog.Warn("Document failed to load", "path", p, "error", derr)
			result.Errors = append(result.Errors, derr)
			return nil
		}
		result.Documents = append(result.Documents, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result.Documents, func(i, j int) bool {
		return result.Documents[i].RelPath < result.Documents[j].RelPath
	})
	return result, nil
}

func (s *Store) load(p string) (*Document, error) {
	raw, err := os.ReadFile(p) // #nosec G304 - path comes from walking the configured root
	if err != nil {
		return nil, sberrors.ReadFailed(p, err)
	}

	meta, body, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, sberrors.ParseFailed(p, err)
	}

	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return nil, sberrors.ReadFailed(p, err)
	}
	rel = filepath.ToSlash(rel)

	doc := &Document{
		SourcePath: p,
		RelPath:    rel,
		Kind:       KindPage,
		Meta:       meta,
		Body:       body,
	}

	base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	if strings.HasPrefix(rel, PostsDir+"/") {
		doc.Kind = KindPost
		m := postNamePattern.FindStringSubmatch(base)
		if m == nil {
			return nil, sberrors.ParseFailed(p, errPostName)
		}
		doc.Slug = Slugify(m[4])
		if meta.Date.IsZero() {
			t, terr := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
			if terr != nil {
				return nil, sberrors.ParseFailed(p, terr)
			}
			doc.Meta.Date = t
		}
	} else {
		doc.Slug = Slugify(base)
	}

	return doc, nil
}

var errPostName = stderrors.New("post filename must match YYYY-MM-DD-title.md")
