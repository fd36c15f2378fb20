// Package assemble turns a set of rendered pages into the final output
// tree: one file per page plus derived structures (chronological index,
// tag pages, Atom feed, sitemap). Assembly is a pure function of its
// inputs; ordering never depends on content store enumeration order.
package assemble

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

// Tree maps output paths (slash-separated, relative) to file content.
type Tree map[string][]byte

// Paths returns the tree's paths in sorted order.
func (t Tree) Paths() []string {
	paths := make([]string, 0, len(t))
	for p := range t {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Assembler builds output trees for one site.
type Assembler struct {
	site render.SiteInfo
	// feedLimit caps the number of entries in feed.xml.
	feedLimit int
}

// New creates an assembler for the given site metadata.
func New(site render.SiteInfo) *Assembler {
	return &Assembler{site: site, feedLimit: 10}
}

// Assemble produces the output tree for the given rendered pages.
func (a *Assembler) Assemble(pages []*render.Page) (Tree, error) {
	tree := Tree{}

	// Stable order regardless of input order: date desc, then title asc.
	posts := sortPosts(pages)

	for _, page := range pages {
		tree[page.OutputPath] = page.HTML
	}

	// An authored index page wins over the generated chronological index.
	if _, ok := tree["index.html"]; !ok {
		index, err := a.renderIndex(posts)
		if err != nil {
			return nil, err
		}
		tree["index.html"] = index
	}

	for tag, tagged := range groupByTag(posts) {
		page, err := a.renderTagIndex(tag, tagged)
		if err != nil {
			return nil, err
		}
		tree[filepath.ToSlash(filepath.Join("tags", tag, "index.html"))] = page
	}

	feed, err := a.renderFeed(posts)
	if err != nil {
		return nil, err
	}
	tree["feed.xml"] = feed

	tree["sitemap.xml"] = a.renderSitemap(pages)

	return tree, nil
}

// AddStatic copies every file under staticDir into the tree verbatim.
// Missing static dirs are not an error.
func (a *Assembler) AddStatic(tree Tree, staticDir string) error {
	info, err := os.Stat(staticDir)
	if err != nil || !info.IsDir() {
		return nil
	}
	return filepath.WalkDir(staticDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return sberrors.ReadFailed(p, err)
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		data, err := os.ReadFile(p) // #nosec G304 - path comes from walking the configured static dir
		if err != nil {
			return sberrors.ReadFailed(p, err)
		}
		rel, err := filepath.Rel(staticDir, p)
		if err != nil {
			return sberrors.ReadFailed(p, err)
		}
		tree[filepath.ToSlash(rel)] = data
		return nil
	})
}

// WriteTo writes the tree under outputDir, creating directories as needed.
func (t Tree) WriteTo(outputDir string) error {
	for _, rel := range t.Paths() {
		target := filepath.Join(outputDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return sberrors.WriteFailed(target, err)
		}
		if err := os.WriteFile(target, t[rel], 0o600); err != nil {
			return sberrors.WriteFailed(target, err)
		}
	}
	return nil
}

// Equal reports whether two trees have identical paths and content.
func (t Tree) Equal(other Tree) bool {
	if len(t) != len(other) {
		return false
	}
	for p, data := range t {
		if !bytes.Equal(data, other[p]) {
			return false
		}
	}
	return true
}

func sortPosts(pages []*render.Page) []*render.Page {
	var posts []*render.Page
	for _, page := range pages {
		if page.Kind == content.KindPost {
			posts = append(posts, page)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].Title < posts[j].Title
	})
	return posts
}

func groupByTag(posts []*render.Page) map[string][]*render.Page {
	byTag := map[string][]*render.Page{}
	for _, post := range posts {
		for _, tag := range post.Tags {
			byTag[tag] = append(byTag[tag], post)
		}
	}
	return byTag
}
