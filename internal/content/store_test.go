package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestScan_FindsPostsAndPages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_posts/2023-03-16-android-architecture.md", "---\nlayout: post\ntitle: Android Architecture\n---\nbody\n")
	writeFile(t, root, "about.md", "---\nlayout: page\n---\nAbout me.\n")
	writeFile(t, root, "notes.txt", "not markdown")
	writeFile(t, root, "_drafts/wip.md", "ignored\n")
	writeFile(t, root, ".git/config.md", "ignored\n")

	result, err := NewStore(root).Scan()
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Documents, 2)

	// Sorted by RelPath: _posts/... before about.md.
	post := result.Documents[0]
	require.Equal(t, KindPost, post.Kind)
	require.Equal(t, "android-architecture", post.Slug)
	require.Equal(t, "Android Architecture", post.Title())
	require.Equal(t, time.Date(2023, 3, 16, 0, 0, 0, 0, time.UTC), post.Date())
	require.Equal(t, "/2023/03/16/android-architecture/", post.Permalink())
	require.Equal(t, "2023/03/16/android-architecture/index.html", post.OutputPath())

	page := result.Documents[1]
	require.Equal(t, KindPage, page.Kind)
	require.Equal(t, "/about/", page.Permalink())
	require.Equal(t, "page", page.Layout())
}

func TestScan_FrontmatterDateOverridesFilename(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_posts/2023-01-01-x.md", "---\ndate: 2023-03-16\n---\nbody\n")

	result, err := NewStore(root).Scan()
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	require.Equal(t, time.Date(2023, 3, 16, 0, 0, 0, 0, time.UTC), result.Documents[0].Date())
}

func TestScan_MalformedHeaderDoesNotAbortOthers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_posts/2023-03-16-good.md", "---\nlayout: post\n---\nok\n")
	writeFile(t, root, "_posts/2023-03-17-bad.md", "---\nlayout: post\nno closing delimiter\n")

	result, err := NewStore(root).Scan()
	require.NoError(t, err)
	require.True(t, result.Failed())
	require.Len(t, result.Documents, 1)
	require.Len(t, result.Errors, 1)

	var se *sberrors.SiteError
	require.True(t, sberrors.As(result.Errors[0], &se))
	require.Equal(t, sberrors.CategoryParse, se.Category)
	require.Contains(t, se.Path(), "2023-03-17-bad.md")
}

func TestScan_BadPostFilename_ReportsParseError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_posts/not-dated.md", "body\n")

	result, err := NewStore(root).Scan()
	require.NoError(t, err)
	require.Empty(t, result.Documents)
	require.Len(t, result.Errors, 1)
}

func TestScan_DefaultLayoutAndTitle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_posts/2023-03-16-hello-world.md", "body only\n")

	result, err := NewStore(root).Scan()
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	doc := result.Documents[0]
	require.Equal(t, "default", doc.Layout())
	require.Equal(t, "Hello World", doc.Title())
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"Über Kaffee", "uber-kaffee"},
		{"a--b__c", "a-b-c"},
		{"  spaces  ", "spaces"},
		{"Déjà Vu!", "deja-vu"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Slugify(tc.in), "input %q", tc.in)
	}
}

func TestPermalink_IndexPageMapsToRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "---\ntitle: Home\n---\nwelcome\n")

	result, err := NewStore(root).Scan()
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	require.Equal(t, "/", result.Documents[0].Permalink())
	require.Equal(t, "index.html", result.Documents[0].OutputPath())
}
