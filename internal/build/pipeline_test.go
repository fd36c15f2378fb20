package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

type siteFixture struct {
	source  string
	layouts string
	static  string
}

func newFixture(t *testing.T) *siteFixture {
	t.Helper()
	root := t.TempDir()
	f := &siteFixture{
		source:  filepath.Join(root, "content"),
		layouts: filepath.Join(root, "layouts"),
		static:  filepath.Join(root, "static"),
	}
	for _, dir := range []string{f.source, f.layouts, f.static} {
		require.NoError(t, os.MkdirAll(dir, 0o750))
	}
	f.write(t, f.layouts, "default.html", "<html><body>{{ .Content }}</body></html>")
	f.write(t, f.layouts, "post.html", "---\nlayout: default\n---\n<article>{{ .Content }}</article>")
	return f
}

func (f *siteFixture) write(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func (f *siteFixture) pipeline() *Pipeline {
	return New(f.source, f.layouts, f.static, render.SiteInfo{Title: "Blog", BaseURL: "https://example.com"})
}

func TestRun_RendersPostsIntoTree(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.source, "_posts/2023-03-16-hello.md", "---\nlayout: post\ntitle: Hello\n---\nworld\n")

	report, err := f.pipeline().Run(context.Background(), Options{})
	require.NoError(t, err)
	require.False(t, report.Failed())
	require.Contains(t, report.Tree, "2023/03/16/hello/index.html")
	require.Contains(t, string(report.Tree["2023/03/16/hello/index.html"]), "<p>world</p>")
	require.Contains(t, report.Tree, "index.html")
	require.Contains(t, report.Tree, "feed.xml")
	require.Contains(t, report.Tree, "sitemap.xml")
}

func TestRun_MissingLayoutExcludesDocumentButRendersOthers(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.source, "_posts/2023-03-16-good.md", "---\nlayout: post\n---\nfine\n")
	f.write(t, f.source, "_posts/2023-03-17-bad.md", "---\nlayout: missing\n---\nbroken\n")

	report, err := f.pipeline().Run(context.Background(), Options{})
	require.NoError(t, err)
	require.True(t, report.Failed())
	require.Len(t, report.Errors, 1)

	var se *sberrors.SiteError
	require.True(t, sberrors.As(report.Errors[0], &se))
	require.Equal(t, sberrors.CategoryLayout, se.Category)

	require.Contains(t, report.Tree, "2023/03/16/good/index.html")
	require.NotContains(t, report.Tree, "2023/03/17/bad/index.html")
}

func TestRun_DeterministicOutput(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.source, "_posts/2023-03-16-a.md", "---\nlayout: post\ntitle: A\n---\nalpha\n")
	f.write(t, f.source, "_posts/2023-01-01-b.md", "---\nlayout: post\ntitle: B\n---\nbravo\n")

	first, err := f.pipeline().Run(context.Background(), Options{})
	require.NoError(t, err)
	second, err := f.pipeline().Run(context.Background(), Options{})
	require.NoError(t, err)
	require.True(t, first.Tree.Equal(second.Tree))
}

func TestRun_DraftsExcludedByDefault(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.source, "_posts/2023-03-16-draft.md", "---\nlayout: post\ndraft: true\n---\nwip\n")

	report, err := f.pipeline().Run(context.Background(), Options{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.NotContains(t, report.Tree, "2023/03/16/draft/index.html")

	report, err = f.pipeline().Run(context.Background(), Options{IncludeDrafts: true})
	require.NoError(t, err)
	require.Zero(t, report.Skipped)
	require.Contains(t, report.Tree, "2023/03/16/draft/index.html")
}

func TestRun_FutureDatedPostsExcludedUntilTheirDate(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.source, "_posts/2023-06-01-later.md", "---\nlayout: post\n---\nsoon\n")

	now := time.Date(2023, 3, 16, 0, 0, 0, 0, time.UTC)
	report, err := f.pipeline().Run(context.Background(), Options{Now: now})
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)

	afterward := time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC)
	report, err = f.pipeline().Run(context.Background(), Options{Now: afterward})
	require.NoError(t, err)
	require.Zero(t, report.Skipped)
	require.Contains(t, report.Tree, "2023/06/01/later/index.html")
}

func TestRun_StaticFilesCopied(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.static, "css/main.css", "body{}")

	report, err := f.pipeline().Run(context.Background(), Options{})
	require.NoError(t, err)
	require.Equal(t, []byte("body{}"), report.Tree["css/main.css"])
}

func TestRun_EventsPersisted(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.source, "_posts/2023-03-16-good.md", "---\nlayout: post\n---\nok\n")
	f.write(t, f.source, "_posts/2023-03-17-bad.md", "---\nbroken frontmatter\n")

	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	p := f.pipeline()
	p.Events = store

	report, err := p.Run(context.Background(), Options{Trigger: "test"})
	require.NoError(t, err)
	require.True(t, report.Failed())

	events, err := store.GetByBuildID(context.Background(), report.BuildID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, eventstore.TypeBuildStarted, events[0].Type)
	require.Equal(t, "test", events[0].Metadata["trigger"])
	require.Equal(t, eventstore.TypeDocumentError, events[1].Type)
	require.Equal(t, eventstore.TypeBuildFinished, events[2].Type)
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.source, "_posts/2023-03-16-a.md", "---\nlayout: post\n---\na\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline().Run(ctx, Options{})
	require.ErrorIs(t, err, context.Canceled)
}
