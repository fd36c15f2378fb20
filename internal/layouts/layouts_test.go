package layouts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDir_MissingDirIsEmpty(t *testing.T) {
	store, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	require.Empty(t, store.Names())
}

func TestLoadDir_LoadsTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.html"),
		[]byte("<html>{{ .Content }}</html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("ignored"), 0o600))

	store, err := LoadDir(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"default"}, store.Names())
}

func TestResolve_ChainInnermostFirst(t *testing.T) {
	store, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	store.Add("default", []byte("<html>{{ .Content }}</html>"))
	store.Add("post", []byte("---\nlayout: default\n---\n<article>{{ .Content }}</article>"))

	chain, err := store.Resolve("post")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	require.Equal(t, "post", chain[0].Name)
	require.Equal(t, "default", chain[1].Name)
}

func TestResolve_UnknownLayout(t *testing.T) {
	store, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)

	_, err = store.Resolve("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_CycleDetected(t *testing.T) {
	store, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	store.Add("a", []byte("---\nlayout: b\n---\n{{ .Content }}"))
	store.Add("b", []byte("---\nlayout: a\n---\n{{ .Content }}"))

	_, err = store.Resolve("a")
	require.ErrorIs(t, err, ErrCycle)
}

func TestExecute_FuncsAvailable(t *testing.T) {
	store, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	store.Add("default", []byte(`<h1>{{ lower .Title }}</h1>`))

	chain, err := store.Resolve("default")
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, chain[0].Execute(&sb, map[string]any{"Title": "HELLO"}))
	require.Equal(t, "<h1>hello</h1>", sb.String())
}

func TestExecute_ParseErrorSurfacesOnExecute(t *testing.T) {
	store, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	store.Add("broken", []byte("{{ .Unclosed"))

	chain, err := store.Resolve("broken")
	require.NoError(t, err)

	var sb strings.Builder
	require.Error(t, chain[0].Execute(&sb, nil))
}
