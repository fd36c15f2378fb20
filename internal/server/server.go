// Package server implements the preview server. The assembled output tree
// is served from memory and replaced wholesale after each rebuild, so
// in-flight requests never observe a partially rebuilt site.
package server

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/sitebuilder/internal/assemble"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// PreviewServer serves an in-memory output tree over HTTP.
type PreviewServer struct {
	addr       string
	tree       atomic.Pointer[assemble.Tree]
	hub        *LiveReloadHub
	srv        *http.Server
	recorder   metrics.Recorder
	registry   *prom.Registry
	liveReload bool
}

// New creates a preview server on the given port. registry may be nil to
// disable the /metrics endpoint; liveReload controls script injection and
// the SSE endpoint.
func New(port int, recorder metrics.Recorder, registry *prom.Registry, liveReload bool) *PreviewServer {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	s := &PreviewServer{
		addr:       fmt.Sprintf(":%d", port),
		recorder:   recorder,
		registry:   registry,
		liveReload: liveReload,
	}
	s.hub = NewLiveReloadHub(recorder)
	empty := assemble.Tree{}
	s.tree.Store(&empty)
	return s
}

// Swap atomically replaces the served tree and notifies live-reload clients.
func (s *PreviewServer) Swap(tree assemble.Tree) {
	s.tree.Store(&tree)
	if s.liveReload {
		s.hub.Broadcast(strconv.FormatInt(time.Now().UnixNano(), 10))
	}
}

// Start binds the listener and begins serving. It returns once the listener
// is bound; serving continues in the background until Stop.
func (s *PreviewServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	if s.liveReload {
		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript")
			_, _ = w.Write([]byte(liveReloadScript))
		})
	}
	mux.HandleFunc("/", s.serveTree)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return sberrors.ServerStartFailed(s.addr, err)
	}

	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if serr := s.srv.Serve(ln); serr != nil && serr != http.ErrServerClosed {
			slog.Error("Preview server terminated", "error", serr)
		}
	}()

	slog.Info("Preview server listening", "addr", s.addr)
	return nil
}

// Stop gracefully shuts the server down, disconnecting SSE clients first so
// Shutdown does not wait out their open streams.
func (s *PreviewServer) Stop(ctx context.Context) error {
	s.hub.Close()
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// serveTree resolves a request path inside the current tree. Directory
// paths map to their index.html; cache is disabled so rebuilt pages are
// always re-fetched during preview.
func (s *PreviewServer) serveTree(w http.ResponseWriter, r *http.Request) {
	tree := *s.tree.Load()

	data, contentType, ok := lookup(tree, r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if s.liveReload && strings.HasSuffix(contentType, "html") {
		data = injectLiveReload(data)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write(data)
}

func lookup(tree assemble.Tree, requestPath string) (data []byte, contentType string, ok bool) {
	clean := path.Clean("/" + requestPath)
	rel := strings.TrimPrefix(clean, "/")
	if rel == "" {
		rel = "index.html"
	}

	candidates := []string{rel, rel + "/index.html"}
	for _, candidate := range candidates {
		if content, found := tree[candidate]; found {
			return content, contentTypeFor(candidate), true
		}
	}
	return nil, "", false
}

func contentTypeFor(p string) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func injectLiveReload(page []byte) []byte {
	const tag = `<script src="/livereload.js"></script>`
	if idx := bytes.LastIndex(page, []byte("</body>")); idx >= 0 {
		out := make([]byte, 0, len(page)+len(tag))
		out = append(out, page[:idx]...)
		out = append(out, tag...)
		out = append(out, page[idx:]...)
		return out
	}
	return append(append([]byte{}, page...), tag...)
}
