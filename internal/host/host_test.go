package host

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"alpaca-morph/internal/config"
)

func newTestServer(t *testing.T, root string) *Server {
	t.Helper()
	cfg := config.Load()
	cfg.RootTemplate = root
	cfg.ObjNum = 1
	cfg.ObjSize = 1
	cfg.MaxObjSize = 1
	cfg.DistCacheFile = filepath.Join(t.TempDir(), "dist-cache.db")
	s := New(cfg, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestServeHTML_MorphsDocument(t *testing.T) {
	dir := t.TempDir()
	page := "<html><head></head><body><img src=\"/a.png\"></body></html>"
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("pngbytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, dir)
	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type: got %q", ct)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header to be set")
	}
}

func TestServeHTML_MissingFile_404s(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)

	req := httptest.NewRequest(http.MethodGet, "/missing.html", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestServeObject_PadsWhenAnnotated(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, dir)
	req := httptest.NewRequest(http.MethodGet, "/a.png?alpaca-padding=10", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if w.Body.Len() != 10 {
		t.Errorf("body length: got %d, want 10", w.Body.Len())
	}
}

func TestServeObject_NoAnnotation_ServedUnchanged(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, dir)
	req := httptest.NewRequest(http.MethodGet, "/a.png", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Body.String() != "abc" {
		t.Errorf("body: got %q, want %q", w.Body.String(), "abc")
	}
}

func TestServeFakeImage_RespectsTargetSize(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)

	req := httptest.NewRequest(http.MethodGet, fakeImagePath+"?alpaca-padding=25&i=1", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Body.Len() != 25 {
		t.Errorf("body length: got %d, want 25", w.Body.Len())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestDocumentRoot_SubstitutesHTTPHost(t *testing.T) {
	cfg := config.Load()
	cfg.RootTemplate = "/srv/$http_host"
	s := New(cfg, nil)

	if got := s.documentRoot("example.com:8080"); got != "/srv/example.com" {
		t.Errorf("documentRoot: got %q, want %q", got, "/srv/example.com")
	}
}

func TestContentKindForPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/style.css", "css"},
		{"/app.js", "js"},
		{"/a.png", "object"},
		{"/noext", "object"},
	}
	for _, c := range cases {
		if got := contentKindForPath(c.path); got != c.want {
			t.Errorf("contentKindForPath(%q): got %s, want %s", c.path, got, c.want)
		}
	}
}
