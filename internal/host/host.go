// Package host is the reference HTTP server that exercises the morphing
// engine end to end: it serves static files from a document root and, for
// HTML pages, runs the full morphing pipeline before writing the response;
// for any other sub-resource carrying an "alpaca-padding" query parameter
// it pads the response to the annotated target size instead.
package host

import (
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"alpaca-morph/internal/config"
	"alpaca-morph/internal/distribution"
	"alpaca-morph/internal/logger"
	"alpaca-morph/internal/metrics"
	"alpaca-morph/internal/morph"
)

var log = logger.New("HOST", "info")

// SetLevel adjusts the package logger's verbosity.
func SetLevel(level string) { log.SetLevel(level) }

const fakeImagePath = "/__alpaca_fake_image.png"

// distCacheCapacity bounds how many parsed distributions the S3-FIFO layer
// keeps in memory at once; the bbolt store behind it holds every entry.
const distCacheCapacity = 64

// Server serves a document root, morphing HTML pages and padding annotated
// sub-resources on the way out.
type Server struct {
	cfg        *config.Config
	m          *metrics.Metrics
	distLoader *distribution.Loader
}

// New creates a host Server for cfg, recording request metrics on m (may
// be nil, in which case no metrics are recorded). A non-empty
// cfg.DistCacheFile backs the parsed-.dist-file cache with bbolt, so
// repeat requests against a hot root's distributions don't reparse them
// from disk on every request; an empty path or a failed open falls back
// to an in-memory-only cache.
func New(cfg *config.Config, m *metrics.Metrics) *Server {
	cache := distribution.NewMemoryCache()
	if cfg.DistCacheFile != "" {
		bbolt, err := distribution.NewBboltCache(cfg.DistCacheFile)
		if err != nil {
			log.Warnf("dist_cache", "falling back to in-memory cache: %v", err)
		} else {
			cache = bbolt
		}
	}

	return &Server{
		cfg:        cfg,
		m:          m,
		distLoader: distribution.NewLoader(distribution.NewS3FIFOCache(cache, distCacheCapacity)),
	}
}

// Close releases the resources backing the distribution cache (the bbolt
// file handle, if one is open).
func (s *Server) Close() error {
	return s.distLoader.Close()
}

// ServeHTTP dispatches every request: the fake-image placeholder route,
// a padded-object follow-up request, a static .html page requiring a full
// morph pass, or an ordinary static file.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	start := time.Now()
	root := s.documentRoot(r.Host)
	path := strings.SplitN(r.URL.Path, "?", 2)[0]

	log.Infof("serve_http", "request=%s method=%s path=%s", requestID, r.Method, path)

	switch {
	case path == fakeImagePath:
		s.serveFakeImage(w, r, requestID)
	case strings.HasSuffix(path, ".html") || path == "/":
		s.serveHTML(w, r, root, path, requestID)
		if s.m != nil {
			s.m.RecordMorphLatency(time.Since(start))
		}
	default:
		s.serveObject(w, r, root, path, requestID)
	}
}

// documentRoot substitutes "$http_host" in the configured root template
// with the request's Host header (port stripped), the same per-vhost
// convention a multi-site nginx deployment uses.
func (s *Server) documentRoot(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ReplaceAll(s.cfg.RootTemplate, "$http_host", host)
}

func (s *Server) serveHTML(w http.ResponseWriter, r *http.Request, root, urlPath, requestID string) {
	fsPath := filepath.Join(root, filepath.FromSlash(urlPath))
	if strings.HasSuffix(urlPath, "/") || urlPath == "" {
		fsPath = filepath.Join(fsPath, "index.html")
		urlPath = strings.TrimSuffix(urlPath, "/") + "/index.html"
	}

	raw, err := os.ReadFile(fsPath) //nolint:gosec // fsPath derived from configured document root + request path
	if err != nil {
		log.Warnf("serve_html", "request=%s cannot read %s: %v", requestID, fsPath, err)
		http.NotFound(w, r)
		return
	}

	req := s.morphRequest(root, urlPath)
	read := func(fsPath string) ([]byte, error) { return os.ReadFile(fsPath) } //nolint:gosec

	morphed, err := morph.MorphHTML(req, raw, read)
	if err != nil {
		log.Errorf("serve_html", "request=%s morph failed: %v", requestID, err)
		if s.m != nil {
			s.m.MorphErrors.WithLabelValues("parse_error").Inc()
		}
		morphed = raw
	}
	if s.m != nil {
		s.m.RequestsTotal.WithLabelValues("html").Inc()
		s.m.StrategiesRun.WithLabelValues(metrics.StrategyLabel(req.Probabilistic, req.InliningEnabled)).Inc()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Request-Id", requestID)
	_, _ = w.Write(morphed)
}

// serveObject serves any non-HTML sub-resource. If the request carries an
// alpaca-padding query parameter, the file is read and padded to the
// annotated size before being written; otherwise it's served unchanged.
func (s *Server) serveObject(w http.ResponseWriter, r *http.Request, root, urlPath, requestID string) {
	fsPath := filepath.Join(root, filepath.FromSlash(urlPath))

	raw, err := os.ReadFile(fsPath) //nolint:gosec // fsPath derived from configured document root + request path
	if err != nil {
		log.Warnf("serve_object", "request=%s cannot read %s: %v", requestID, fsPath, err)
		http.NotFound(w, r)
		return
	}

	kind := contentKindForPath(urlPath)
	query := r.URL.RawQuery
	if strings.Contains(query, "alpaca-padding=") {
		delta := morph.MorphObject(morph.ObjectRequest{
			Content:   raw,
			IsCSSOrJS: kind == "css" || kind == "js",
			Query:     query,
		})
		if s.m != nil {
			s.m.RequestsTotal.WithLabelValues(kind).Inc()
		}
		raw = append(raw, delta...)
	}

	w.Header().Set("Content-Type", mimeTypeForKind(kind))
	w.Header().Set("X-Request-Id", requestID)
	_, _ = w.Write(raw)
}

// serveFakeImage serves the injected placeholder route MorphHTML's
// fake-object annotations point at: there is no real file behind it, so
// the response is built from scratch by padding zero bytes to the
// annotated target size.
func (s *Server) serveFakeImage(w http.ResponseWriter, r *http.Request, requestID string) {
	out := morph.MorphObject(morph.ObjectRequest{
		Content:   nil,
		IsCSSOrJS: false,
		Query:     r.URL.RawQuery,
	})

	if s.m != nil {
		s.m.RequestsTotal.WithLabelValues("fake_image").Inc()
		s.m.FakesInjected.Inc()
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Request-Id", requestID)
	_, _ = w.Write(out)
}

func (s *Server) morphRequest(root, urlPath string) *morph.Request {
	return &morph.Request{
		Root:            root,
		PageURI:         urlPath,
		Alias:           s.cfg.AliasLength,
		Probabilistic:   s.cfg.Probabilistic,
		DistHTMLSize:    s.cfg.DistHTMLSize,
		DistObjSize:     s.cfg.DistObjSize,
		DistObjNum:      s.cfg.DistObjNum,
		UseTotalObjSize: s.cfg.UseTotalObjSize,
		ObjNum:          s.cfg.ObjNum,
		ObjSize:         s.cfg.ObjSize,
		MaxObjSize:      s.cfg.MaxObjSize,
		InliningEnabled: s.cfg.InliningEnabled,
		DistLoader:      s.distLoader,
	}
}

func contentKindForPath(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".css":
		return "css"
	case ".js":
		return "js"
	default:
		return "object"
	}
}

func mimeTypeForKind(kind string) string {
	switch kind {
	case "css":
		return "text/css; charset=utf-8"
	case "js":
		return "application/javascript"
	default:
		return "application/octet-stream"
	}
}
