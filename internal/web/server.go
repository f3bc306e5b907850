// Package web serves the gallery and turns form submissions and delete
// clicks into catalog mutations followed by a re-render.
package web

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/poku-e/whisk/internal/catalog"
	"github.com/poku-e/whisk/internal/page"
	"github.com/poku-e/whisk/internal/prefs"
	"github.com/poku-e/whisk/internal/recipe"
	"github.com/poku-e/whisk/internal/store"
)

// maxBodyBytes bounds a whole submission; the photo limit is enforced
// separately so an oversized photo gets a clear message.
const maxBodyBytes = 8 << 20

type Options struct {
	// StaticDir, when set, is served under /images/.
	StaticDir string
}

type Server struct {
	kv     store.KV
	page   *page.Page
	logger *log.Logger
	opts   Options

	mu       sync.Mutex
	catalogs map[string]*activeCatalog
}

// activeCatalog is a client's catalog shared by the requests currently
// using it. It is dropped once the last of them releases it.
type activeCatalog struct {
	cat  *catalog.Catalog
	refs int
}

func New(kv store.KV, p *page.Page, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		kv:       kv,
		page:     p,
		logger:   logger,
		opts:     opts,
		catalogs: make(map[string]*activeCatalog),
	}
}

// catalogFor returns the client's catalog and the func that releases it.
// Concurrent requests from one client share an instance, so their mutations
// are serialized; idle clients hold no entry.
func (s *Server) catalogFor(client string) (*catalog.Catalog, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.catalogs[client]
	if !ok {
		a = &activeCatalog{cat: catalog.New(store.New(store.Scoped(s.kv, client), s.logger))}
		s.catalogs[client] = a
	}
	a.refs++

	var once sync.Once
	return a.cat, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if a.refs--; a.refs == 0 {
				delete(s.catalogs, client)
			}
		})
	}
}

// recipes returns the requesting client's catalog.
func (s *Server) recipes(r *http.Request) []recipe.Recipe {
	cat, release := s.catalogFor(clientID(r))
	defer release()
	return cat.All()
}

func (s *Server) prefsFor(client string) *prefs.Prefs {
	return prefs.New(store.Scoped(s.kv, client))
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Gallery UI
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /recipes", s.handleSubmit)
	mux.HandleFunc("POST /recipes/{id}/delete", s.handleDelete)
	mux.HandleFunc("POST /theme", s.handleTheme)

	// Recipes API
	mux.HandleFunc("GET /api/recipes", s.handleList)
	mux.HandleFunc("POST /api/recipes", s.handleSubmit)
	mux.HandleFunc("DELETE /api/recipes/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/gallery", s.handleGallery)

	// Export
	mux.HandleFunc("GET /export.csv", s.handleExport)
	mux.HandleFunc("GET /export.xlsx", s.handleExport)

	if s.opts.StaticDir != "" {
		mux.Handle("GET /images/", http.StripPrefix("/images/", http.FileServer(http.Dir(s.opts.StaticDir))))
	}

	return withCommonHeaders(withClient(mux))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}

func withCommonHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if r.Method == http.MethodOptions {
			w.Header().Set("Allow", "GET,POST,DELETE,OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
