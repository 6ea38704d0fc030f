// Package memstore serves the collection REST endpoints from memory. It backs
// the scoopd development server and the integration tests.
package memstore

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/five82/scoop/internal/flavor"
)

const maxBodyBytes = 64 << 10

const itemSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "name"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "ownerId": {"type": "string"}
  }
}`

// Store keeps items in insertion order.
type Store struct {
	mu    sync.RWMutex
	items []flavor.Item
}

// New returns a store seeded with items.
func New(items ...flavor.Item) *Store {
	return &Store{items: flavor.Clone(items)}
}

// Items returns a copy of everything stored.
func (s *Store) Items() []flavor.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return flavor.Clone(s.items)
}

// Put appends item. It reports false when the id is already taken.
func (s *Store) Put(item flavor.Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.ID == item.ID {
			return false
		}
	}
	s.items = append(s.items, item)
	return true
}

// Delete removes the item with id and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.items {
		if existing.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// ServerOptions configure the HTTP handler.
type ServerOptions struct {
	CollectionPath string
	Logger         zerolog.Logger
	Registerer     prometheus.Registerer // nil disables request metrics
}

type server struct {
	store    *Store
	log      zerolog.Logger
	schema   *gojsonschema.Schema
	requests *prometheus.CounterVec
}

// Handler exposes s over HTTP.
func Handler(s *Store, opts ServerOptions) (http.Handler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(itemSchema))
	if err != nil {
		return nil, fmt.Errorf("compile item schema: %w", err)
	}
	srv := &server{
		store:  s,
		log:    opts.Logger.With().Str("component", "memstore").Logger(),
		schema: schema,
	}
	if opts.Registerer != nil {
		srv.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoopd_requests_total",
			Help: "Requests served by method and status code.",
		}, []string{"method", "code"})
		if err := opts.Registerer.Register(srv.requests); err != nil {
			return nil, fmt.Errorf("register request metrics: %w", err)
		}
	}

	collection := "/" + strings.Trim(strings.TrimSpace(opts.CollectionPath), "/")
	if collection == "/" {
		collection = "/collection"
	}

	r := chi.NewRouter()
	r.Use(srv.logRequests)
	r.Route(collection, func(r chi.Router) {
		r.Get("/", srv.list)
		r.Post("/", srv.create)
		r.Delete("/{id}", srv.remove)
	})
	return r, nil
}

func (srv *server) list(w http.ResponseWriter, r *http.Request) {
	items := srv.store.Items()
	if items == nil {
		items = []flavor.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (srv *server) create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	result, err := srv.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		http.Error(w, strings.Join(msgs, "; "), http.StatusBadRequest)
		return
	}
	var item flavor.Item
	if err := json.Unmarshal(body, &item); err != nil {
		http.Error(w, "invalid item", http.StatusBadRequest)
		return
	}
	if !srv.store.Put(item) {
		http.Error(w, "id already exists", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (srv *server) remove(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when the request carries one, and only then is
	// the parameter still escaped.
	id := chi.URLParam(r, "id")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(id)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		id = unescaped
	}
	srv.store.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (srv *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)

		srv.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(started)).
			Msg("request")
		if srv.requests != nil {
			srv.requests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
