// Package fakeshop is an in-process stand-in for the platform's REST API.
// It serves products, orders, locales, currencies and legal pages for one
// shop and records every request it receives.
package fakeshop

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"epages-rest-layer/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RecordedRequest is one request as the server saw it.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Fault overrides the normal answer to a request. Drop closes the connection
// without a response.
type Fault struct {
	Status int
	Body   string
	Drop   bool
}

// FaultFunc decides whether r gets a fault; nil means answer normally.
type FaultFunc func(r *http.Request) *Fault

type collection struct {
	order []string
	items map[string]map[string]any
}

func newCollection() *collection {
	return &collection{items: make(map[string]map[string]any)}
}

func (c *collection) put(id string, obj map[string]any) {
	if _, ok := c.items[id]; !ok {
		c.order = append(c.order, id)
	}
	c.items[id] = obj
}

func (c *collection) remove(id string) {
	delete(c.items, id)
	for i, x := range c.order {
		if x == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Server is the fake shop. The zero value is not usable; call New.
type Server struct {
	shop   string
	logger zerolog.Logger

	// NewID generates resource ids; defaults to random UUIDs.
	NewID func() string

	mu         sync.Mutex
	token      string
	anonGET    bool
	products   *collection
	orders     *collection
	locales    map[string]any
	currencies map[string]any
	legal      map[string]map[string]domain.Information
	fault      FaultFunc
	requests   []RecordedRequest
}

// New creates an empty shop named shop.
func New(shop string, logger zerolog.Logger) *Server {
	return &Server{
		shop:     shop,
		logger:   logger,
		NewID:    uuid.NewString,
		products: newCollection(),
		orders:   newCollection(),
		legal:    make(map[string]map[string]domain.Information),
	}
}

// Shop returns the shop identifier the server answers for.
func (s *Server) Shop() string { return s.shop }

// RequireToken makes every request carry "Bearer token". With anonymousGET,
// GET requests without an Authorization header are still served.
func (s *Server) RequireToken(token string, anonymousGET bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.anonGET = anonymousGET
}

// SetFault installs f; pass nil to remove it.
func (s *Server) SetFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// AddProduct stores obj and returns its id.
func (s *Server) AddProduct(obj map[string]any) string {
	return s.add(s.products, obj)
}

// AddOrder stores obj and returns its id.
func (s *Server) AddOrder(obj map[string]any) string {
	return s.add(s.orders, obj)
}

func (s *Server) add(c *collection, obj map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneObject(obj)
	id, _ := cp[domain.IDAttribute].(string)
	if id == "" {
		id = s.NewID()
		cp[domain.IDAttribute] = id
	}
	c.put(id, cp)
	return id
}

// Product returns the stored product.
func (s *Server) Product(id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.products.items[id]
	return cloneObject(obj), ok
}

// SetLocales sets the locales resource.
func (s *Server) SetLocales(def string, items ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locales = map[string]any{"default": def, "items": items}
}

// SetCurrencies sets the currencies resource.
func (s *Server) SetCurrencies(def string, items ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currencies = map[string]any{"default": def, "items": items}
}

// SetInformation sets a legal page in one locale.
func (s *Server) SetInformation(page, locale string, info domain.Information) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.legal[page] == nil {
		s.legal[page] = make(map[string]domain.Information)
	}
	s.legal[page][locale] = info
}

// Requests returns the requests received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// RequestsTo returns the recorded requests with the given method whose path
// ends in suffix.
func (s *Server) RequestsTo(method, suffix string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasSuffix(r.Path, suffix) {
			out = append(out, r)
		}
	}
	return out
}

// ResetRequests forgets the recorded requests.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Handler returns the router serving /rs/shops/{shop}/...
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(s.record)

	r.Route("/"+domain.RestPathPrefix+"/{shop}", func(r chi.Router) {
		r.Use(s.checkShop)
		r.Use(s.applyFault)
		r.Use(s.authenticate)

		r.Get("/products", s.list(s.products))
		r.Post("/products", s.createProduct)
		r.Get("/products/{id}", s.get(s.products))
		r.Patch("/products/{id}", s.patch(s.products))
		r.Delete("/products/{id}", s.deleteProduct)

		r.Get("/orders", s.list(s.orders))
		r.Get("/orders/{id}", s.get(s.orders))
		r.Patch("/orders/{id}", s.patch(s.orders))

		r.Get("/locales", s.static(func() map[string]any { return s.locales }))
		r.Get("/currencies", s.static(func() map[string]any { return s.currencies }))
		r.Get("/legal/{page}", s.information)
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		s.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("Fake shop request")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkShop(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "shop") != s.shop {
			writeError(w, http.StatusNotFound, "unknown shop")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) applyFault(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f := s.fault
		s.mu.Unlock()
		if f == nil {
			next.ServeHTTP(w, r)
			return
		}
		fault := f(r)
		switch {
		case fault == nil:
			next.ServeHTTP(w, r)
		case fault.Drop:
			hj, ok := w.(http.Hijacker)
			if !ok {
				writeError(w, http.StatusInternalServerError, "connection cannot be dropped")
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fault.Status)
			_, _ = io.WriteString(w, fault.Body)
		}
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		token, anonGET := s.token, s.anonGET
		s.mu.Unlock()
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if auth == "" && anonGET && r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		if auth != "Bearer "+token {
			writeError(w, http.StatusUnauthorized, "invalid access token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/vnd.epages.v1+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func cloneObject(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
