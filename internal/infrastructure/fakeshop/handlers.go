package fakeshop

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"epages-rest-layer/internal/domain"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-chi/chi/v5"
)

const (
	defaultResultsPerPage = 10
	maxResultsPerPage     = 100
)

func (s *Server) list(c *collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := positiveParam(q.Get("page"), 1)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		perPage, err := positiveParam(q.Get("resultsPerPage"), defaultResultsPerPage)
		if err != nil || perPage > maxResultsPerPage {
			writeError(w, http.StatusBadRequest, "invalid resultsPerPage")
			return
		}

		ids := make(map[string]bool)
		for _, id := range q["id"] {
			ids[id] = true
		}
		text := strings.ToLower(q.Get("q"))

		s.mu.Lock()
		matched := make([]map[string]any, 0, len(c.order))
		for _, id := range c.order {
			obj := c.items[id]
			if len(ids) > 0 && !ids[id] {
				continue
			}
			if text != "" {
				name, _ := obj["name"].(string)
				if !strings.Contains(strings.ToLower(name), text) {
					continue
				}
			}
			matched = append(matched, cloneObject(obj))
		}
		s.mu.Unlock()

		start := (page - 1) * perPage
		if start > len(matched) {
			start = len(matched)
		}
		end := start + perPage
		if end > len(matched) {
			end = len(matched)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"results":        len(matched),
			"page":           page,
			"resultsPerPage": perPage,
			"items":          matched[start:end],
		})
	}
}

func (s *Server) get(c *collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		obj, ok := c.items[id]
		obj = cloneObject(obj)
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, obj)
	}
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var obj map[string]any
	if err := json.NewDecoder(r.Body).Decode(&obj); err != nil || obj == nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object")
		return
	}
	if number, _ := obj["productNumber"].(string); number == "" {
		writeError(w, http.StatusBadRequest, "productNumber is required")
		return
	}
	delete(obj, domain.IDAttribute)
	id := s.AddProduct(obj)
	stored, _ := s.Product(id)
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) patch(c *collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json-patch+json" {
			writeError(w, http.StatusUnsupportedMediaType, "expected application/json-patch+json")
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}
		patch, err := jsonpatch.DecodePatch(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "body must be a JSON patch document")
			return
		}

		id := chi.URLParam(r, "id")
		s.mu.Lock()
		defer s.mu.Unlock()
		obj, ok := c.items[id]
		if !ok {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		doc, err := json.Marshal(obj)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to encode resource")
			return
		}
		patched, err := patch.Apply(doc)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		var updated map[string]any
		if err := json.Unmarshal(patched, &updated); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "patched resource is not an object")
			return
		}
		if updated[domain.IDAttribute] != id {
			writeError(w, http.StatusUnprocessableEntity, "id cannot be changed")
			return
		}
		c.put(id, updated)
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, ok := s.products.items[id]
	if ok {
		s.products.remove(id)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) static(get func() map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		v := cloneObject(get())
		s.mu.Unlock()
		if v == nil {
			writeError(w, http.StatusNotFound, "not configured")
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) information(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	locale := r.URL.Query().Get("locale")
	s.mu.Lock()
	info, ok := s.legal[page][locale]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func positiveParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
