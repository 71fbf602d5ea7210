// ABOUTME: In-memory fake of the opsdesk REST backend for tests
// ABOUTME: Serves auth, template library, and performance/caching/backup routes under /api

package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Record is an opaque JSON object as stored by the fake backend.
type Record = map[string]any

// Request captures what the fake backend received.
type Request struct {
	Method        string
	Path          string
	Authorization string
	Body          string
}

type failure struct {
	status int
	body   string
}

// Server is a running fake backend. BaseURL includes the /api prefix.
type Server struct {
	*httptest.Server
	BaseURL string

	// Token is returned as access_token by login and signup.
	Token string
	// RequireAuth rejects resource routes without "Bearer <Token>".
	RequireAuth bool

	mu        sync.Mutex
	templates map[string]Record
	backups   map[string]Record
	stats     Record
	requests  []Request
	failures  map[string]failure
}

// New starts a fake backend. Close it with Server.Close.
func New() *Server {
	s := &Server{
		Token:     "tok123",
		templates: map[string]Record{},
		backups:   map[string]Record{},
		stats:     Record{"total": 0},
		failures:  map[string]failure{},
	}
	s.Server = httptest.NewServer(s.routes())
	s.BaseURL = s.Server.URL + "/api"
	return s
}

// FailWith forces method+path (path relative to /api) to respond with status
// and a raw body.
func (s *Server) FailWith(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// SeedTemplate stores a template record and returns its id.
func (s *Server) SeedTemplate(rec Record) string {
	return s.seed(s.templates, rec)
}

// SeedBackup stores a performance/caching/backup record and returns its id.
func (s *Server) SeedBackup(rec Record) string {
	return s.seed(s.backups, rec)
}

// SetStats replaces the stats payload.
func (s *Server) SetStats(stats Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

// Template returns a copy of a stored template, if present.
func (s *Server) Template(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.templates[id]
	return copyRecord(rec), ok
}

// Requests returns everything received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request, or a zero Request.
func (s *Server) LastRequest() Request {
	reqs := s.Requests()
	if len(reqs) == 0 {
		return Request{}
	}
	return reqs[len(reqs)-1]
}

func (s *Server) seed(coll map[string]Record, rec Record) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec = copyRecord(rec)
	id, _ := rec["id"].(string)
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}
	coll[id] = rec
	return id
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Post("/auth/signup", s.signup)
		r.Post("/auth/magic-link", s.magicLink)
		r.Get("/signup-login", s.signupLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/templates-workflow-library", func(r chi.Router) {
				r.Get("/", s.list(&s.templates))
				r.Post("/", s.create(&s.templates))
				r.Post("/apply", s.applyTemplate)
				r.Get("/{id}", s.get(&s.templates))
				r.Patch("/{id}", s.update(&s.templates))
				r.Delete("/{id}", s.remove(&s.templates))
				r.Post("/{id}/duplicate", s.duplicateTemplate)
				r.Post("/{id}/share", s.shareTemplate)
			})

			r.Route("/performance-caching-backup", func(r chi.Router) {
				r.Get("/", s.list(&s.backups))
				r.Post("/", s.create(&s.backups))
				r.Get("/stats", s.getStats)
				r.Get("/{id}", s.get(&s.backups))
				r.Patch("/{id}", s.update(&s.backups))
				r.Delete("/{id}", s.remove(&s.backups))
			})
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = readAllAndRestore(r)
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          string(body),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")
		s.mu.Lock()
		f, ok := s.failures[key]
		s.mu.Unlock()
		if ok {
			w.WriteHeader(f.status)
			w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.RequireAuth && r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeMessage(w, http.StatusUnauthorized, "authentication required", "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Email == "" || input.Password == "" {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password", "invalid_credentials")
		return
	}
	writeJSON(w, http.StatusOK, Record{
		"access_token": s.Token,
		"token_type":   "bearer",
		"user":         Record{"id": "u1", "email": input.Email},
	})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var input Record
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input["email"] == nil {
		writeMessage(w, http.StatusBadRequest, "email is required", "validation_error")
		return
	}
	writeJSON(w, http.StatusCreated, Record{
		"access_token": s.Token,
		"token_type":   "bearer",
		"user":         Record{"id": "u2", "email": input["email"], "name": input["name"]},
	})
}

func (s *Server) magicLink(w http.ResponseWriter, r *http.Request) {
	var input Record
	json.NewDecoder(r.Body).Decode(&input)
	writeJSON(w, http.StatusOK, Record{"message": "Magic link sent", "email": input["email"]})
}

func (s *Server) signupLogin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Record{
		"title":     "Sign in to opsdesk",
		"providers": []string{"password", "magic-link", "google", "sso"},
	})
}

func (s *Server) list(coll *map[string]Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		ids := make([]string, 0, len(*coll))
		for id := range *coll {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		items := make([]Record, 0, len(ids))
		for _, id := range ids {
			items = append(items, copyRecord((*coll)[id]))
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, items)
	}
}

func (s *Server) create(coll *map[string]Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid JSON", "bad_json")
			return
		}
		rec["id"] = uuid.NewString()
		s.mu.Lock()
		(*coll)[rec["id"].(string)] = rec
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (s *Server) get(coll *map[string]Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		rec, ok := (*coll)[chi.URLParam(r, "id")]
		rec = copyRecord(rec)
		s.mu.Unlock()
		if !ok {
			writeMessage(w, http.StatusNotFound, "not found", "")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) update(coll *map[string]Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch Record
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid JSON", "bad_json")
			return
		}
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		rec, ok := (*coll)[id]
		if ok {
			for k, v := range patch {
				if k != "id" {
					rec[k] = v
				}
			}
			rec = copyRecord(rec)
		}
		s.mu.Unlock()
		if !ok {
			writeMessage(w, http.StatusNotFound, "not found", "")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) remove(coll *map[string]Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		_, ok := (*coll)[id]
		delete(*coll, id)
		s.mu.Unlock()
		if !ok {
			writeMessage(w, http.StatusNotFound, "not found", "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) duplicateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	src, ok := s.templates[id]
	var dup Record
	if ok {
		dup = copyRecord(src)
		dup["id"] = uuid.NewString()
		if title, _ := src["title"].(string); title != "" {
			dup["title"] = title + " (copy)"
		}
		s.templates[dup["id"].(string)] = dup
		dup = copyRecord(dup)
	}
	s.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found", "")
		return
	}
	writeJSON(w, http.StatusCreated, dup)
}

func (s *Server) applyTemplate(w http.ResponseWriter, r *http.Request) {
	var input Record
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON", "bad_json")
		return
	}
	templateID, _ := input["template_id"].(string)
	s.mu.Lock()
	_, ok := s.templates[templateID]
	s.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, "template not found", "template_not_found")
		return
	}
	writeJSON(w, http.StatusOK, Record{
		"project_id":  input["project_id"],
		"template_id": templateID,
		"applied":     true,
	})
}

func (s *Server) shareTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var input Record
	json.NewDecoder(r.Body).Decode(&input)
	s.mu.Lock()
	_, ok := s.templates[id]
	s.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found", "")
		return
	}
	writeJSON(w, http.StatusOK, Record{
		"template_id": id,
		"shared_with": input["emails"],
		"permission":  input["permission"],
	})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := copyRecord(s.stats)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message, code string) {
	body := Record{"message": message}
	if code != "" {
		body["code"] = code
	}
	writeJSON(w, status, body)
}

func copyRecord(rec Record) Record {
	if rec == nil {
		return nil
	}
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
