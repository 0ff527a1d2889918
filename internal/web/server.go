package web

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"

	"github.com/mailtally/mailtally/internal/classify"
	"github.com/mailtally/mailtally/internal/store"
)

const defaultListLimit = 100

// Server exposes stored classification results over a local HTTP API, with
// a reclassify endpoint that re-runs the pipeline on a stored mail (e.g.
// after a registry update).
type Server struct {
	store      *store.Store
	classifier *classify.Classifier
	httpServer *http.Server
	port       int
	csrfKey    []byte
}

// NewServer creates a results server listening on localhost.
func NewServer(st *store.Store, cl *classify.Classifier, port int) (*Server, error) {
	csrfKey := make([]byte, 32)
	if _, err := rand.Read(csrfKey); err != nil {
		return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
	}

	return &Server{
		store:      st,
		classifier: cl,
		port:       port,
		csrfKey:    csrfKey,
	}, nil
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	csrfMiddleware := csrf.Protect(
		s.csrfKey,
		csrf.Secure(false), // Allow HTTP for localhost
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.TrustedOrigins([]string{"localhost", "127.0.0.1", fmt.Sprintf("localhost:%d", s.port), fmt.Sprintf("127.0.0.1:%d", s.port)}),
	)
	r.Use(csrfMiddleware)

	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/results", s.handleResults)
		r.Get("/results/{id}", s.handleResult)
		r.Post("/results/{id}/reclassify", s.handleReclassify)
	})

	return r
}

// Start runs the server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Results server listening on http://127.0.0.1:%d", s.port)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>mailtally</title></head>
<body>
<h1>mailtally</h1>
<p>{{.Total}} classified mails: {{.Purchases}} purchases, {{.Subscriptions}} subscriptions,
{{.Others}} others ({{.NeedsReview}} flagged for review).</p>
<p>API: <a href="/api/results">/api/results</a>, <a href="/api/summary">/api/summary</a></p>
<meta name="csrf-token" content="{{.CSRFToken}}">
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summarize()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	data := struct {
		*store.Summary
		CSRFToken string
	}{summary, csrf.Token(r)}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Printf("Warning: failed to render index: %v", err)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summarize()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	var rows []store.Row
	var err error
	if mailType := r.URL.Query().Get("type"); mailType != "" {
		rows, err = s.store.ListByType(mailType, limit)
	} else {
		rows, err = s.store.List(limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	row, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleReclassify(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	row, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	result := s.classifier.Classify(row.Mail)
	if err := s.store.UpdateClassification(id, result); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
