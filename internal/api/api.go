// ABOUTME: JSON API consumed by the lab UI
// ABOUTME: Thin boundary over the session manager and project store

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/colonylab/labsync/internal/analysis"
	"github.com/colonylab/labsync/internal/project"
	"github.com/colonylab/labsync/internal/remote"
	"github.com/colonylab/labsync/internal/session"
)

// Server exposes the JSON boundary consumed by the lab UI. The process
// serves a single researcher's session, matching the app model.
type Server struct {
	session *session.Manager
	store   *project.Store
	logger  *slog.Logger
}

// New creates an API server over the session and project layers.
func New(sessionManager *session.Manager, store *project.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		session: sessionManager,
		store:   store,
		logger:  logger.With("component", "api"),
	}
}

// Routes registers all API routes on the given mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.requireLogin(s.handleLogout))
	mux.HandleFunc("GET /api/session", s.handleSession)

	mux.HandleFunc("GET /api/projects", s.requireLogin(s.handleListProjects))
	mux.HandleFunc("POST /api/projects", s.requireLogin(s.handleCreateProject))
	mux.HandleFunc("DELETE /api/projects/{id}", s.requireLogin(s.handleDeleteProject))
	mux.HandleFunc("POST /api/projects/{id}/select", s.requireLogin(s.handleSelectProject))
	mux.HandleFunc("GET /api/projects/active", s.requireLogin(s.handleActiveProject))

	mux.HandleFunc("POST /api/experiments", s.requireLogin(s.handleAddExperiment))
}

// requireLogin rejects requests while no session is established.
func (s *Server) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.session.State() != session.StateLoggedIn {
			writeError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		next(w, r)
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	if err := s.session.Register(r.Context(), req.Username, req.Password); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.session.Login(r.Context(), req.Username, req.Password); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user": s.session.CurrentUser()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Logout(r.Context()); err != nil {
		s.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"state": s.session.State().String(),
		"user":  s.session.CurrentUser(),
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"user":     s.session.CurrentUser(),
		"projects": s.store.Projects(),
	})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.store.CreateProject(r.Context(), req.Name)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		s.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectProject(w http.ResponseWriter, r *http.Request) {
	s.store.Select(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActiveProject(w http.ResponseWriter, r *http.Request) {
	active, ok := s.store.ActiveProject()
	if !ok {
		writeError(w, http.StatusNotFound, "no active project")
		return
	}
	writeJSON(w, http.StatusOK, active)
}

func (s *Server) handleAddExperiment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CellLine string        `json:"cellLine"`
		Drug     string        `json:"drug"`
		Doses    []remote.Dose `json:"doses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exp, err := s.store.AddExperiment(r.Context(), req.CellLine, req.Drug, req.Doses)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

// writeFailure maps layer errors to HTTP statuses. Anything unrecognized is
// treated as a remote failure.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, remote.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, remote.ErrUserExists):
		writeError(w, http.StatusConflict, "user already exists")
	case errors.Is(err, remote.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, remote.ErrInvalidExperiment), errors.Is(err, analysis.ErrTooManyDoses):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, project.ErrNoActiveProject), errors.Is(err, project.ErrNoOwner),
		errors.Is(err, session.ErrNotLoggedOut), errors.Is(err, session.ErrNotLoggedIn):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("remote operation failed", "error", err)
		writeError(w, http.StatusBadGateway, "remote store unavailable")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
