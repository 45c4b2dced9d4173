package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/timesheet/internal/core"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	var q queryErrors
	filter := core.ProjectFilter{
		Customer:       r.URL.Query().Get("customer"),
		ProjectManager: r.URL.Query().Get("project_manager"),
		Page:           q.page(r),
	}
	if err := q.result(); err != nil {
		s.respondError(w, r, err)
		return
	}

	items, err := s.service.ListProjects(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in core.ProjectInput
	if err := decodeBody(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.service.CreateProject(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var in core.ProjectUpdate
	if err := decodeBody(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.service.UpdateProject(r.Context(), chi.URLParam(r, "projectID"), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProject(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Project deleted successfully"})
}
