package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/timesheet/internal/core"
)

// ============================================================================
// Customers
// ============================================================================

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	var q queryErrors
	page := q.page(r)
	if err := q.result(); err != nil {
		s.respondError(w, r, err)
		return
	}

	items, err := s.service.ListCustomers(r.Context(), page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in core.CustomerInput
	if err := decodeBody(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	c, err := s.service.CreateCustomer(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.service.GetCustomer(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var in core.CustomerUpdate
	if err := decodeBody(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	c, err := s.service.UpdateCustomer(r.Context(), chi.URLParam(r, "name"), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteCustomer(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Customer deleted successfully"})
}

// ============================================================================
// Project managers
// ============================================================================

func (s *Server) handleListProjectManagers(w http.ResponseWriter, r *http.Request) {
	var q queryErrors
	page := q.page(r)
	if err := q.result(); err != nil {
		s.respondError(w, r, err)
		return
	}

	items, err := s.service.ListProjectManagers(r.Context(), page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateProjectManager(w http.ResponseWriter, r *http.Request) {
	var in core.ProjectManagerInput
	if err := decodeBody(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	pm, err := s.service.CreateProjectManager(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pm)
}

func (s *Server) handleGetProjectManager(w http.ResponseWriter, r *http.Request) {
	pm, err := s.service.GetProjectManager(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pm)
}

func (s *Server) handleUpdateProjectManager(w http.ResponseWriter, r *http.Request) {
	var in core.ProjectManagerUpdate
	if err := decodeBody(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	pm, err := s.service.UpdateProjectManager(r.Context(), chi.URLParam(r, "name"), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pm)
}

func (s *Server) handleDeleteProjectManager(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProjectManager(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Project manager deleted successfully"})
}
