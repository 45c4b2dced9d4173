package web

import (
	"net/http"

	"github.com/JonMunkholm/timesheet/internal/core"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	var q queryErrors
	filter := core.TimeEntryFilter{
		ProjectID:    r.URL.Query().Get("project_id"),
		CustomerName: r.URL.Query().Get("customer_name"),
		StartDate:    q.dateParam(r, "start_date"),
		EndDate:      q.dateParam(r, "end_date"),
		Page:         q.page(r),
	}
	if !filter.StartDate.IsZero() && !filter.EndDate.IsZero() && filter.EndDate.Before(filter.StartDate) {
		q.add("end_date", "must not be before start_date")
	}
	if err := q.result(); err != nil {
		s.respondError(w, r, err)
		return
	}

	items, err := s.service.ListEntries(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var in core.TimeEntryInput
	if err := decodeBody(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	e, err := s.service.CreateEntry(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	e, err := s.service.GetEntry(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var u core.TimeEntryUpdate
	if err := decodeBody(w, r, &u); err != nil {
		s.respondError(w, r, err)
		return
	}

	e, err := s.service.UpdateEntry(r.Context(), id, u)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.service.DeleteEntry(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Entry deleted successfully"})
}
