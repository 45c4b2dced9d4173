package web

import "net/http"

// handleWeeklyReport serves GET /api/reports/weekly?date=&project_id=.
// date defaults to today.
func (s *Server) handleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	var q queryErrors
	day := q.dateParam(r, "date")
	if err := q.result(); err != nil {
		s.respondError(w, r, err)
		return
	}

	report, err := s.service.WeeklyReport(r.Context(), day, r.URL.Query().Get("project_id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleMonthlyReport serves GET /api/reports/monthly?year=&month=&project_id=.
// year and month default to the current ones.
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	var q queryErrors
	year := q.intParam(r, "year")
	month := q.intParam(r, "month")
	if err := q.result(); err != nil {
		s.respondError(w, r, err)
		return
	}

	report, err := s.service.MonthlyReport(r.Context(), year, month, r.URL.Query().Get("project_id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
