package web

import (
	"net/http"

	"github.com/JonMunkholm/churchbase/internal/core"
	"github.com/google/uuid"
)

// handleDashboard accepts the member search filters q, group and category.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	f, err := parseMemberFilter(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	d, err := s.service.Dashboard(r.Context(), f)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, d)
}

// handleAttendanceReport accepts event, date_from and date_to. Dates are
// inclusive and formatted YYYY-MM-DD; the service rejects anything else.
func (s *Server) handleAttendanceReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := core.AttendanceFilter{DateFrom: q.Get("date_from"), DateTo: q.Get("date_to")}

	if v := q.Get("event"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			s.respondError(w, r, badRequest("event", "Invalid event id '"+v+"'"), http.StatusBadRequest)
			return
		}
		f.EventID = id
	}

	report, err := s.service.AttendanceReport(r.Context(), f)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, report)
}
