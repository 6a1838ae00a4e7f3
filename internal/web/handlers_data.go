package web

import (
	"net/http"

	"github.com/JonMunkholm/churchbase/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.service.ListGroups(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if groups == nil {
		groups = []core.Group{}
	}
	writeJSON(w, groups)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var in core.GroupInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	g, err := s.service.CreateGroup(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSONStatus(w, http.StatusCreated, g)
}

type groupMembersRequest struct {
	MemberIDs []uuid.UUID `json:"member_ids"`
}

func (s *Server) handleAddGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	var req groupMembersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	added, err := s.service.AddGroupMembers(r.Context(), groupID, req.MemberIDs)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, map[string]int64{"added": added})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.service.ListEvents(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if events == nil {
		events = []core.Event{}
	}
	writeJSON(w, events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in core.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	e, err := s.service.CreateEvent(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSONStatus(w, http.StatusCreated, e)
}

func (s *Server) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlID(r, "eventID")
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	var in core.AttendanceInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	a, err := s.service.RecordAttendance(r.Context(), eventID, in)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSONStatus(w, http.StatusCreated, a)
}

func (s *Server) handleListCommunications(w http.ResponseWriter, r *http.Request) {
	logs, err := s.service.ListCommunications(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if logs == nil {
		logs = []core.CommunicationLog{}
	}
	writeJSON(w, logs)
}

func (s *Server) handleLogCommunication(w http.ResponseWriter, r *http.Request) {
	var in core.CommunicationInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	c, err := s.service.LogCommunication(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

func urlID(r *http.Request, param string) (uuid.UUID, error) {
	v := chi.URLParam(r, param)
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, badRequest(param, "Invalid id '"+v+"'")
	}
	return id, nil
}
