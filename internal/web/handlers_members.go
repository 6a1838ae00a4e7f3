package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/churchbase/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	f, err := parseMemberFilter(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			s.respondError(w, r, badRequest("limit", "limit must be a number"), http.StatusBadRequest)
			return
		}
	}

	members, err := s.service.SearchMembers(r.Context(), f)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if members == nil {
		members = []core.Member{}
	}
	writeJSON(w, members)
}

// handleCreateMember takes the same fields as an import row, so a single
// member is held to the same rules.
func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := decodeJSON(w, r, &fields); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	m, err := s.service.CreateMember(r.Context(), fields)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSONStatus(w, http.StatusCreated, m)
}

func (s *Server) handleExportMembersCSV(w http.ResponseWriter, r *http.Request) {
	s.sendExport(w, r, core.MembersCSVName, core.ContentTypeCSV, s.service.ExportMembersCSV)
}

func (s *Server) handleExportMembersXLSX(w http.ResponseWriter, r *http.Request) {
	s.sendExport(w, r, core.MembersXLSXName, core.ContentTypeXLSX, s.service.ExportMembersXLSX)
}

func (s *Server) handleExportCommunicationsCSV(w http.ResponseWriter, r *http.Request) {
	s.sendExport(w, r, core.CommunicationsCSVName, core.ContentTypeCSV, s.service.ExportCommunicationsCSV)
}

func (s *Server) handleSampleCSV(w http.ResponseWriter, r *http.Request) {
	s.sendExport(w, r, core.SampleCSVName, core.ContentTypeCSV, func(_ context.Context, w io.Writer) error {
		return core.WriteSampleCSV(w)
	})
}

// sendExport renders into memory first so a failure can still produce a
// proper error response.
func (s *Server) sendExport(w http.ResponseWriter, r *http.Request, name, contentType string, export func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := export(r.Context(), &buf); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	sendDownload(w, core.Download{FileName: name, ContentType: contentType, Body: buf.Bytes()})
}

func sendDownload(w http.ResponseWriter, d core.Download) {
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+d.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Body)
}

// handleMemberAction runs a registered action over the checked members.
// Downloads are sent directly; everything else comes back as a flash.
func (s *Server) handleMemberAction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "action")

	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, "/admin/members", errorNotice(badRequest("ids", "Invalid form submission")))
		return
	}
	ids, err := parseIDs(r.PostForm["ids"])
	if err != nil {
		redirectWithFlash(w, r, "/admin/members", errorNotice(err))
		return
	}

	result, err := s.service.RunMemberAction(r.Context(), name, ids)
	if err != nil {
		redirectWithFlash(w, r, "/admin/members", errorNotice(err))
		return
	}

	if result.Download != nil {
		sendDownload(w, *result.Download)
		return
	}
	var notices []core.Notice
	if result.Notice != nil {
		notices = append(notices, *result.Notice)
	}
	redirectWithFlash(w, r, "/admin/members", notices...)
}

func errorNotice(err error) core.Notice {
	return core.Notice{Level: core.LevelError, Message: core.FormatUserError(err)}
}

func parseIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, badRequest("ids", "Invalid member id '"+v+"'")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseMemberFilter reads q, group and category from the query string.
func parseMemberFilter(r *http.Request) (core.MemberFilter, error) {
	q := r.URL.Query()
	f := core.MemberFilter{Query: q.Get("q")}

	if v := q.Get("group"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, badRequest("group", "Invalid group id '"+v+"'")
		}
		f.GroupID = id
	}
	if v := q.Get("category"); v != "" {
		c, ok := core.ParseCategory(v)
		if !ok {
			return f, badRequest("category", "Invalid category '"+v+"'.")
		}
		f.Category = c
	}
	return f, nil
}

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var verr core.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return badRequest("body", "Invalid JSON body: "+err.Error())
	}
	return nil
}
