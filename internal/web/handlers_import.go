package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/churchbase/internal/core"
	"github.com/JonMunkholm/churchbase/internal/logging"
	"github.com/JonMunkholm/churchbase/internal/web/templates"
	"github.com/google/uuid"
)

// importFormField is the multipart field carrying the uploaded CSV.
const importFormField = "csv_file"

// multipartOverhead is slack for the multipart envelope around the file.
const multipartOverhead = 1 << 20

// importResponse is the JSON body of an API import.
type importResponse struct {
	core.ImportOutcome
	CreatedCount int           `json:"created_count"`
	ErrorCount   int           `json:"error_count"`
	Notices      []core.Notice `json:"notices"`
}

func (s *Server) handleMembersPage(w http.ResponseWriter, r *http.Request) {
	notices := popFlash(w, r)
	filter, err := parseMemberFilter(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	members, err := s.service.SearchMembers(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.MembersPage(templates.MembersPageData{
		Notices:  notices,
		Members:  members,
		Actions:  s.service.MemberActions(),
		Limiter:  s.service.ImportLimiterStatus(),
		Query:    filter.Query,
		Category: filter.Category,
	})
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render members page", "error", err)
	}
}

// handleImportMembers is the admin form upload. The result always comes
// back as flash notices on the members page.
func (s *Server) handleImportMembers(w http.ResponseWriter, r *http.Request) {
	file, closeFile, err := s.importFileFromRequest(w, r)
	if err != nil {
		redirectWithFlash(w, r, "/admin/members", core.ImportFailureNotice(err))
		return
	}
	defer closeFile()

	outcome, err := s.service.ImportMembers(r.Context(), file, core.ImportOptions{})
	if err != nil {
		logging.FromContext(r.Context()).Warn("member import failed", "file", file.Name, "error", err)
		redirectWithFlash(w, r, "/admin/members", core.ImportFailureNotice(err))
		return
	}

	redirectWithFlash(w, r, "/admin/members", core.ImportNotices(outcome)...)
}

// handleAPIImportMembers imports and answers with the outcome as JSON.
// ?dry_run=true validates without writing.
func (s *Server) handleAPIImportMembers(w http.ResponseWriter, r *http.Request) {
	var opts core.ImportOptions
	if v := r.URL.Query().Get("dry_run"); v != "" {
		dry, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, r, badRequest("dry_run", "dry_run must be true or false"), http.StatusBadRequest)
			return
		}
		opts.DryRun = dry
	}

	file, closeFile, err := s.importFileFromRequest(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer closeFile()

	outcome, err := s.service.ImportMembers(r.Context(), file, opts)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	status := http.StatusOK
	if outcome.CreatedCount() > 0 {
		status = http.StatusCreated
	}
	if outcome.Created == nil {
		outcome.Created = []uuid.UUID{}
	}
	if outcome.Errors == nil {
		outcome.Errors = []core.RowError{}
	}
	writeJSONStatus(w, status, importResponse{
		ImportOutcome: outcome,
		CreatedCount:  outcome.CreatedCount(),
		ErrorCount:    outcome.ErrorCount(),
		Notices:       core.ImportNotices(outcome),
	})
}

// importFileFromRequest pulls the uploaded CSV out of a multipart form. A
// request without a file yields an ImportFile with a nil Body, which the
// importer rejects as ErrNoFile.
func (s *Server) importFileFromRequest(w http.ResponseWriter, r *http.Request) (core.ImportFile, func(), error) {
	noop := func() {}
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge), strings.Contains(err.Error(), "request body too large"):
			return core.ImportFile{}, noop, core.ErrFileTooLarge
		case errors.Is(err, http.ErrNotMultipart):
			return core.ImportFile{}, noop, nil
		}
		return core.ImportFile{}, noop, fmt.Errorf("read upload: %w", err)
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	f, header, err := r.FormFile(importFormField)
	if errors.Is(err, http.ErrMissingFile) {
		return core.ImportFile{}, cleanup, nil
	}
	if err != nil {
		cleanup()
		return core.ImportFile{}, noop, fmt.Errorf("open upload: %w", err)
	}

	return core.ImportFile{Name: header.Filename, Body: f}, func() {
		_ = f.Close()
		cleanup()
	}, nil
}

func (s *Server) handleImportStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.service.ImportLimiterStatus())
}
