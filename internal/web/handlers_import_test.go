package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/churchbase/internal/config"
	"github.com/JonMunkholm/churchbase/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smithCSV = "first_name,last_name,gender\nJane,Smith,F\n,Nobody,M\n"

// flashFrom decodes the flash cookie a response set.
func flashFrom(t *testing.T, rec *httptest.ResponseRecorder) []core.Notice {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/members", nil)
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookie {
			req.AddCookie(c)
		}
	}
	return popFlash(httptest.NewRecorder(), req)
}

type importBody struct {
	CreatedIDs   []string        `json:"created_ids"`
	DryRun       bool            `json:"dry_run"`
	Valid        int             `json:"valid_rows"`
	Errors       []core.RowError `json:"errors"`
	CreatedCount int             `json:"created_count"`
	ErrorCount   int             `json:"error_count"`
	Notices      []core.Notice   `json:"notices"`
}

func TestImportMembers_RedirectsWithFlash(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(uploadRequest(t, "/admin/members/import", "members.csv", smithCSV))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/members", rec.Header().Get("Location"))
	assert.Equal(t, []core.Notice{
		{Level: core.LevelSuccess, Message: "Successfully imported 1 members."},
		{Level: core.LevelWarning, Message: "Errors in import: 1 rows skipped. Check data."},
	}, flashFrom(t, rec))

	members := env.store.Members()
	require.Len(t, members, 1)
	assert.Equal(t, "Jane Smith", members[0].FullName())
	assert.Equal(t, core.GenderFemale, members[0].Gender)
	assert.Equal(t, core.CategoryMember, members[0].Category)
}

func TestMembersPage_CategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	env.seedMember(t, "Jane", "Smith")
	_, err := env.srv.service.CreateMember(context.Background(), map[string]string{
		"first_name": "Paul",
		"last_name":  "Elder",
		"category":   "Staff",
	})
	require.NoError(t, err)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/admin/members?category=Staff", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Paul Elder")
	assert.NotContains(t, body, "Jane Smith")
	assert.Contains(t, body, `<option value="Staff" selected>`)
	for _, c := range core.Categories() {
		assert.Contains(t, body, `<option value="`+string(c)+`"`)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/admin/members?category=Elder", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMembersPage_ShowsFlashOnce(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(uploadRequest(t, "/admin/members/import", "members.csv", smithCSV))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/members", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	page := env.do(req)

	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, "Successfully imported 1 members.")
	assert.Contains(t, body, "Errors in import: 1 rows skipped. Check data.")
	assert.Contains(t, body, "Jane Smith")
	assert.Contains(t, body, `name="csv_file"`)
	assert.Contains(t, body, "/admin/members/actions/"+core.ActionBulkSMS)

	var cleared bool
	for _, c := range page.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "flash cookie should be cleared after display")
}

func TestImportMembers_RequestLevelRejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		want     string
	}{
		{"no file", "", "", "No file selected."},
		{"not a csv", "members.txt", smithCSV, "File must be a CSV."},
		{"invalid utf-8", "members.csv", "first_name,last_name\n\xff\xfe,Smith\n", "Error importing members: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.do(uploadRequest(t, "/admin/members/import", tt.filename, tt.content))

			require.Equal(t, http.StatusSeeOther, rec.Code)
			notices := flashFrom(t, rec)
			require.Len(t, notices, 1)
			assert.Equal(t, core.LevelError, notices[0].Level)
			assert.True(t, strings.HasPrefix(notices[0].Message, tt.want), notices[0].Message)
			assert.Empty(t, env.store.Members())
		})
	}
}

func TestImportMembers_NotMultipart(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/members/import", strings.NewReader("x=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := env.do(req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []core.Notice{{Level: core.LevelError, Message: "No file selected."}}, flashFrom(t, rec))
}

func TestImportMembers_FileTooLarge(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Import.MaxFileSize = 64 })
	big := "first_name,last_name\n" + strings.Repeat("Jane,Smith\n", 20)

	rec := env.do(uploadRequest(t, "/api/members/import", "members.csv", big))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE004", decodeBody[ErrorResponse](t, rec).Code)
	assert.Empty(t, env.store.Members())
}

func TestAPIImportMembers(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(uploadRequest(t, "/api/members/import", "members.csv", smithCSV))

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody[importBody](t, rec)
	assert.Equal(t, 1, body.CreatedCount)
	assert.Equal(t, 1, body.ErrorCount)
	require.Len(t, body.CreatedIDs, 1)
	assert.Equal(t, env.store.Members()[0].ID.String(), body.CreatedIDs[0])
	assert.Equal(t, []core.RowError{{Row: 3, Message: "First name and last name are required."}}, body.Errors)
	assert.Len(t, body.Notices, 2)
}

func TestAPIImportMembers_HeaderOnly(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(uploadRequest(t, "/api/members/import", "members.csv", "first_name,last_name\n"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[importBody](t, rec)
	assert.NotNil(t, body.CreatedIDs)
	assert.Empty(t, body.CreatedIDs)
	assert.Empty(t, body.Errors)
	assert.Equal(t, []core.Notice{{Level: core.LevelWarning, Message: "No valid members to import."}}, body.Notices)
}

func TestAPIImportMembers_DryRun(t *testing.T) {
	env := newTestEnv(t)
	csv := "first_name,last_name\nJane,Smith\nJohn,Smith\n"

	rec := env.do(uploadRequest(t, "/api/members/import?dry_run=true", "members.csv", csv))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[importBody](t, rec)
	assert.True(t, body.DryRun)
	assert.Equal(t, 2, body.Valid)
	assert.Empty(t, body.CreatedIDs)
	assert.Equal(t, "Dry run: 2 members would be imported.", body.Notices[0].Message)
	assert.Empty(t, env.store.Members())
}

func TestAPIImportMembers_Errors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		filename string
		wantCode int
		wantErr  string
	}{
		{"bad dry_run flag", "/api/members/import?dry_run=maybe", "members.csv", http.StatusBadRequest, "VAL001"},
		{"not a csv", "/api/members/import", "members.xlsx", http.StatusBadRequest, "FILE002"},
		{"no file", "/api/members/import", "", http.StatusBadRequest, "FILE001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.do(uploadRequest(t, tt.target, tt.filename, smithCSV))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decodeBody[ErrorResponse](t, rec).Code)
			assert.Empty(t, env.store.Members())
		})
	}
}

func TestAPIImportMembers_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.CreateErr = core.ErrConflict

	rec := env.do(uploadRequest(t, "/api/members/import", "members.csv", smithCSV))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, env.store.Members())
}

func TestImportStatus(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/imports/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody[core.ImportLimiterStatus](t, rec)
	assert.Equal(t, 0, status.Active)
	assert.Equal(t, 2, status.MaxConcurrent)
}
