package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/churchbase/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlashRoundTrip(t *testing.T) {
	want := []core.Notice{
		{Level: core.LevelSuccess, Message: "Successfully imported 3 members."},
		{Level: core.LevelWarning, Message: `Row 4: Invalid gender 'X'. Must be 'M' or 'F'.`},
	}
	rec := httptest.NewRecorder()
	setFlash(rec, want...)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/admin/members", nil)
	req.AddCookie(cookies[0])
	assert.Equal(t, want, popFlash(httptest.NewRecorder(), req))
}

func TestSetFlash_NoNotices(t *testing.T) {
	rec := httptest.NewRecorder()
	setFlash(rec)
	assert.Empty(t, rec.Result().Cookies())
}

func TestPopFlash_Tampered(t *testing.T) {
	for _, value := range []string{"!!!", "bm90IGpzb24"} {
		req := httptest.NewRequest(http.MethodGet, "/admin/members", nil)
		req.AddCookie(&http.Cookie{Name: flashCookie, Value: value})
		assert.Nil(t, popFlash(httptest.NewRecorder(), req), value)
	}
}

func TestPopFlash_None(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/members", nil)

	assert.Nil(t, popFlash(rec, req))
	assert.Empty(t, rec.Result().Cookies())
}
