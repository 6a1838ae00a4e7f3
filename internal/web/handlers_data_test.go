package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/churchbase/internal/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupsAPI(t *testing.T) {
	env := newTestEnv(t)
	jane := env.seedMember(t, "Jane", "Smith")

	rec := env.do(jsonRequest(t, http.MethodPost, "/api/groups", core.GroupInput{Name: "Choir", Leader: "maria"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	choir := decodeBody[core.Group](t, rec)

	t.Run("duplicate name conflicts", func(t *testing.T) {
		rec := env.do(jsonRequest(t, http.MethodPost, "/api/groups", core.GroupInput{Name: "Choir"}))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "DB001", decodeBody[ErrorResponse](t, rec).Code)
	})

	t.Run("blank name", func(t *testing.T) {
		rec := env.do(jsonRequest(t, http.MethodPost, "/api/groups", core.GroupInput{Name: "  "}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Group name is required.", decodeBody[ErrorResponse](t, rec).Message)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := env.do(jsonRequest(t, http.MethodPost, "/api/groups", map[string]string{"title": "Choir"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("add members", func(t *testing.T) {
		rec := env.do(jsonRequest(t, http.MethodPost, "/api/groups/"+choir.ID.String()+"/members",
			groupMembersRequest{MemberIDs: []uuid.UUID{jane.ID}}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"added":1}`, rec.Body.String())

		rec = env.do(httptest.NewRequest(http.MethodGet, "/api/groups", nil))
		groups := decodeBody[[]core.Group](t, rec)
		require.Len(t, groups, 1)
		assert.Equal(t, int64(1), groups[0].MemberCount)
	})

	t.Run("unknown group", func(t *testing.T) {
		rec := env.do(jsonRequest(t, http.MethodPost, "/api/groups/"+uuid.NewString()+"/members",
			groupMembersRequest{MemberIDs: []uuid.UUID{jane.ID}}))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed group id", func(t *testing.T) {
		rec := env.do(jsonRequest(t, http.MethodPost, "/api/groups/choir/members",
			groupMembersRequest{MemberIDs: []uuid.UUID{jane.ID}}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEventsAndAttendanceAPI(t *testing.T) {
	env := newTestEnv(t)
	jane := env.seedMember(t, "Jane", "Smith")

	rec := env.do(jsonRequest(t, http.MethodPost, "/api/events", map[string]string{
		"title":      "Sunday Service",
		"event_type": "Service",
		"date":       "2024-03-03",
		"time":       "10:30",
		"created_by": "pastor",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	event := decodeBody[core.Event](t, rec)

	rec = env.do(jsonRequest(t, http.MethodPost, "/api/events", map[string]string{
		"title":      "Picnic",
		"event_type": "Party",
		"date":       "2024-03-03",
		"created_by": "pastor",
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL001", decodeBody[ErrorResponse](t, rec).Code)

	attendanceURL := "/api/events/" + event.ID.String() + "/attendance"
	rec = env.do(jsonRequest(t, http.MethodPost, attendanceURL, map[string]string{"member_id": jane.ID.String()}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, core.StatusPresent, decodeBody[core.Attendance](t, rec).Status)

	rec = env.do(jsonRequest(t, http.MethodPost, attendanceURL, map[string]string{
		"member_id": jane.ID.String(),
		"status":    "Excused",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/reports/attendance?date_from=2024-03-01&date_to=2024-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[core.AttendanceReport](t, rec)
	assert.Equal(t, []core.AttendanceReportRow{
		{EventTitle: "Sunday Service", Status: core.StatusExcused, Count: 1},
	}, report.Rows)
	assert.Len(t, report.Events, 1)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/reports/attendance?date_from=2024-04-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[core.AttendanceReport](t, rec).Rows)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]core.Event](t, rec), 1)
}

func TestAttendanceReport_BadFilters(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{
		"/api/reports/attendance?date_from=03/01/2024",
		"/api/reports/attendance?event=seven",
	} {
		rec := env.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestCommunicationsAPI(t *testing.T) {
	env := newTestEnv(t)
	zoe := env.seedMember(t, "Zoe", "Adams")
	amy := env.seedMember(t, "Amy", "Baker")

	rec := env.do(jsonRequest(t, http.MethodPost, "/api/communications", map[string]any{
		"sender":             "pastor",
		"recipient_ids":      []string{amy.ID.String(), zoe.ID.String()},
		"communication_type": "SMS",
		"message":            "See you Sunday",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"Zoe Adams", "Amy Baker"}, decodeBody[core.CommunicationLog](t, rec).Recipients)

	rec = env.do(jsonRequest(t, http.MethodPost, "/api/communications", map[string]any{
		"sender":             "pastor",
		"communication_type": "Fax",
		"message":            "hello",
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/communications", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]core.CommunicationLog](t, rec), 1)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/communications/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Zoe Adams, Amy Baker",SMS,See you Sunday`)
}

func TestDashboardAPI(t *testing.T) {
	env := newTestEnv(t)
	env.seedMember(t, "Jane", "Smith")
	_, err := env.srv.service.CreateMember(t.Context(), map[string]string{
		"first_name": "Paul", "last_name": "Pastor", "category": "Pastor",
	})
	require.NoError(t, err)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/reports/dashboard?q=smith", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	d := decodeBody[core.Dashboard](t, rec)
	assert.Equal(t, int64(2), d.TotalMembers)
	assert.Equal(t, int64(1), d.ActiveMembers)
	assert.Equal(t, int64(1), d.InactiveMembers)
	require.Len(t, d.Members, 1)
	assert.Equal(t, "Jane", d.Members[0].FirstName)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/reports/dashboard?category=Elder", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
