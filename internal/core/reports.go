package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MaxSearchResults caps the member list returned with the dashboard.
const MaxSearchResults = 50

type TypeCount struct {
	Type  CommunicationType `json:"communication_type"`
	Count int64             `json:"count"`
}

type GroupSize struct {
	Name        string `json:"name"`
	MemberCount int64  `json:"member_count"`
}

// Dashboard is the landing page summary. Active members are those in the
// Member category; every other category counts as inactive.
type Dashboard struct {
	TotalMembers       int64       `json:"total_members"`
	ActiveMembers      int64       `json:"active_members"`
	InactiveMembers    int64       `json:"inactive_members"`
	TotalGroups        int64       `json:"total_groups"`
	GroupSizes         []GroupSize `json:"group_sizes"`
	CommunicationStats []TypeCount `json:"communication_stats"`
	Members            []Member    `json:"members"`
	Groups             []Group     `json:"groups"`
}

// AttendanceFilter bounds the attendance report. Dates are inclusive
// YYYY-MM-DD strings; empty fields do not filter.
type AttendanceFilter struct {
	EventID  uuid.UUID
	DateFrom string
	DateTo   string
}

type AttendanceReportRow struct {
	EventTitle string           `json:"event_title"`
	Status     AttendanceStatus `json:"status"`
	Count      int64            `json:"count"`
}

type AttendanceReport struct {
	Rows   []AttendanceReportRow `json:"rows"`
	Events []Event               `json:"events"`
}

// Dashboard gathers member and group totals, communication counts and the
// first MaxSearchResults members matching f.
func (s *Service) Dashboard(ctx context.Context, f MemberFilter) (Dashboard, error) {
	var d Dashboard
	var err error

	if d.TotalMembers, err = s.store.CountMembers(ctx); err != nil {
		return Dashboard{}, fmt.Errorf("count members: %w", err)
	}
	if d.ActiveMembers, err = s.store.CountMembersByCategory(ctx, CategoryMember); err != nil {
		return Dashboard{}, fmt.Errorf("count active members: %w", err)
	}
	d.InactiveMembers = d.TotalMembers - d.ActiveMembers

	if d.Groups, err = s.store.ListGroups(ctx); err != nil {
		return Dashboard{}, err
	}
	d.TotalGroups = int64(len(d.Groups))
	d.GroupSizes = make([]GroupSize, len(d.Groups))
	for i, g := range d.Groups {
		d.GroupSizes[i] = GroupSize{Name: g.Name, MemberCount: g.MemberCount}
	}

	if d.CommunicationStats, err = s.store.CountCommunicationsByType(ctx); err != nil {
		return Dashboard{}, err
	}

	if d.Members, err = s.SearchMembers(ctx, f); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// AttendanceReport counts attendance per event title and status, ordered
// by title then status.
func (s *Service) AttendanceReport(ctx context.Context, f AttendanceFilter) (AttendanceReport, error) {
	for field, v := range map[string]string{"date_from": f.DateFrom, "date_to": f.DateTo} {
		if v != "" && !ToPgDate(v).Valid {
			return AttendanceReport{}, ValidationError{Field: field, Value: v, Message: fmt.Sprintf("%s must be YYYY-MM-DD.", field)}
		}
	}

	rows, err := s.store.AttendanceReport(ctx, f)
	if err != nil {
		return AttendanceReport{}, err
	}
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return AttendanceReport{}, err
	}
	return AttendanceReport{Rows: rows, Events: events}, nil
}
