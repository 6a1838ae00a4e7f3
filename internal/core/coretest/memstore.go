// Package coretest provides an in-memory core.Store for tests.
package coretest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/churchbase/internal/core"
	"github.com/google/uuid"
)

// MemStore is a core.Store held in memory. Set CreateErr to make the next
// batch create fail without storing anything.
type MemStore struct {
	mu sync.Mutex

	CreateErr error
	Now       func() time.Time

	members      []core.Member
	groups       []core.Group
	groupMembers map[uuid.UUID]map[uuid.UUID]bool
	events       []core.Event
	attendance   map[[2]uuid.UUID]core.Attendance
	comms        []core.CommunicationLog
}

var _ core.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		Now:          func() time.Time { return time.Now().UTC() },
		groupMembers: make(map[uuid.UUID]map[uuid.UUID]bool),
		attendance:   make(map[[2]uuid.UUID]core.Attendance),
	}
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) CreateMembers(_ context.Context, in []core.MemberInput) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		err := s.CreateErr
		s.CreateErr = nil
		return nil, err
	}
	now := s.Now()
	ids := make([]uuid.UUID, len(in))
	for i, m := range in {
		ids[i] = s.addMemberAt(m, now.Add(time.Duration(i)*time.Microsecond)).ID
	}
	return ids, nil
}

func (s *MemStore) CreateMember(_ context.Context, in core.MemberInput) (core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMemberAt(in, s.Now()), nil
}

func (s *MemStore) addMemberAt(in core.MemberInput, now time.Time) core.Member {
	m := core.Member{
		ID:        uuid.New(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Contact1:  in.Contact1,
		Contact2:  in.Contact2,
		Gender:    in.Gender,
		Email:     in.Email,
		Category:  in.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.members = append(s.members, m)
	return m
}

// Members returns every stored member in insertion order.
func (s *MemStore) Members() []core.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Member(nil), s.members...)
}

func (s *MemStore) SearchMembers(_ context.Context, f core.MemberFilter) ([]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(f.Query)
	all := append([]core.Member(nil), s.members...)
	sortNewestFirst(all)
	var out []core.Member
	for _, m := range all {
		if q != "" && !containsAny(q, m.FirstName, m.LastName, m.Contact1, m.Contact2, m.Email) {
			continue
		}
		if f.Category != "" && m.Category != f.Category {
			continue
		}
		if f.GroupID != uuid.Nil && !s.groupMembers[f.GroupID][m.ID] {
			continue
		}
		out = append(out, m)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func containsAny(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// ListMembers orders like the database: created_at descending, then id.
func (s *MemStore) ListMembers(context.Context) ([]core.Member, error) {
	out := s.Members()
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(members []core.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

func (s *MemStore) MembersByIDs(_ context.Context, ids []uuid.UUID) ([]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []core.Member
	for _, m := range s.members {
		if want[m.ID] {
			out = append(out, m)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemStore) CountMembers(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.members)), nil
}

func (s *MemStore) CountMembersByCategory(_ context.Context, c core.Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, m := range s.members {
		if m.Category == c {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) CreateGroup(_ context.Context, in core.GroupInput) (core.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groups {
		if g.Name == in.Name {
			return core.Group{}, core.ErrConflict
		}
	}
	g := core.Group{ID: uuid.New(), Name: in.Name, Description: in.Description, Leader: in.Leader, CreatedAt: s.Now()}
	s.groups = append(s.groups, g)
	return g, nil
}

func (s *MemStore) ListGroups(context.Context) ([]core.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Group, len(s.groups))
	for i, g := range s.groups {
		g.MemberCount = int64(len(s.groupMembers[g.ID]))
		out[i] = g
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) AddGroupMembers(_ context.Context, groupID uuid.UUID, memberIDs []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasGroup(groupID) {
		return 0, core.ErrNotFound
	}
	set := s.groupMembers[groupID]
	if set == nil {
		set = make(map[uuid.UUID]bool)
		s.groupMembers[groupID] = set
	}
	var n int64
	for _, id := range memberIDs {
		if !set[id] {
			set[id] = true
			n++
		}
	}
	return n, nil
}

func (s *MemStore) hasGroup(id uuid.UUID) bool {
	for _, g := range s.groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

func (s *MemStore) CreateEvent(_ context.Context, in core.EventInput) (core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := core.Event{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		EventType:   in.EventType,
		Date:        in.Date,
		Time:        in.Time,
		Location:    in.Location,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   s.Now(),
	}
	s.events = append(s.events, e)
	return e, nil
}

func (s *MemStore) ListEvents(context.Context) ([]core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]core.Event(nil), s.events...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *MemStore) RecordAttendance(_ context.Context, eventID uuid.UUID, in core.AttendanceInput) (core.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]uuid.UUID{in.MemberID, eventID}
	a, ok := s.attendance[key]
	if !ok {
		a = core.Attendance{ID: uuid.New(), MemberID: in.MemberID, EventID: eventID}
	}
	a.Status = in.Status
	a.Notes = in.Notes
	a.RecordedAt = s.Now()
	s.attendance[key] = a
	return a, nil
}

func (s *MemStore) AttendanceReport(_ context.Context, f core.AttendanceFilter) ([]core.AttendanceReportRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make(map[uuid.UUID]core.Event, len(s.events))
	for _, e := range s.events {
		events[e.ID] = e
	}
	counts := make(map[[2]string]int64)
	for _, a := range s.attendance {
		e := events[a.EventID]
		if f.EventID != uuid.Nil && e.ID != f.EventID {
			continue
		}
		if f.DateFrom != "" && e.Date < f.DateFrom {
			continue
		}
		if f.DateTo != "" && e.Date > f.DateTo {
			continue
		}
		counts[[2]string{e.Title, string(a.Status)}]++
	}

	rows := make([]core.AttendanceReportRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, core.AttendanceReportRow{EventTitle: k[0], Status: core.AttendanceStatus(k[1]), Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EventTitle != rows[j].EventTitle {
			return rows[i].EventTitle < rows[j].EventTitle
		}
		return rows[i].Status < rows[j].Status
	})
	return rows, nil
}

func (s *MemStore) CreateCommunication(_ context.Context, in core.CommunicationInput) (core.CommunicationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[uuid.UUID]bool, len(in.RecipientIDs))
	for _, id := range in.RecipientIDs {
		want[id] = true
	}
	var recipients []core.Member
	for _, m := range s.members {
		if want[m.ID] {
			recipients = append(recipients, m)
		}
	}
	sort.SliceStable(recipients, func(i, j int) bool {
		if recipients[i].LastName != recipients[j].LastName {
			return recipients[i].LastName < recipients[j].LastName
		}
		return recipients[i].FirstName < recipients[j].FirstName
	})
	names := make([]string, len(recipients))
	for i, m := range recipients {
		names[i] = m.FullName()
	}

	c := core.CommunicationLog{
		ID:         uuid.New(),
		Sender:     in.Sender,
		Recipients: names,
		Type:       in.Type,
		Subject:    in.Subject,
		Message:    in.Message,
		SentAt:     s.Now(),
	}
	s.comms = append(s.comms, c)
	return c, nil
}

// AddCommunication stores a log as is, keeping its SentAt.
func (s *MemStore) AddCommunication(c core.CommunicationLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.comms = append(s.comms, c)
}

func (s *MemStore) ListCommunications(context.Context) ([]core.CommunicationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]core.CommunicationLog(nil), s.comms...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out, nil
}

func (s *MemStore) CountCommunicationsByType(context.Context) ([]core.TypeCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[core.CommunicationType]int64)
	for _, c := range s.comms {
		counts[c.Type]++
	}
	out := make([]core.TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, core.TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (s *MemStore) DeleteCommunicationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.comms[:0]
	var n int64
	for _, c := range s.comms {
		if c.SentAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	s.comms = kept
	return n, nil
}
