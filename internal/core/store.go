package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/JonMunkholm/churchbase/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store is the persistence boundary of the service. PGStore is the
// PostgreSQL implementation; tests use an in-memory one.
type Store interface {
	MemberBatchCreator

	CreateMember(ctx context.Context, in MemberInput) (Member, error)
	SearchMembers(ctx context.Context, f MemberFilter) ([]Member, error)
	ListMembers(ctx context.Context) ([]Member, error)
	MembersByIDs(ctx context.Context, ids []uuid.UUID) ([]Member, error)
	CountMembers(ctx context.Context) (int64, error)
	CountMembersByCategory(ctx context.Context, c Category) (int64, error)

	CreateGroup(ctx context.Context, in GroupInput) (Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	AddGroupMembers(ctx context.Context, groupID uuid.UUID, memberIDs []uuid.UUID) (int64, error)

	CreateEvent(ctx context.Context, in EventInput) (Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	RecordAttendance(ctx context.Context, eventID uuid.UUID, in AttendanceInput) (Attendance, error)
	AttendanceReport(ctx context.Context, f AttendanceFilter) ([]AttendanceReportRow, error)

	CreateCommunication(ctx context.Context, in CommunicationInput) (CommunicationLog, error)
	ListCommunications(ctx context.Context) ([]CommunicationLog, error)
	CountCommunicationsByType(ctx context.Context) ([]TypeCount, error)
	DeleteCommunicationsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Ping(ctx context.Context) error
}

// Pool is what PGStore needs from a connection pool. *pgxpool.Pool and
// pgxmock pools satisfy it.
type Pool interface {
	database.DBTX
	database.TxBeginner
	Ping(ctx context.Context) error
}

type PGStore struct {
	pool Pool
	q    *database.Queries
	now  func() time.Time
}

func NewPGStore(pool Pool) *PGStore {
	return &PGStore{
		pool: pool,
		q:    database.New(pool),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *PGStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// CreateMembers loads every member with one COPY inside a transaction.
// IDs are assigned here so they can be returned in input order.
func (s *PGStore) CreateMembers(ctx context.Context, members []MemberInput) ([]uuid.UUID, error) {
	if len(members) == 0 {
		return nil, nil
	}

	rows, ids := batchMemberRows(members, s.now())

	err := database.InTx(ctx, s.pool, func(q *database.Queries) error {
		n, err := q.CopyMembers(ctx, rows)
		if err != nil {
			return err
		}
		if n != int64(len(rows)) {
			return fmt.Errorf("copied %d of %d members", n, len(rows))
		}
		return nil
	})
	if err != nil {
		return nil, translateDBError(err)
	}
	return ids, nil
}

func (s *PGStore) CreateMember(ctx context.Context, in MemberInput) (Member, error) {
	row := memberRow(uuid.New(), in, s.now())
	if err := s.q.CreateMember(ctx, row); err != nil {
		return Member{}, translateDBError(fmt.Errorf("create member: %w", err))
	}
	return toMember(row), nil
}

func (s *PGStore) SearchMembers(ctx context.Context, f MemberFilter) ([]Member, error) {
	rows, err := s.q.SearchMembers(ctx, database.SearchMembersParams{
		Query:    f.Query,
		GroupID:  ToPgUUID(f.GroupID),
		Category: string(f.Category),
		Limit:    int32(f.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search members: %w", err)
	}
	return toMembers(rows), nil
}

func (s *PGStore) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := s.q.ListAllMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return toMembers(rows), nil
}

func (s *PGStore) MembersByIDs(ctx context.Context, ids []uuid.UUID) ([]Member, error) {
	rows, err := s.q.ListMembersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list members by id: %w", err)
	}
	return toMembers(rows), nil
}

func (s *PGStore) CountMembers(ctx context.Context) (int64, error) {
	return s.q.CountMembers(ctx)
}

func (s *PGStore) CountMembersByCategory(ctx context.Context, c Category) (int64, error) {
	return s.q.CountMembersByCategory(ctx, string(c))
}

func (s *PGStore) CreateGroup(ctx context.Context, in GroupInput) (Group, error) {
	row := database.Group{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		Leader:      ToPgText(in.Leader),
		CreatedAt:   s.now(),
	}
	if err := s.q.CreateGroup(ctx, row); err != nil {
		return Group{}, translateDBError(fmt.Errorf("create group: %w", err))
	}
	return Group{
		ID: row.ID, Name: row.Name, Description: row.Description,
		Leader: in.Leader, CreatedAt: row.CreatedAt,
	}, nil
}

func (s *PGStore) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := s.q.ListGroupsWithCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	groups := make([]Group, len(rows))
	for i, r := range rows {
		groups[i] = Group{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Leader:      FromPgText(r.Leader),
			MemberCount: r.MemberCount,
			CreatedAt:   r.CreatedAt,
		}
	}
	return groups, nil
}

func (s *PGStore) AddGroupMembers(ctx context.Context, groupID uuid.UUID, memberIDs []uuid.UUID) (int64, error) {
	n, err := s.q.AddGroupMembers(ctx, groupID, memberIDs)
	if err != nil {
		return 0, translateDBError(fmt.Errorf("add group members: %w", err))
	}
	return n, nil
}

func (s *PGStore) CreateEvent(ctx context.Context, in EventInput) (Event, error) {
	row := database.Event{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		EventType:   string(in.EventType),
		Date:        ToPgDate(in.Date),
		Time:        ToPgTime(in.Time),
		Location:    in.Location,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   s.now(),
	}
	if err := s.q.CreateEvent(ctx, row); err != nil {
		return Event{}, translateDBError(fmt.Errorf("create event: %w", err))
	}
	return toEvent(row), nil
}

func (s *PGStore) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := s.q.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events := make([]Event, len(rows))
	for i, r := range rows {
		events[i] = toEvent(r)
	}
	return events, nil
}

func (s *PGStore) RecordAttendance(ctx context.Context, eventID uuid.UUID, in AttendanceInput) (Attendance, error) {
	row, err := s.q.UpsertAttendance(ctx, database.Attendance{
		ID:         uuid.New(),
		MemberID:   in.MemberID,
		EventID:    eventID,
		Status:     string(in.Status),
		Notes:      in.Notes,
		RecordedAt: s.now(),
	})
	if err != nil {
		return Attendance{}, translateDBError(fmt.Errorf("record attendance: %w", err))
	}
	return Attendance{
		ID:         row.ID,
		MemberID:   row.MemberID,
		EventID:    row.EventID,
		Status:     AttendanceStatus(row.Status),
		Notes:      row.Notes,
		RecordedAt: row.RecordedAt,
	}, nil
}

func (s *PGStore) AttendanceReport(ctx context.Context, f AttendanceFilter) ([]AttendanceReportRow, error) {
	rows, err := s.q.AttendanceReport(ctx, database.AttendanceReportParams{
		EventID:  ToPgUUID(f.EventID),
		DateFrom: ToPgDate(f.DateFrom),
		DateTo:   ToPgDate(f.DateTo),
	})
	if err != nil {
		return nil, fmt.Errorf("attendance report: %w", err)
	}
	report := make([]AttendanceReportRow, len(rows))
	for i, r := range rows {
		report[i] = AttendanceReportRow{EventTitle: r.EventTitle, Status: AttendanceStatus(r.Status), Count: r.Count}
	}
	return report, nil
}

// CreateCommunication stores the log and its recipient links together.
func (s *PGStore) CreateCommunication(ctx context.Context, in CommunicationInput) (CommunicationLog, error) {
	row := database.CommunicationLog{
		ID:                uuid.New(),
		Sender:            in.Sender,
		CommunicationType: string(in.Type),
		Subject:           in.Subject,
		Message:           in.Message,
		SentAt:            s.now(),
	}

	var recipients []database.Member
	err := database.InTx(ctx, s.pool, func(q *database.Queries) error {
		if err := q.CreateCommunicationLog(ctx, row); err != nil {
			return err
		}
		if len(in.RecipientIDs) == 0 {
			return nil
		}
		if _, err := q.AddCommunicationRecipients(ctx, row.ID, in.RecipientIDs); err != nil {
			return err
		}
		var err error
		recipients, err = q.ListMembersByIDs(ctx, in.RecipientIDs)
		return err
	})
	if err != nil {
		return CommunicationLog{}, translateDBError(fmt.Errorf("create communication: %w", err))
	}

	return CommunicationLog{
		ID:         row.ID,
		Sender:     row.Sender,
		Recipients: recipientNames(toMembers(recipients)),
		Type:       in.Type,
		Subject:    row.Subject,
		Message:    row.Message,
		SentAt:     row.SentAt,
	}, nil
}

func (s *PGStore) ListCommunications(ctx context.Context) ([]CommunicationLog, error) {
	rows, err := s.q.ListCommunicationLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list communications: %w", err)
	}
	logs := make([]CommunicationLog, len(rows))
	for i, r := range rows {
		logs[i] = CommunicationLog{
			ID:         r.ID,
			Sender:     r.Sender,
			Recipients: r.RecipientNames,
			Type:       CommunicationType(r.CommunicationType),
			Subject:    r.Subject,
			Message:    r.Message,
			SentAt:     r.SentAt,
		}
	}
	return logs, nil
}

func (s *PGStore) CountCommunicationsByType(ctx context.Context) ([]TypeCount, error) {
	rows, err := s.q.CountCommunicationsByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("count communications: %w", err)
	}
	counts := make([]TypeCount, len(rows))
	for i, r := range rows {
		counts[i] = TypeCount{Type: CommunicationType(r.CommunicationType), Count: r.Count}
	}
	return counts, nil
}

func (s *PGStore) DeleteCommunicationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.q.DeleteCommunicationLogsBefore(ctx, cutoff)
}

// batchMemberRows stamps each row one microsecond after the previous one so
// a batch keeps a stable created_at order at Postgres timestamp precision.
func batchMemberRows(members []MemberInput, now time.Time) ([]database.Member, []uuid.UUID) {
	rows := make([]database.Member, len(members))
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = uuid.New()
		rows[i] = memberRow(ids[i], m, now.Add(time.Duration(i)*time.Microsecond))
	}
	return rows, ids
}

func memberRow(id uuid.UUID, m MemberInput, now time.Time) database.Member {
	return database.Member{
		ID:        id,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Contact1:  m.Contact1,
		Contact2:  m.Contact2,
		Gender:    string(m.Gender),
		Email:     ToPgText(m.Email),
		Category:  string(m.Category),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func toMember(r database.Member) Member {
	return Member{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Contact1:  r.Contact1,
		Contact2:  r.Contact2,
		Gender:    Gender(r.Gender),
		Email:     FromPgText(r.Email),
		Category:  Category(r.Category),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toMembers(rows []database.Member) []Member {
	members := make([]Member, len(rows))
	for i, r := range rows {
		members[i] = toMember(r)
	}
	return members
}

func toEvent(r database.Event) Event {
	return Event{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		EventType:   EventType(r.EventType),
		Date:        FromPgDate(r.Date),
		Time:        FromPgTime(r.Time),
		Location:    r.Location,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

// recipientNames returns full names ordered by last name, then first name.
func recipientNames(members []Member) []string {
	sorted := append([]Member(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].LastName != sorted[j].LastName {
			return sorted[i].LastName < sorted[j].LastName
		}
		return sorted[i].FirstName < sorted[j].FirstName
	})
	names := make([]string, len(sorted))
	for i, m := range sorted {
		names[i] = m.FullName()
	}
	return names
}

// translateDBError maps constraint violations onto the package's sentinel
// errors, keeping the original error in the chain.
func translateDBError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case "23503":
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
