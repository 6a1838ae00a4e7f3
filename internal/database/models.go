package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Member struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Contact1  string
	Contact2  string
	Gender    string
	Email     pgtype.Text
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Group struct {
	ID          uuid.UUID
	Name        string
	Description string
	Leader      pgtype.Text
	CreatedAt   time.Time
}

type GroupWithCount struct {
	Group
	MemberCount int64
}

type Event struct {
	ID          uuid.UUID
	Title       string
	Description string
	EventType   string
	Date        pgtype.Date
	Time        pgtype.Time
	Location    string
	CreatedBy   string
	CreatedAt   time.Time
}

type Attendance struct {
	ID         uuid.UUID
	MemberID   uuid.UUID
	EventID    uuid.UUID
	Status     string
	Notes      string
	RecordedAt time.Time
}

type CommunicationLog struct {
	ID                uuid.UUID
	Sender            string
	CommunicationType string
	Subject           string
	Message           string
	SentAt            time.Time
}

// CommunicationLogRow is a log joined with its recipients' full names.
type CommunicationLogRow struct {
	CommunicationLog
	RecipientNames []string
}

type TypeCount struct {
	CommunicationType string
	Count             int64
}

type AttendanceReportRow struct {
	EventTitle string
	Status     string
	Count      int64
}
