package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Member is a person on the church roll. Every persisted member has a
// non-empty first and last name and a valid gender and category.
type Member struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Contact1  string    `json:"contact_1"`
	Contact2  string    `json:"contact_2"`
	Gender    Gender    `json:"gender"`
	Email     string    `json:"email"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// MemberInput is a validated member that has not been stored yet.
// Only ValidateMemberRow produces one from raw input.
type MemberInput struct {
	FirstName string
	LastName  string
	Contact1  string
	Contact2  string
	Gender    Gender
	Email     string
	Category  Category
}

type Group struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Leader      string    `json:"leader,omitempty"`
	MemberCount int64     `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type GroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Leader      string `json:"leader"`
}

// Event dates are calendar dates formatted YYYY-MM-DD; Time is HH:MM or empty.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventType   EventType `json:"event_type"`
	Date        string    `json:"date"`
	Time        string    `json:"time,omitempty"`
	Location    string    `json:"location"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventType   EventType `json:"event_type"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	CreatedBy   string    `json:"created_by"`
}

type Attendance struct {
	ID         uuid.UUID        `json:"id"`
	MemberID   uuid.UUID        `json:"member_id"`
	EventID    uuid.UUID        `json:"event_id"`
	Status     AttendanceStatus `json:"status"`
	Notes      string           `json:"notes"`
	RecordedAt time.Time        `json:"recorded_at"`
}

type AttendanceInput struct {
	MemberID uuid.UUID        `json:"member_id"`
	Status   AttendanceStatus `json:"status"`
	Notes    string           `json:"notes"`
}

// CommunicationLog records a call, message or visit. Recipients holds the
// recipients' full names sorted by last name.
type CommunicationLog struct {
	ID         uuid.UUID         `json:"id"`
	Sender     string            `json:"sender"`
	Recipients []string          `json:"recipients"`
	Type       CommunicationType `json:"communication_type"`
	Subject    string            `json:"subject"`
	Message    string            `json:"message"`
	SentAt     time.Time         `json:"sent_at"`
}

type CommunicationInput struct {
	Sender       string            `json:"sender"`
	RecipientIDs []uuid.UUID       `json:"recipient_ids"`
	Type         CommunicationType `json:"communication_type"`
	Subject      string            `json:"subject"`
	Message      string            `json:"message"`
}

// MemberFilter narrows a member search. Zero values match everything.
type MemberFilter struct {
	Query    string
	GroupID  uuid.UUID
	Category Category
	Limit    int
}

// RowError is a rejected import row. Row is the physical line number in
// the source file, where the header is line 1.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) String() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

// ImportOutcome summarizes one import. Created holds the new member IDs in
// file order; in a dry run it is empty and Valid counts what would have
// been created.
type ImportOutcome struct {
	FileName string        `json:"file_name"`
	DryRun   bool          `json:"dry_run"`
	Created  []uuid.UUID   `json:"created_ids"`
	Valid    int           `json:"valid_rows"`
	Errors   []RowError    `json:"errors"`
	Duration time.Duration `json:"-"`
}

func (o ImportOutcome) CreatedCount() int { return len(o.Created) }

func (o ImportOutcome) ErrorCount() int { return len(o.Errors) }

// ErrorMessages returns every row error formatted as "Row N: reason".
func (o ImportOutcome) ErrorMessages() []string {
	msgs := make([]string, len(o.Errors))
	for i, e := range o.Errors {
		msgs[i] = e.String()
	}
	return msgs
}
