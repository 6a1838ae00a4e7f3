package core

// validation.go holds the per-row member rules used by the importer and the
// JSON API, plus input checks for the other entities.
//
// Member rules run in order and the first failure wins:
//  1. first_name and last_name, trimmed, must both be non-empty
//  2. gender, trimmed and uppercased, must be M or F (absent column means M)
//  3. category, trimmed, must be a known category (absent column means Member)
//
// Contacts and email are trimmed and otherwise passed through.

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Member import columns.
const (
	ColFirstName = "first_name"
	ColLastName  = "last_name"
	ColContact1  = "contact_1"
	ColContact2  = "contact_2"
	ColGender    = "gender"
	ColEmail     = "email"
	ColCategory  = "category"
)

// MemberColumns is the expected header of a member import file.
var MemberColumns = []string{
	ColFirstName, ColLastName, ColContact1, ColContact2, ColGender, ColEmail, ColCategory,
}

const (
	defaultGender   = "M"
	defaultCategory = "Member"

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ValidationError is a rejected input. Error returns Message alone so it can
// be shown to users verbatim.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidateMemberRow checks one row of raw member fields keyed by column
// name. A key that is missing from row is absent; a key holding an empty
// string is present and blank.
func ValidateMemberRow(row map[string]string) (MemberInput, error) {
	first := strings.TrimSpace(row[ColFirstName])
	last := strings.TrimSpace(row[ColLastName])
	if first == "" || last == "" {
		return MemberInput{}, ValidationError{
			Field:   ColFirstName,
			Message: "First name and last name are required.",
		}
	}

	rawGender, ok := row[ColGender]
	if !ok {
		rawGender = defaultGender
	}
	g := strings.ToUpper(strings.TrimSpace(rawGender))
	gender, ok := ParseGender(g)
	if !ok {
		return MemberInput{}, ValidationError{
			Field:   ColGender,
			Value:   g,
			Message: fmt.Sprintf("Invalid gender '%s'. Must be 'M' or 'F'.", g),
		}
	}

	rawCategory, ok := row[ColCategory]
	if !ok {
		rawCategory = defaultCategory
	}
	c := strings.TrimSpace(rawCategory)
	category, ok := ParseCategory(c)
	if !ok {
		return MemberInput{}, ValidationError{
			Field:   ColCategory,
			Value:   c,
			Message: fmt.Sprintf("Invalid category '%s'.", c),
		}
	}

	return MemberInput{
		FirstName: first,
		LastName:  last,
		Contact1:  strings.TrimSpace(row[ColContact1]),
		Contact2:  strings.TrimSpace(row[ColContact2]),
		Gender:    gender,
		Email:     strings.TrimSpace(row[ColEmail]),
		Category:  category,
	}, nil
}

func ValidateGroupInput(in GroupInput) (GroupInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Leader = strings.TrimSpace(in.Leader)

	if in.Name == "" {
		return in, ValidationError{Field: "name", Message: "Group name is required."}
	}
	if len(in.Name) > 100 {
		return in, ValidationError{Field: "name", Value: in.Name, Message: "Group name must be at most 100 characters."}
	}
	return in, nil
}

func ValidateEventInput(in EventInput) (EventInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.CreatedBy = strings.TrimSpace(in.CreatedBy)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)

	if in.Title == "" {
		return in, ValidationError{Field: "title", Message: "Event title is required."}
	}
	if in.EventType == "" {
		return in, ValidationError{Field: "event_type", Message: "Event type is required."}
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return in, ValidationError{Field: "date", Value: in.Date, Message: "Event date must be YYYY-MM-DD."}
	}
	if in.Time != "" {
		if _, err := time.Parse(TimeLayout, in.Time); err != nil {
			return in, ValidationError{Field: "time", Value: in.Time, Message: "Event time must be HH:MM."}
		}
	}
	if in.CreatedBy == "" {
		return in, ValidationError{Field: "created_by", Message: "Event creator is required."}
	}
	return in, nil
}

func ValidateAttendanceInput(in AttendanceInput) (AttendanceInput, error) {
	if in.MemberID == uuid.Nil {
		return in, ValidationError{Field: "member_id", Message: "Member is required."}
	}
	if in.Status == "" {
		in.Status = StatusPresent
	}
	in.Notes = strings.TrimSpace(in.Notes)
	return in, nil
}

func ValidateCommunicationInput(in CommunicationInput) (CommunicationInput, error) {
	in.Sender = strings.TrimSpace(in.Sender)
	in.Subject = strings.TrimSpace(in.Subject)

	if in.Sender == "" {
		return in, ValidationError{Field: "sender", Message: "Sender is required."}
	}
	if in.Type == "" {
		return in, ValidationError{Field: "communication_type", Message: "Communication type is required."}
	}
	if strings.TrimSpace(in.Message) == "" {
		return in, ValidationError{Field: "message", Message: "Message is required."}
	}
	if len(in.Subject) > 200 {
		return in, ValidationError{Field: "subject", Message: "Subject must be at most 200 characters."}
	}
	return in, nil
}
