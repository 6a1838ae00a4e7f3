package core

import (
	"encoding/json"
	"fmt"
)

// Gender of a member. Only the values declared below are valid.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

var genders = []Gender{GenderMale, GenderFemale}

// Label returns the human-readable form used in exports.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	}
	return string(g)
}

func ParseGender(s string) (Gender, bool) { return parseEnum(s, genders) }

func (g *Gender) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, g, genders, "gender") }

// Category classifies a member. Member is the default and the only
// category counted as active on the dashboard.
type Category string

const (
	CategoryMember Category = "Member"
	CategoryPastor Category = "Pastor"
	CategoryStaff  Category = "Staff"
)

var categories = []Category{CategoryMember, CategoryPastor, CategoryStaff}

func ParseCategory(s string) (Category, bool) { return parseEnum(s, categories) }

func (c *Category) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, c, categories, "category")
}

// Categories lists every valid category in display order.
func Categories() []Category { return append([]Category(nil), categories...) }

type EventType string

const (
	EventService    EventType = "Service"
	EventBibleStudy EventType = "Bible Study"
	EventPrayer     EventType = "Prayer Meeting"
	EventFellowship EventType = "Fellowship"
	EventOutreach   EventType = "Outreach"
	EventOther      EventType = "Other"
)

var eventTypes = []EventType{EventService, EventBibleStudy, EventPrayer, EventFellowship, EventOutreach, EventOther}

func ParseEventType(s string) (EventType, bool) { return parseEnum(s, eventTypes) }

func (e *EventType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, e, eventTypes, "event_type")
}

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusAbsent  AttendanceStatus = "Absent"
	StatusExcused AttendanceStatus = "Excused"
)

var attendanceStatuses = []AttendanceStatus{StatusPresent, StatusAbsent, StatusExcused}

func ParseAttendanceStatus(s string) (AttendanceStatus, bool) {
	return parseEnum(s, attendanceStatuses)
}

func (a *AttendanceStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, a, attendanceStatuses, "status")
}

type CommunicationType string

const (
	CommunicationCall  CommunicationType = "Call"
	CommunicationSMS   CommunicationType = "SMS"
	CommunicationEmail CommunicationType = "Email"
	CommunicationVisit CommunicationType = "Visit"
)

var communicationTypes = []CommunicationType{CommunicationCall, CommunicationSMS, CommunicationEmail, CommunicationVisit}

func ParseCommunicationType(s string) (CommunicationType, bool) {
	return parseEnum(s, communicationTypes)
}

func (c *CommunicationType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, c, communicationTypes, "communication_type")
}

// parseEnum matches s exactly against the declared values.
func parseEnum[T ~string](s string, values []T) (T, bool) {
	for _, v := range values {
		if string(v) == s {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func unmarshalEnum[T ~string](b []byte, dst *T, values []T, field string) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	v, ok := parseEnum(s, values)
	if !ok {
		return ValidationError{Field: field, Value: s, Message: fmt.Sprintf("invalid %s %q", field, s)}
	}
	*dst = v
	return nil
}
