package core

// convert.go moves values between CSV records, domain types and pgtype.
// All ToPg* functions return Valid=false for empty input so the database
// stores NULL.

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// MakeHeaderIndex indexes a header row by trimmed, lowercased name. When a
// name repeats, the last occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// RowFields picks the member columns out of record. Columns missing from
// the header are left out of the map. A column present in the header but
// beyond the end of record is an error.
func RowFields(record []string, idx HeaderIndex) (map[string]string, error) {
	fields := make(map[string]string, len(MemberColumns))
	for _, col := range MemberColumns {
		pos, ok := idx[col]
		if !ok {
			continue
		}
		if pos >= len(record) {
			return nil, fmt.Errorf("missing value for column '%s' (record has %d fields)", col, len(record))
		}
		fields[col] = record[pos]
	}
	return fields, nil
}

func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate parses YYYY-MM-DD. Empty or invalid input is NULL.
func ToPgDate(s string) pgtype.Date {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// ToPgTime parses HH:MM. Empty or invalid input is NULL.
func ToPgTime(s string) pgtype.Time {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return pgtype.Time{Valid: false}
	}
	micros := int64(t.Hour())*int64(time.Hour/time.Microsecond) +
		int64(t.Minute())*int64(time.Minute/time.Microsecond)
	return pgtype.Time{Microseconds: micros, Valid: true}
}

func ToPgUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

func FromPgText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func FromPgDate(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

func FromPgTime(t pgtype.Time) string {
	if !t.Valid {
		return ""
	}
	d := time.Duration(t.Microseconds) * time.Microsecond
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
