package database

import (
	"context"
)

const createEvent = `INSERT INTO events (id, title, description, event_type, date, time, location, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (q *Queries) CreateEvent(ctx context.Context, e Event) error {
	_, err := q.db.Exec(ctx, createEvent,
		e.ID, e.Title, e.Description, e.EventType, e.Date, e.Time, e.Location, e.CreatedBy, e.CreatedAt,
	)
	return err
}

const listEvents = `SELECT id, title, description, event_type, date, time, location, created_by, created_at
FROM events
ORDER BY date DESC, title`

func (q *Queries) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := q.db.Query(ctx, listEvents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.EventType, &e.Date, &e.Time,
			&e.Location, &e.CreatedBy, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertAttendance = `INSERT INTO attendance (id, member_id, event_id, status, notes, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (member_id, event_id) DO UPDATE
SET status = EXCLUDED.status, notes = EXCLUDED.notes, recorded_at = EXCLUDED.recorded_at
RETURNING id, member_id, event_id, status, notes, recorded_at`

// UpsertAttendance records a member's attendance for an event. A second
// record for the same pair replaces the first.
func (q *Queries) UpsertAttendance(ctx context.Context, a Attendance) (Attendance, error) {
	var out Attendance
	err := q.db.QueryRow(ctx, upsertAttendance,
		a.ID, a.MemberID, a.EventID, a.Status, a.Notes, a.RecordedAt,
	).Scan(&out.ID, &out.MemberID, &out.EventID, &out.Status, &out.Notes, &out.RecordedAt)
	return out, err
}
