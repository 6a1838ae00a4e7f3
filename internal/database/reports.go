package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type AttendanceReportParams struct {
	EventID  pgtype.UUID
	DateFrom pgtype.Date
	DateTo   pgtype.Date
}

const attendanceReport = `SELECT e.title, a.status, count(a.id)
FROM attendance a
JOIN events e ON e.id = a.event_id
WHERE ($1::uuid IS NULL OR e.id = $1)
  AND ($2::date IS NULL OR e.date >= $2)
  AND ($3::date IS NULL OR e.date <= $3)
GROUP BY e.title, a.status
ORDER BY e.title, a.status`

// AttendanceReport counts attendance grouped by event title and status.
// Date bounds are inclusive; invalid params disable their filter.
func (q *Queries) AttendanceReport(ctx context.Context, arg AttendanceReportParams) ([]AttendanceReportRow, error) {
	rows, err := q.db.Query(ctx, attendanceReport, arg.EventID, arg.DateFrom, arg.DateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AttendanceReportRow
	for rows.Next() {
		var r AttendanceReportRow
		if err := rows.Scan(&r.EventTitle, &r.Status, &r.Count); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
